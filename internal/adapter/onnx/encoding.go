package onnx

import "github.com/sugarme/tokenizer"

// encoding is a tokenized text in the int64 layout the models expect.
type encoding struct {
	ids     []int64
	typeIDs []int64
	mask    []int64
	offsets [][]int // byte offsets into the input text
	special []bool
}

func fromTokenizer(e *tokenizer.Encoding) encoding {
	n := len(e.Ids)
	enc := encoding{
		ids:     make([]int64, n),
		typeIDs: make([]int64, n),
		mask:    make([]int64, n),
		offsets: make([][]int, n),
		special: make([]bool, n),
	}
	for i := range n {
		enc.ids[i] = int64(e.Ids[i])
		enc.mask[i] = 1
		if i < len(e.TypeIds) {
			enc.typeIDs[i] = int64(e.TypeIds[i])
		}
		if i < len(e.AttentionMask) {
			enc.mask[i] = int64(e.AttentionMask[i])
		}
		if i < len(e.Offsets) {
			enc.offsets[i] = e.Offsets[i]
		}
		if i < len(e.SpecialTokenMask) {
			enc.special[i] = e.SpecialTokenMask[i] == 1
		}
	}
	return enc
}

func (e encoding) len() int { return len(e.ids) }

func (e encoding) input(name string) []int64 {
	switch name {
	case attentionMask:
		return e.mask
	case tokenTypeIDs:
		return e.typeIDs
	default:
		return e.ids
	}
}

// truncateHead keeps the first maxLen tokens. When the sequence ends with a
// special token (the separator) it is kept as the last token.
func (e encoding) truncateHead(maxLen int) encoding {
	n := e.len()
	if maxLen <= 0 || n <= maxLen {
		return e
	}

	idx := make([]int, 0, maxLen)
	if e.special[n-1] && maxLen > 1 {
		for i := range maxLen - 1 {
			idx = append(idx, i)
		}
		idx = append(idx, n-1)
	} else {
		for i := range maxLen {
			idx = append(idx, i)
		}
	}

	out := encoding{
		ids:     make([]int64, len(idx)),
		typeIDs: make([]int64, len(idx)),
		mask:    make([]int64, len(idx)),
		offsets: make([][]int, len(idx)),
		special: make([]bool, len(idx)),
	}
	for j, i := range idx {
		out.ids[j] = e.ids[i]
		out.typeIDs[j] = e.typeIDs[i]
		out.mask[j] = e.mask[i]
		out.offsets[j] = e.offsets[i]
		out.special[j] = e.special[i]
	}
	return out
}
