package onnx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

// TokenClassifier is an EntityRecognizer backed by a BIO-tagged token
// classification model (CoNLL or OntoNotes label sets).
type TokenClassifier struct {
	model   *model
	metrics *observability.Metrics
	logger  *slog.Logger
}

// LoadTokenClassifier loads the NER model in dir.
func LoadTokenClassifier(rt *Runtime, dir string, maxLen int, metrics *observability.Metrics, logger *slog.Logger) (*TokenClassifier, error) {
	m, err := loadModel(rt, dir, maxLen)
	if err != nil {
		return nil, err
	}
	return &TokenClassifier{model: m, metrics: metrics, logger: logger}, nil
}

// Recognize tags text and returns entity spans in text order.
func (c *TokenClassifier) Recognize(_ context.Context, text string) ([]domain.Entity, error) {
	if c == nil || c.model == nil {
		return nil, domain.ErrNERUnavailable
	}

	start := time.Now()
	defer func() {
		c.metrics.InferenceDuration.WithLabelValues("ner").Observe(time.Since(start).Seconds())
	}()

	enc, err := c.model.encode(text)
	if err != nil {
		return nil, err
	}
	numLabels := len(c.model.labels)
	logits, err := c.model.run(enc, ort.NewShape(1, int64(enc.len()), int64(numLabels)))
	if err != nil {
		return nil, err
	}
	if len(logits) != enc.len()*numLabels {
		return nil, fmt.Errorf("unexpected logits size %d for %d tokens", len(logits), enc.len())
	}

	tags := make([]string, enc.len())
	for i := range tags {
		tags[i] = c.model.labels[argmax(logits[i*numLabels:(i+1)*numLabels])]
	}
	return decodeEntities(text, tags, enc.offsets, enc.special), nil
}

// Close releases the session.
func (c *TokenClassifier) Close() error {
	if c == nil {
		return nil
	}
	return c.model.close()
}

// decodeEntities groups BIO tags into spans of text. A token continues the
// open span when it is tagged I- of the same type, or when it is a subword
// glued to the previous token.
func decodeEntities(text string, tags []string, offsets [][]int, special []bool) []domain.Entity {
	var out []domain.Entity
	spanStart, spanEnd, spanType := -1, -1, ""

	flush := func() {
		if spanStart >= 0 {
			if s, ok := sliceText(text, spanStart, spanEnd); ok {
				out = append(out, domain.Entity{Text: s, Type: entityType(spanType), Offset: spanStart})
			}
		}
		spanStart, spanEnd, spanType = -1, -1, ""
	}

	for i, tag := range tags {
		if (i < len(special) && special[i]) || i >= len(offsets) || len(offsets[i]) < 2 {
			flush()
			continue
		}
		start, end := offsets[i][0], offsets[i][1]
		if start >= end {
			continue
		}

		prefix, typ := splitTag(tag)
		switch {
		case prefix == "O":
			flush()
		case spanStart >= 0 && typ == spanType && (prefix == "I" || start == spanEnd):
			spanEnd = end
		default:
			flush()
			spanStart, spanEnd, spanType = start, end, typ
		}
	}
	flush()
	return out
}

// splitTag splits "B-LOC" into ("B", "LOC"). Tags without a prefix are
// treated as inside tags.
func splitTag(tag string) (prefix, typ string) {
	if tag == "" || tag == "O" {
		return "O", ""
	}
	if p, t, ok := strings.Cut(tag, "-"); ok && (p == "B" || p == "I") {
		return p, t
	}
	return "I", tag
}

func entityType(label string) domain.EntityType {
	switch strings.ToUpper(label) {
	case "GPE":
		return domain.EntityPlace
	case "LOC":
		return domain.EntityLocation
	case "FAC":
		return domain.EntityFacility
	case "ORG":
		return domain.EntityOrganization
	default:
		return domain.EntityOther
	}
}

func sliceText(text string, start, end int) (string, bool) {
	if start < 0 || end > len(text) || start >= end {
		return "", false
	}
	if !utf8.RuneStart(text[start]) || (end < len(text) && !utf8.RuneStart(text[end])) {
		return "", false
	}
	return text[start:end], true
}
