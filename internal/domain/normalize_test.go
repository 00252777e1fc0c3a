package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"fullwidth folded", "ＦＬＯＯＤ in Ａｓｓａｍ", "FLOOD in Assam"},
		{"trimmed", "  cyclone warning \n", "cyclone warning"},
		{"control characters dropped", "heavy\x00 rain\x07", "heavy rain"},
		{"newline and tab kept", "line one\nline\ttwo", "line one\nline\ttwo"},
		{"devanagari unchanged", "भूकंप", "भूकंप"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeText(tc.in))
		})
	}
}
