package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
)

type echoRunner struct {
	texts []string
}

func (r *echoRunner) Run(_ context.Context, text string) domain.CombinedResult {
	r.texts = append(r.texts, text)
	return domain.CombinedResult{
		Disaster: domain.ClassificationResult{Label: "Flood", Probability: 0.9},
		Severity: domain.ClassificationResult{Label: "Medium", Probability: 0.6},
	}
}

func TestPredictLinesSkipsBlankLines(t *testing.T) {
	r := &echoRunner{}
	var out bytes.Buffer

	err := predictLines(t.Context(), r, strings.NewReader("Flood in Assam\n\n   \nRiver overflow near Guwahati\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"Flood in Assam", "River overflow near Guwahati"}, r.texts)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, map[string]any{"label": "Flood", "prob": 0.9}, got["disaster"])
	assert.Nil(t, got["location"])
	assert.Nil(t, got["coordinates"])
}

func TestPredictLinesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	r := &echoRunner{}
	err := predictLines(ctx, r, strings.NewReader("a\nb\n"), &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.texts)
}

func TestPredictOne(t *testing.T) {
	r := &echoRunner{}
	var out bytes.Buffer

	require.NoError(t, predictOne(t.Context(), r, "  Landslide\nnear Shimla ", &out))
	require.Len(t, r.texts, 1)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))

	require.Error(t, predictOne(t.Context(), r, "   ", &out))
}
