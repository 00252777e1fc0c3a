package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadLabels_FromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"architectures":["BertForSequenceClassification"],"id2label":{"2":"High","0":"Low","1":"Medium"}}`)

	labels, err := loadLabels(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Low", "Medium", "High"}, labels)
}

func TestLoadLabels_FallsBackToLabelsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"model_type":"bert"}`)
	writeFile(t, dir, "labels.json", `["cyclone","earthquake","flood"]`)

	labels, err := loadLabels(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"cyclone", "earthquake", "flood"}, labels)
}

func TestLoadLabels_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"nothing", nil},
		{"bad config json", map[string]string{"config.json": `{`}},
		{"non numeric key", map[string]string{"config.json": `{"id2label":{"a":"x"}}`}},
		{"gap in ids", map[string]string{"config.json": `{"id2label":{"0":"x","2":"y"}}`}},
		{"empty labels file", map[string]string{"labels.json": `[]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			_, err := loadLabels(dir)
			assert.Error(t, err)
		})
	}
}

func TestSelectInputs(t *testing.T) {
	names, err := selectInputs([]ort.InputOutputInfo{{Name: "input_ids"}, {Name: "attention_mask"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"input_ids", "attention_mask"}, names)

	_, err = selectInputs([]ort.InputOutputInfo{{Name: "pixel_values"}})
	assert.Error(t, err)

	_, err = selectInputs([]ort.InputOutputInfo{{Name: "attention_mask"}})
	assert.Error(t, err)
}

func TestLoadModel_RequiresRuntime(t *testing.T) {
	_, err := LoadSequenceClassifier(nil, "disaster", t.TempDir(), 128, observability.NewMetricsForTesting(), nil)
	assert.Error(t, err)
}

func TestSequenceClassifier_NotLoaded(t *testing.T) {
	var c *SequenceClassifier
	assert.False(t, c.Loaded())
	assert.Equal(t, domain.Unavailable(), c.Classify(t.Context(), "flood"))
	assert.NoError(t, c.Close())
}

func TestTokenClassifier_NotLoaded(t *testing.T) {
	var c *TokenClassifier
	_, err := c.Recognize(t.Context(), "Solan")
	assert.ErrorIs(t, err, domain.ErrNERUnavailable)
}
