package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnavailableClassifier(t *testing.T) {
	var c Classifier = UnavailableClassifier{}

	got := c.Classify(context.Background(), "Flood waters rising in Assam")

	assert.Equal(t, ClassificationResult{Label: "N/A", Probability: 0.0}, got)
	assert.False(t, got.Available())
	assert.False(t, c.Loaded())
}

func TestClassificationResult_Available(t *testing.T) {
	assert.True(t, ClassificationResult{Label: "flood", Probability: 0.91}.Available())
	assert.False(t, Unavailable().Available())
}
