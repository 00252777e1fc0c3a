package domain

import "context"

// NotAvailable is the label reported by a classifier whose model could not be loaded.
const NotAvailable = "N/A"

// Severity vocabulary shared by the severity classifier and the correction engine.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// ClassificationResult is the argmax label of a classifier and its softmax probability.
type ClassificationResult struct {
	Label       string  `json:"label"`
	Probability float64 `json:"prob"`
}

// Unavailable returns the sentinel result of a classifier that could not run.
func Unavailable() ClassificationResult {
	return ClassificationResult{Label: NotAvailable, Probability: 0}
}

// Available reports whether the result came from a loaded model.
func (r ClassificationResult) Available() bool {
	return r.Label != NotAvailable
}

// Classifier maps text to a single label from a fixed vocabulary.
// Implementations never fail; a missing model yields Unavailable().
type Classifier interface {
	Classify(ctx context.Context, text string) ClassificationResult
	Loaded() bool
}

// UnavailableClassifier stands in for a classifier whose weights failed to load.
type UnavailableClassifier struct{}

func (UnavailableClassifier) Classify(context.Context, string) ClassificationResult {
	return Unavailable()
}

func (UnavailableClassifier) Loaded() bool { return false }
