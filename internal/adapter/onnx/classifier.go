package onnx

import (
	"context"
	"log/slog"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

// SequenceClassifier labels a whole text with one class of a fine-tuned
// sequence-classification model.
type SequenceClassifier struct {
	name    string
	model   *model
	metrics *observability.Metrics
	logger  *slog.Logger
}

// LoadSequenceClassifier loads the model in dir. name identifies the
// classifier in logs and metrics ("disaster", "severity").
func LoadSequenceClassifier(rt *Runtime, name, dir string, maxLen int, metrics *observability.Metrics, logger *slog.Logger) (*SequenceClassifier, error) {
	m, err := loadModel(rt, dir, maxLen)
	if err != nil {
		return nil, err
	}
	return &SequenceClassifier{name: name, model: m, metrics: metrics, logger: logger}, nil
}

// Loaded reports whether the model is ready for inference.
func (c *SequenceClassifier) Loaded() bool {
	return c != nil && c.model != nil
}

// Classify returns the most probable label with its softmax probability.
// Inference failures are logged and reported as unavailable.
func (c *SequenceClassifier) Classify(_ context.Context, text string) domain.ClassificationResult {
	if !c.Loaded() {
		return domain.Unavailable()
	}

	start := time.Now()
	probs, err := c.predict(text)
	c.metrics.InferenceDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("inference failed", "classifier", c.name, "error", err)
		return domain.Unavailable()
	}

	best := argmax(probs)
	return domain.ClassificationResult{Label: c.model.labels[best], Probability: probs[best]}
}

func (c *SequenceClassifier) predict(text string) ([]float64, error) {
	enc, err := c.model.encode(text)
	if err != nil {
		return nil, err
	}
	logits, err := c.model.run(enc, ort.NewShape(1, int64(len(c.model.labels))))
	if err != nil {
		return nil, err
	}
	return softmax(logits), nil
}

// Close releases the session.
func (c *SequenceClassifier) Close() error {
	if c == nil {
		return nil
	}
	return c.model.close()
}
