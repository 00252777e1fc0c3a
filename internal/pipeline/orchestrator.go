// Package pipeline runs disaster text through the classifiers, the severity
// correction rules and the location resolver, and drives the report sinks.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

// Pipeline combines the disaster classifier, the severity classifier and the
// location resolver into one result per text.
type Pipeline struct {
	disaster  domain.Classifier
	severity  domain.Classifier
	locations *domain.LocationResolver
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. Nil classifiers are treated as unavailable and a nil
// resolver never resolves a location.
func New(disaster, severity domain.Classifier, locations *domain.LocationResolver, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if disaster == nil {
		disaster = domain.UnavailableClassifier{}
	}
	if severity == nil {
		severity = domain.UnavailableClassifier{}
	}
	return &Pipeline{
		disaster:  disaster,
		severity:  severity,
		locations: locations,
		logger:    logger,
		metrics:   metrics,
	}
}

// ModelsLoaded reports which of the two classifiers are available.
func (p *Pipeline) ModelsLoaded() (disaster, severity bool) {
	return p.disaster.Loaded(), p.severity.Loaded()
}

// Run classifies text and resolves its location concurrently. It never fails:
// unavailable classifiers yield N/A and an unresolvable location yields nil.
func (p *Pipeline) Run(ctx context.Context, text string) domain.CombinedResult {
	start := time.Now()
	defer func() { p.metrics.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	var (
		wg       sync.WaitGroup
		disaster domain.ClassificationResult
		severity domain.ClassificationResult
		location *domain.ResolvedLocation
	)
	wg.Go(func() { disaster = p.classify(ctx, "disaster", p.disaster, text) })
	wg.Go(func() { severity = p.classify(ctx, "severity", p.severity, text) })
	wg.Go(func() { location = p.resolve(ctx, text) })
	wg.Wait()

	severity = p.correct(text, severity)

	return domain.CombinedResult{Disaster: disaster, Severity: severity}.WithLocation(location)
}

func (p *Pipeline) classify(ctx context.Context, name string, c domain.Classifier, text string) domain.ClassificationResult {
	result := c.Classify(ctx, text)
	outcome := "ok"
	if !result.Available() {
		outcome = "unavailable"
	}
	p.metrics.ClassifierResults.WithLabelValues(name, outcome).Inc()
	return result
}

// correct applies the keyword rules to an available severity result, keeping
// the model's probability.
func (p *Pipeline) correct(text string, severity domain.ClassificationResult) domain.ClassificationResult {
	if !severity.Available() {
		return severity
	}
	corrected := domain.CorrectSeverity(text, severity.Label)
	if corrected == severity.Label {
		return severity
	}
	p.logger.Info("severity overridden", "from", severity.Label, "to", corrected)
	p.metrics.SeverityOverrides.WithLabelValues(severity.Label, corrected).Inc()
	return domain.ClassificationResult{Label: corrected, Probability: severity.Probability}
}

func (p *Pipeline) resolve(ctx context.Context, text string) *domain.ResolvedLocation {
	loc := p.locations.Resolve(ctx, text)
	outcome := "absent"
	if loc != nil {
		outcome = "resolved"
	}
	p.metrics.LocationResolutions.WithLabelValues(outcome).Inc()
	return loc
}
