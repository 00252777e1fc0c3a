package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/pipeline"
)

// --- classifiers ---

type fixedClassifier struct {
	result domain.ClassificationResult
}

func (f fixedClassifier) Classify(context.Context, string) domain.ClassificationResult {
	return f.result
}

func (f fixedClassifier) Loaded() bool { return true }

func classifier(label string, prob float64) domain.Classifier {
	return fixedClassifier{result: domain.ClassificationResult{Label: label, Probability: prob}}
}

// --- location ---

type fakeRecognizer struct {
	entities []domain.Entity
}

func (f fakeRecognizer) Recognize(context.Context, string) ([]domain.Entity, error) {
	return f.entities, nil
}

type fakeGazetteer map[string]domain.GeocodingResult

func (f fakeGazetteer) ForwardGeocode(_ context.Context, query, _ string) (domain.GeocodingResult, error) {
	return f[query], nil
}

var indiaGazetteer = fakeGazetteer{
	"Solan":            {Lat: 30.9045, Lon: 77.0967, PlaceName: "Solan"},
	"Himachal Pradesh": {Lat: 31.8173, Lon: 77.3493, PlaceName: "Himachal Pradesh"},
}

func resolver(entities ...domain.Entity) *domain.LocationResolver {
	return domain.NewLocationResolver(fakeRecognizer{entities: entities}, indiaGazetteer, "in", time.Second, discardLogger())
}

// --- sinks ---

type memStore struct {
	mu      sync.Mutex
	reports []domain.Report
	err     error
}

func (m *memStore) SaveReport(_ context.Context, r domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, r)
	return nil
}

func (m *memStore) RecentReports(_ context.Context, limit int) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Report, 0, limit)
	for i := len(m.reports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.reports[i])
	}
	return out, nil
}

func (m *memStore) saved() []domain.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Report(nil), m.reports...)
}

type fakePublisher struct {
	published [][]domain.Report
	err       error
}

func (f *fakePublisher) PublishReports(_ context.Context, reports []domain.Report) error {
	f.published = append(f.published, reports)
	return f.err
}

type fakeNotifier struct {
	notified []domain.Report
	err      error
}

func (f *fakeNotifier) NotifyReport(_ context.Context, r domain.Report) error {
	f.notified = append(f.notified, r)
	return f.err
}

// --- stream ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type failingRecorder struct {
	calls atomic.Int64
}

func (f *failingRecorder) Record(context.Context, []domain.Report) error {
	f.calls.Add(1)
	return errors.New("database unavailable")
}

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newPipeline(disaster, severity domain.Classifier, locations *domain.LocationResolver) *pipeline.Pipeline {
	return pipeline.New(disaster, severity, locations, discardLogger(), newTestMetrics())
}
