package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

var (
	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("text is empty")
	// ErrModelsUnavailable is returned when neither classifier is loaded.
	ErrModelsUnavailable = errors.New("no classifier models loaded")
)

// Store persists reports and serves the most recent ones.
type Store interface {
	SaveReport(ctx context.Context, report domain.Report) error
	RecentReports(ctx context.Context, limit int) ([]domain.Report, error)
}

// Publisher forwards reports to a downstream topic.
type Publisher interface {
	PublishReports(ctx context.Context, reports []domain.Report) error
}

// Notifier alerts humans about a report.
type Notifier interface {
	NotifyReport(ctx context.Context, report domain.Report) error
}

// ServiceOption configures optional Service sinks.
type ServiceOption func(*Service)

// WithPublisher forwards every recorded report to p.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithNotifier sends High severity reports to n.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// Service turns texts into stored reports.
type Service struct {
	pipeline  *Pipeline
	store     Store
	publisher Publisher
	notifier  Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service backed by store.
func NewService(p *Pipeline, store Store, logger *slog.Logger, metrics *observability.Metrics, opts ...ServiceOption) *Service {
	s := &Service{
		pipeline: p,
		store:    store,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModelsLoaded reports whether both classifiers are available.
func (s *Service) ModelsLoaded() bool {
	disaster, severity := s.pipeline.ModelsLoaded()
	return disaster && severity
}

// CheckReadiness returns nil when at least one classifier can serve.
func (s *Service) CheckReadiness(_ context.Context) error {
	if disaster, severity := s.pipeline.ModelsLoaded(); !disaster && !severity {
		return ErrModelsUnavailable
	}
	return nil
}

// Analyze runs the pipeline on text and builds an unsaved report.
func (s *Service) Analyze(ctx context.Context, text string) (domain.Report, error) {
	text = domain.NormalizeText(text)
	if text == "" {
		return domain.Report{}, ErrEmptyText
	}
	if err := s.CheckReadiness(ctx); err != nil {
		return domain.Report{}, err
	}
	return domain.NewReport(text, s.pipeline.Run(ctx, text)), nil
}

// Record stores reports, then publishes and alerts on them. Only store
// failures are returned.
func (s *Service) Record(ctx context.Context, reports []domain.Report) error {
	for i := range reports {
		if err := s.store.SaveReport(ctx, reports[i]); err != nil {
			s.metrics.ReportsStored.WithLabelValues("error").Inc()
			return fmt.Errorf("save report %s: %w", reports[i].ID, err)
		}
		s.metrics.ReportsStored.WithLabelValues("success").Inc()
	}

	if s.publisher != nil && len(reports) > 0 {
		if err := s.publisher.PublishReports(ctx, reports); err != nil {
			s.logger.Error("publish reports failed", "error", err, "count", len(reports))
		} else {
			s.metrics.ReportsPublished.Add(float64(len(reports)))
		}
	}

	if s.notifier != nil {
		for i := range reports {
			s.notify(ctx, reports[i])
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, report domain.Report) {
	if report.Severity != domain.SeverityHigh {
		return
	}
	if err := s.notifier.NotifyReport(ctx, report); err != nil {
		s.metrics.AlertsSent.WithLabelValues("error").Inc()
		s.logger.Warn("alert failed", "error", err, "report_id", report.ID)
		return
	}
	s.metrics.AlertsSent.WithLabelValues("success").Inc()
}

// Predict analyzes and records a single text.
func (s *Service) Predict(ctx context.Context, text string) (domain.Report, error) {
	report, err := s.Analyze(ctx, text)
	if err != nil {
		return domain.Report{}, err
	}
	if err := s.Record(ctx, []domain.Report{report}); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

// Recent returns up to limit reports, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Report, error) {
	reports, err := s.store.RecentReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent reports: %w", err)
	}
	return reports, nil
}
