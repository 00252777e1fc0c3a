package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/robfig/cron/v3"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/cache"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

// Predictor analyzes and records one text.
type Predictor interface {
	Predict(ctx context.Context, text string) (domain.Report, error)
}

// seenCapacity bounds the set of item IDs remembered across polls.
const seenCapacity = 10000

// Poller fetches every source on a cron schedule and submits unseen items to
// the predictor, pausing between submissions.
type Poller struct {
	sources   []Source
	predictor Predictor
	schedule  string
	delay     time.Duration
	seen      *cache.LRU[string, struct{}]
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewPoller creates a Poller. schedule is a standard five-field cron spec.
func NewPoller(sources []Source, predictor Predictor, schedule string, delay time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Poller {
	return &Poller{
		sources:   sources,
		predictor: predictor,
		schedule:  schedule,
		delay:     delay,
		seen:      cache.NewLRU[string, struct{}](seenCapacity),
		metrics:   metrics,
		logger:    logger,
	}
}

// Run polls once immediately, then on every schedule tick until ctx is
// cancelled. A tick that fires while a poll is still running is skipped.
func (p *Poller) Run(ctx context.Context) error {
	schedule, err := cron.ParseStandard(p.schedule)
	if err != nil {
		return fmt.Errorf("parse feed schedule %q: %w", p.schedule, err)
	}

	logger := cronLogger{p.logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	id := c.Schedule(schedule, cron.FuncJob(func() { p.Poll(ctx) }))
	first := c.Entry(id).WrappedJob

	p.logger.Info("feed poller started", "schedule", p.schedule, "sources", len(p.sources))
	c.Start()

	var wg sync.WaitGroup
	wg.Go(first.Run)

	<-ctx.Done()
	<-c.Stop().Done()
	wg.Wait()
	p.logger.Info("feed poller stopped")
	return nil
}

// Poll fetches all sources once and returns the number of items submitted
// successfully.
func (p *Poller) Poll(ctx context.Context) int {
	submitted, attempts := 0, 0
	for _, src := range p.sources {
		if ctx.Err() != nil {
			break
		}
		items, err := src.Fetch(ctx)
		if err != nil {
			p.logger.Warn("feed fetch failed", "source", src.Name(), "error", err)
			continue
		}
		p.metrics.FeedItemsFetched.WithLabelValues(src.Name()).Add(float64(len(items)))

		for _, item := range items {
			if !p.seen.Add(item.ID, struct{}{}) {
				p.metrics.FeedItemsSubmitted.WithLabelValues("duplicate").Inc()
				continue
			}
			if attempts > 0 && (!retry.SleepWithContext(ctx, p.delay) || ctx.Err() != nil) {
				return submitted
			}
			attempts++
			if p.submit(ctx, item) {
				submitted++
			}
		}
	}
	p.logger.Info("feed poll finished", "submitted", submitted, "attempted", attempts)
	return submitted
}

func (p *Poller) submit(ctx context.Context, item Item) bool {
	report, err := p.predictor.Predict(ctx, item.Text)
	if err != nil {
		p.metrics.FeedItemsSubmitted.WithLabelValues("error").Inc()
		p.logger.Warn("feed item prediction failed", "source", item.Source, "id", item.ID, "error", err)
		return false
	}
	p.metrics.FeedItemsSubmitted.WithLabelValues("success").Inc()
	p.logger.Debug("feed item recorded", "source", item.Source, "report_id", report.ID,
		"disaster_type", report.DisasterType, "severity", report.Severity)
	return true
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
