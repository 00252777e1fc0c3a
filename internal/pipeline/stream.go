package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

// BatchExtractor reads up to batchSize raw messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Analyzer turns a text into an unsaved report.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (domain.Report, error)
}

// Recorder persists and fans out a batch of reports.
type Recorder interface {
	Record(ctx context.Context, reports []domain.Report) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Stream runs the extract-analyze-record loop over a message source.
type Stream struct {
	extractor BatchExtractor
	analyzer  Analyzer
	recorder  Recorder
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

// NewStream creates a Stream with the given stages and observability.
func NewStream(e BatchExtractor, a Analyzer, r Recorder, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Stream {
	return &Stream{
		extractor: e,
		analyzer:  a,
		recorder:  r,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Run executes the batch loop until the context is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	s.logger.Info("stream started", "batch_size", s.batchSize)
	s.metrics.PipelineRunning.Set(1)
	defer s.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stream stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !s.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-analyze-record cycle. Returns false if the stream should stop.
func (s *Stream) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := s.extractor.ExtractBatch(ctx, s.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Error("extract batch failed", "error", err)
		return s.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	s.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	s.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	recorded, ok := s.analyzeAndRecord(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if recorded > 0 {
		s.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
	return true
}

// analyzeAndRecord analyzes each message, records the resulting reports and
// commits offsets. Messages that cannot be analyzed are committed and skipped.
// Returns the number of recorded reports and false if the stream should stop.
func (s *Stream) analyzeAndRecord(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration) (int, bool) {
	reports := make([]domain.Report, 0, len(rawBatch))
	analyzed := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		report, err := s.analyze(ctx, raw)
		if err != nil {
			s.logger.Warn("analyze failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			s.metrics.TransformErrors.Inc()
			s.commitOffset(ctx, raw)
			continue
		}
		reports = append(reports, report)
		analyzed = append(analyzed, raw)
	}

	if len(reports) == 0 {
		return 0, true
	}

	if err := s.recorder.Record(ctx, reports); err != nil {
		s.logger.Error("record batch failed", "error", err, "batch_size", len(reports))
		return 0, s.backoffOrStop(ctx, backoff)
	}

	for _, raw := range analyzed {
		s.commitOffset(ctx, raw)
	}

	return len(reports), true
}

func (s *Stream) analyze(ctx context.Context, raw domain.RawEvent) (domain.Report, error) {
	msg, err := domain.ParseIngestMessage(raw.Value)
	if err != nil {
		return domain.Report{}, err
	}
	return s.analyzer.Analyze(ctx, msg.Text)
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the stream should stop.
func (s *Stream) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (s *Stream) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		s.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
