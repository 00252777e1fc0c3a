package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/pipeline"
)

func rawText(t *testing.T, offset int64, value string, committed *atomic.Int64) domain.RawEvent {
	t.Helper()
	return domain.RawEvent{
		Value:  []byte(value),
		Topic:  "raw-disaster-texts",
		Offset: offset,
		Commit: func(context.Context) error {
			committed.Add(1)
			return nil
		},
	}
}

func TestStream_Run_HappyPath(t *testing.T) {
	var committed atomic.Int64
	store := &memStore{}
	svc := newService(store)
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		rawText(t, 1, `{"text":"Massive earthquake near Solan"}`, &committed),
		rawText(t, 2, `{"text":"Heavy rain in Solan","source":"rss"}`, &committed),
	}}}

	s := pipeline.NewStream(ext, svc, svc, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))

	saved := store.saved()
	require.Len(t, saved, 2)
	assert.Equal(t, domain.SeverityHigh, saved[0].Severity)
	assert.Equal(t, domain.SeverityMedium, saved[1].Severity)
	assert.Equal(t, int64(2), committed.Load())
}

func TestStream_Run_ContextCancellation(t *testing.T) {
	store := &memStore{}
	svc := newService(store)
	s := pipeline.NewStream(&mockExtractor{}, svc, svc, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, s.Run(ctx))
	assert.Empty(t, store.saved())
}

func TestStream_Run_PoisonMessagesCommittedAndSkipped(t *testing.T) {
	var committed atomic.Int64
	store := &memStore{}
	svc := newService(store)
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		rawText(t, 1, `not json`, &committed),
		rawText(t, 2, `{"text":"   "}`, &committed),
		rawText(t, 3, `{"text":"Flood in Solan"}`, &committed),
	}}}

	s := pipeline.NewStream(ext, svc, svc, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.Len(t, store.saved(), 1)
	assert.Equal(t, int64(3), committed.Load())
}

func TestStream_Run_RecordFailureDoesNotCommit(t *testing.T) {
	var committed atomic.Int64
	svc := newService(&memStore{})
	rec := &failingRecorder{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		rawText(t, 1, `{"text":"Flood in Solan"}`, &committed),
	}}}

	s := pipeline.NewStream(ext, svc, rec, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, int64(1), rec.calls.Load())
	assert.Zero(t, committed.Load())
}
