//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/kafka"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/sqlite"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/config"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/pipeline"
)

const (
	testSourceTopic = "test-raw-texts"
	testSinkTopic   = "test-reports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("disaster-ml-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

func testConfig(broker string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-group-%d", time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}
}

func produce(ctx context.Context, t *testing.T, broker string, values ...string) {
	t.Helper()
	w := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic, RequiredAcks: kafkago.RequireAll}
	defer w.Close()

	msgs := make([]kafkago.Message, len(values))
	for i, v := range values {
		msgs[i] = kafkago.Message{Key: []byte(strconv.Itoa(i)), Value: []byte(v)}
	}
	require.NoError(t, w.WriteMessages(ctx, msgs...))
}

type sinkMessage struct {
	Report  domain.Report
	Key     string
	Headers map[string]string
}

func sinkConsumer(broker string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSinkTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
}

func readSink(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")
	return sinkMessage{Report: report, Key: string(msg.Key), Headers: headers}
}

// --- pipeline fakes ---

type fixedClassifier domain.ClassificationResult

func (f fixedClassifier) Classify(context.Context, string) domain.ClassificationResult {
	return domain.ClassificationResult(f)
}

func (fixedClassifier) Loaded() bool { return true }

type fixedRecognizer []domain.Entity

func (f fixedRecognizer) Recognize(context.Context, string) ([]domain.Entity, error) {
	return f, nil
}

type gazetteer map[string]domain.GeocodingResult

func (g gazetteer) ForwardGeocode(_ context.Context, query, _ string) (domain.GeocodingResult, error) {
	return g[query], nil
}

// TestKafkaReaderWriter round-trips a raw text through the source topic and a
// report through the sink topic.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker)

	produce(ctx, t, broker, `{"text":"Flash floods in Kullu","source":"rss"}`)

	reader := kafka.NewReader(cfg, discardLogger())
	defer reader.Close()

	events, err := reader.ExtractBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	msg, err := domain.ParseIngestMessage(events[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "Flash floods in Kullu", msg.Text)
	assert.Equal(t, "rss", msg.Source)
	require.NoError(t, events[0].Commit(ctx))

	writer := kafka.NewWriter(cfg, discardLogger())
	defer writer.Close()

	report := domain.Report{
		ID:           "report-1",
		Text:         msg.Text,
		DisasterType: "Flood",
		DisasterProb: 0.93,
		Severity:     domain.SeverityHigh,
		SeverityProb: 0.71,
		Confidence:   0.82,
		Timestamp:    time.Date(2024, 7, 1, 6, 30, 0, 0, time.UTC),
	}
	require.NoError(t, writer.PublishReports(ctx, []domain.Report{report}))

	consumer := sinkConsumer(broker)
	defer consumer.Close()

	got := readSink(ctx, t, consumer)
	assert.Equal(t, "report-1", got.Key)
	assert.Equal(t, "Flood", got.Headers["disaster_type"])
	assert.Equal(t, "High", got.Headers["severity"])
	assert.Equal(t, "2024-07-01T06:30:00Z", got.Headers["processed_at"])
	assert.Equal(t, report.Text, got.Report.Text)
	assert.InDelta(t, 0.82, got.Report.Confidence, 1e-9)
}

// TestStreamEndToEnd runs the full stream: raw texts in, analyzed reports
// stored in sqlite and published to the sink, poison messages skipped.
func TestStreamEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker)

	produce(ctx, t, broker,
		`{"text":"Massive earthquake near Solan, buildings collapsed"}`,
		`not json`,
		`{"text":"   "}`,
		`{"text":"Minor tremor felt near Solan"}`,
	)

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	defer store.Close()

	locations := domain.NewLocationResolver(
		fixedRecognizer{{Text: "Solan", Type: domain.EntityPlace, Offset: 24}},
		gazetteer{"Solan": {Lat: 30.9045, Lon: 77.0967}},
		"in", 5*time.Second, logger,
	)
	p := pipeline.New(
		fixedClassifier{Label: "Earthquake", Probability: 0.95},
		fixedClassifier{Label: domain.SeverityLow, Probability: 0.6},
		locations, logger, metrics,
	)

	writer := kafka.NewWriter(cfg, logger)
	defer writer.Close()
	svc := pipeline.NewService(p, store, logger, metrics, pipeline.WithPublisher(writer))

	reader := kafka.NewReader(cfg, logger)
	defer reader.Close()
	stream := pipeline.NewStream(reader, svc, svc, logger, metrics, 10)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- stream.Run(runCtx) }()

	consumer := sinkConsumer(broker)
	defer consumer.Close()

	first := readSink(ctx, t, consumer)
	second := readSink(ctx, t, consumer)
	stop()
	require.NoError(t, <-done)

	// "massive" raises Low to High; the tremor report stays Low.
	byText := map[string]sinkMessage{first.Report.Text: first, second.Report.Text: second}
	quake, ok := byText["Massive earthquake near Solan, buildings collapsed"]
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, quake.Report.Severity)
	assert.Equal(t, "Earthquake", quake.Headers["disaster_type"])
	require.NotNil(t, quake.Report.Location)
	assert.Equal(t, [2]float64{77.0967, 30.9045}, quake.Report.Location.Coordinates)
	require.NotNil(t, quake.Report.LocationText)
	assert.Equal(t, "Solan", *quake.Report.LocationText)

	tremor, ok := byText["Minor tremor felt near Solan"]
	require.True(t, ok)
	assert.Equal(t, domain.SeverityLow, tremor.Report.Severity)

	stored, err := store.RecentReports(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
