package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Provider and backend names accepted by the configuration.
const (
	NERProviderONNX   = "onnx"
	NERProviderGoogle = "google"
	NERProviderNone   = "none"

	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
	GeocoderGoogle    = "google"

	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	APIAddr         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	PredictTimeout  time.Duration

	// Local ONNX models. Each model directory holds model.onnx,
	// tokenizer.json and config.json.
	ORTLibraryPath   string
	DisasterModelDir string
	SeverityModelDir string
	MaxSeqLen        int

	// Named-entity recognition.
	NERProvider                string
	NERModelDir                string
	NaturalLanguageCredentials string // base64 service-account JSON

	// Geocoding.
	GeocoderProvider   string
	GeocoderCountry    string
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int
	NominatimURL       string
	NominatimUserAgent string
	MapboxToken        string
	MapsAPIKey         string

	// Report storage.
	StoreBackend        string
	SQLitePath          string
	FirebaseCredentials string // base64 service-account JSON
	AlertsLimit         int

	// Kafka stream mode.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Live news feed.
	FeedEnabled      bool
	FeedSchedule     string
	FeedSourcesPath  string
	FeedRequestDelay time.Duration

	// Slack alerts for High severity reports.
	SlackToken     string
	SlackChannelID string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	var p parser
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		APIAddr:         sharedcfg.EnvOrDefault("API_ADDR", ":5001"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		PredictTimeout:  p.duration("PREDICT_TIMEOUT", "30s"),

		ORTLibraryPath:   os.Getenv("ORT_LIBRARY_PATH"),
		DisasterModelDir: sharedcfg.EnvOrDefault("DISASTER_MODEL_DIR", "./models/disaster"),
		SeverityModelDir: sharedcfg.EnvOrDefault("SEVERITY_MODEL_DIR", "./models/severity"),
		MaxSeqLen:        p.positiveInt("MODEL_MAX_SEQ_LEN", 128),

		NERProvider:                strings.ToLower(sharedcfg.EnvOrDefault("NER_PROVIDER", NERProviderONNX)),
		NERModelDir:                sharedcfg.EnvOrDefault("NER_MODEL_DIR", "./models/ner"),
		NaturalLanguageCredentials: os.Getenv("NATURAL_LANGUAGE_CREDENTIALS"),

		GeocoderProvider:   strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", GeocoderNominatim)),
		GeocoderCountry:    strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_COUNTRY", "in")),
		GeocodeTimeout:     p.duration("GEOCODE_TIMEOUT", "5s"),
		GeocodeCacheSize:   p.positiveInt("GEOCODE_CACHE_SIZE", 1000),
		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "disaster-info-backend"),
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		MapsAPIKey:         os.Getenv("MAPS_CREDENTIALS"),

		StoreBackend:        strings.ToLower(sharedcfg.EnvOrDefault("STORE_BACKEND", StoreSQLite)),
		SQLitePath:          sharedcfg.EnvOrDefault("SQLITE_PATH", "./disaster.db"),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS"),
		AlertsLimit:         p.positiveInt("ALERTS_LIMIT", 50),

		KafkaEnabled:       p.boolean("KAFKA_ENABLED", false),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-disaster-texts"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "disaster-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "disaster-ml"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		FeedEnabled:      p.boolean("FEED_ENABLED", false),
		FeedSchedule:     sharedcfg.EnvOrDefault("FEED_SCHEDULE", "*/5 * * * *"),
		FeedSourcesPath:  os.Getenv("FEED_SOURCES_PATH"),
		FeedRequestDelay: p.nonNegativeDuration("FEED_REQUEST_DELAY", "5s"),

		SlackToken:     os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID: os.Getenv("SLACK_CHANNEL_ID"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SlackEnabled reports whether High severity alerts should be posted.
func (c *Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackChannelID != ""
}

func (c *Config) validate() error {
	switch c.NERProvider {
	case NERProviderONNX, NERProviderNone:
	case NERProviderGoogle:
		if c.NaturalLanguageCredentials == "" {
			return errors.New("NER_PROVIDER is google but NATURAL_LANGUAGE_CREDENTIALS is not set")
		}
	default:
		return fmt.Errorf("invalid NER_PROVIDER %q", c.NERProvider)
	}

	switch c.GeocoderProvider {
	case GeocoderNominatim:
		if c.NominatimURL == "" {
			return errors.New("NOMINATIM_URL is required")
		}
	case GeocoderMapbox:
		if c.MapboxToken == "" {
			return errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	case GeocoderGoogle:
		if c.MapsAPIKey == "" {
			return errors.New("GEOCODER_PROVIDER is google but MAPS_CREDENTIALS is not set")
		}
	default:
		return fmt.Errorf("invalid GEOCODER_PROVIDER %q", c.GeocoderProvider)
	}

	switch c.StoreBackend {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	case StoreFirestore:
		if c.FirebaseCredentials == "" {
			return errors.New("STORE_BACKEND is firestore but FIREBASE_CREDENTIALS is not set")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaSourceTopic == "" {
			return errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	if c.FeedEnabled {
		if _, err := cron.ParseStandard(c.FeedSchedule); err != nil {
			return fmt.Errorf("invalid FEED_SCHEDULE: %w", err)
		}
	}

	if (c.SlackToken == "") != (c.SlackChannelID == "") {
		return errors.New("SLACK_BOT_TOKEN and SLACK_CHANNEL_ID must be set together")
	}
	return nil
}

// parser reads typed environment values and keeps the first failure.
type parser struct {
	err error
}

func (p *parser) fail(key, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", key, value)
	}
}

func (p *parser) duration(key, def string) time.Duration {
	v := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.fail(key, v)
		return 0
	}
	return d
}

func (p *parser) nonNegativeDuration(key, def string) time.Duration {
	v := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.fail(key, v)
		return 0
	}
	return d
}

func (p *parser) positiveInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.fail(key, v)
		return 0
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v)
		return false
	}
	return b
}
