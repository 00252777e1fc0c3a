// Package app assembles the service components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/firestore"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/googlemaps"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/mapbox"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/nlp"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/nominatim"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/onnx"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/sqlite"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/cache"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/config"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/pipeline"
)

// Closers releases resources in reverse order of acquisition.
type Closers struct {
	fns []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

// Add registers fn to run on Close.
func (c *Closers) Add(name string, fn func() error) {
	c.fns = append(c.fns, namedCloser{name: name, fn: fn})
}

// Close runs every registered closer, logging failures.
func (c *Closers) Close(logger *slog.Logger) {
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i].fn(); err != nil {
			logger.Error("close error", "component", c.fns[i].name, "error", err)
		}
	}
	c.fns = nil
}

// BuildPipeline loads the models, the entity recognizer and the geocoder.
// Model and recognizer failures degrade to unavailable components; only
// geocoder misconfiguration is returned as an error.
func BuildPipeline(ctx context.Context, cfg *config.Config, closers *Closers, metrics *observability.Metrics, logger *slog.Logger) (*pipeline.Pipeline, error) {
	rt, err := onnx.NewRuntime(cfg.ORTLibraryPath)
	if err != nil {
		logger.Error("onnx runtime unavailable, models disabled", "error", err)
	} else {
		closers.Add("onnx runtime", rt.Close)
	}

	disaster := loadClassifier(rt, "disaster", cfg.DisasterModelDir, cfg, closers, metrics, logger)
	severity := loadClassifier(rt, "severity", cfg.SeverityModelDir, cfg, closers, metrics, logger)

	recognizer := buildRecognizer(ctx, rt, cfg, closers, metrics, logger)

	geocoder, err := buildGeocoder(cfg, metrics, logger)
	if err != nil {
		return nil, err
	}

	locations := domain.NewLocationResolver(recognizer, geocoder, cfg.GeocoderCountry, cfg.GeocodeTimeout, logger)
	return pipeline.New(disaster, severity, locations, logger, metrics), nil
}

func loadClassifier(rt *onnx.Runtime, name, dir string, cfg *config.Config, closers *Closers, metrics *observability.Metrics, logger *slog.Logger) domain.Classifier {
	if rt == nil {
		metrics.ModelsLoaded.WithLabelValues(name).Set(0)
		return domain.UnavailableClassifier{}
	}
	c, err := onnx.LoadSequenceClassifier(rt, name, dir, cfg.MaxSeqLen, metrics, logger)
	if err != nil {
		logger.Error("model failed to load", "model", name, "dir", dir, "error", err)
		metrics.ModelsLoaded.WithLabelValues(name).Set(0)
		return domain.UnavailableClassifier{}
	}
	closers.Add(name+" model", c.Close)
	metrics.ModelsLoaded.WithLabelValues(name).Set(1)
	logger.Info("model loaded", "model", name, "dir", dir)
	return c
}

func buildRecognizer(ctx context.Context, rt *onnx.Runtime, cfg *config.Config, closers *Closers, metrics *observability.Metrics, logger *slog.Logger) domain.EntityRecognizer {
	switch cfg.NERProvider {
	case config.NERProviderONNX:
		if rt == nil {
			break
		}
		ner, err := onnx.LoadTokenClassifier(rt, cfg.NERModelDir, cfg.MaxSeqLen, metrics, logger)
		if err != nil {
			logger.Error("ner model failed to load, locations disabled", "dir", cfg.NERModelDir, "error", err)
			break
		}
		closers.Add("ner model", ner.Close)
		metrics.ModelsLoaded.WithLabelValues("ner").Set(1)
		return ner
	case config.NERProviderGoogle:
		client, err := nlp.NewClient(ctx, cfg.NaturalLanguageCredentials)
		if err != nil {
			logger.Error("natural language client unavailable, locations disabled", "error", err)
			break
		}
		closers.Add("natural language client", client.Close)
		metrics.ModelsLoaded.WithLabelValues("ner").Set(1)
		return nlp.NewRecognizer(client, metrics, logger)
	}
	metrics.ModelsLoaded.WithLabelValues("ner").Set(0)
	logger.Info("entity recognition disabled", "provider", cfg.NERProvider)
	return nil
}

func buildGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, error) {
	var inner domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.GeocoderNominatim:
		inner = nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, metrics, logger)
	case config.GeocoderMapbox:
		inner = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
	case config.GeocoderGoogle:
		c, err := googlemaps.NewClient(cfg.MapsAPIKey, cfg.GeocodeTimeout, metrics, logger)
		if err != nil {
			return nil, err
		}
		inner = c
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.GeocoderProvider)
	}
	logger.Info("geocoding enabled", "provider", cfg.GeocoderProvider, "country", cfg.GeocoderCountry, "cache_size", cfg.GeocodeCacheSize)
	return cache.NewCachedGeocoder(inner, cfg.GeocodeCacheSize, metrics), nil
}

// ReportStore is a pipeline.Store that owns its connection.
type ReportStore interface {
	pipeline.Store
	Close() error
}

// OpenStore opens the configured report store.
func OpenStore(ctx context.Context, cfg *config.Config) (ReportStore, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			return nil, fmt.Errorf("open firestore store: %w", err)
		}
		return firestore.NewStore(client, firestore.DefaultCollection), nil
	}
	return nil, errors.New("no report store configured")
}
