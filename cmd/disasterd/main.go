package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/api"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/httpadapter"
	kafkaadapter "github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/kafka"
	slackadapter "github.com/ParthDhavan04/Disaster-info-backend/internal/adapter/slack"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/app"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/config"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/feed"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers app.Closers
	defer closers.Close(logger)

	p, err := app.BuildPipeline(ctx, cfg, &closers, metrics, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open report store", "error", err)
		os.Exit(1)
	}
	closers.Add("report store", store.Close)
	logger.Info("report store ready", "backend", cfg.StoreBackend)

	var opts []pipeline.ServiceOption
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers.Add("kafka writer", writer.Close)
		opts = append(opts, pipeline.WithPublisher(writer))
	}
	if cfg.SlackEnabled() {
		opts = append(opts, pipeline.WithNotifier(slackadapter.NewNotifier(cfg.SlackToken, cfg.SlackChannelID, logger)))
		logger.Info("slack alerts enabled", "channel", cfg.SlackChannelID)
	}

	svc := pipeline.NewService(p, store, logger, metrics, opts...)
	if disaster, severity := p.ModelsLoaded(); !disaster || !severity {
		logger.Warn("running with unavailable models", "disaster", disaster, "severity", severity)
	}

	router := api.NewRouter(svc, api.Options{PredictTimeout: cfg.PredictTimeout, AlertsLimit: cfg.AlertsLimit}, logger)
	apiSrv := api.NewServer(cfg.APIAddr, router, cfg.PredictTimeout, logger)
	opsSrv := httpadapter.NewServer(cfg.HTTPAddr, svc, p, logger)

	var wg sync.WaitGroup

	wg.Go(func() {
		if err := apiSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			stop()
		}
	})
	wg.Go(func() {
		if err := opsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	})

	switch {
	case !cfg.KafkaEnabled:
	case svc.CheckReadiness(ctx) != nil:
		logger.Error("kafka stream not started: no classifier models loaded")
	default:
		reader := kafkaadapter.NewReader(cfg, logger)
		closers.Add("kafka reader", reader.Close)
		stream := pipeline.NewStream(reader, svc, svc, logger, metrics, cfg.BatchSize)
		wg.Go(func() {
			if err := stream.Run(ctx); err != nil {
				logger.Error("stream error", "error", err)
			}
		})
	}

	if cfg.FeedEnabled {
		startFeed(ctx, &wg, cfg, svc, metrics, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("workers did not stop before shutdown timeout")
	}

	closers.Close(logger)
	logger.Info("shutdown complete")
}

func startFeed(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, svc *pipeline.Service, metrics *observability.Metrics, logger *slog.Logger) {
	sources, err := feed.LoadSources(cfg.FeedSourcesPath, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		logger.Error("live feed disabled", "error", err)
		return
	}
	poller := feed.NewPoller(sources, svc, cfg.FeedSchedule, cfg.FeedRequestDelay, metrics, logger)
	wg.Go(func() {
		if err := poller.Run(ctx); err != nil {
			logger.Error("feed poller error", "error", err)
		}
	})
}
