// Command predict runs the classification pipeline on ad-hoc texts and prints
// one CombinedResult JSON object per text. Nothing is persisted.
//
// Usage:
//
//	go run ./cmd/predict -text "Massive earthquake hits Solan"
//	cat headlines.txt | go run ./cmd/predict
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/app"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/config"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

// Runner runs the pipeline on one text.
type Runner interface {
	Run(ctx context.Context, text string) domain.CombinedResult
}

func main() {
	text := flag.String("text", "", "text to classify; reads stdin lines when empty")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// Logs go to stderr so stdout stays valid JSON lines.
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	// The CLI exposes no /metrics, so collectors stay unregistered.
	metrics := observability.NewMetricsForTesting()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers app.Closers
	p, err := app.BuildPipeline(ctx, cfg, &closers, metrics, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	if *text != "" {
		err = predictOne(ctx, p, *text, os.Stdout)
	} else {
		err = predictLines(ctx, p, os.Stdin, os.Stdout)
	}
	closers.Close(logger)
	if err != nil {
		logger.Error("predict failed", "error", err)
		os.Exit(1)
	}
}

func predictOne(ctx context.Context, r Runner, text string, out io.Writer) error {
	text = domain.NormalizeText(text)
	if text == "" {
		return errors.New("text is empty")
	}
	return writeResult(out, r.Run(ctx, text))
}

// predictLines classifies every non-blank line of in.
func predictLines(ctx context.Context, r Runner, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := domain.NormalizeText(scanner.Text())
		if line == "" {
			continue
		}
		if err := writeResult(out, r.Run(ctx, line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func writeResult(out io.Writer, result domain.CombinedResult) error {
	if err := json.NewEncoder(out).Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
