// Package api serves the public prediction and alerts API with gin.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/pipeline"
)

// MaxAlertsLimit caps the limit query parameter of /api/alerts.
const MaxAlertsLimit = 500

// Service is the prediction service behind the API.
type Service interface {
	ModelsLoaded() bool
	Predict(ctx context.Context, text string) (domain.Report, error)
	Recent(ctx context.Context, limit int) ([]domain.Report, error)
}

// Options tunes request handling.
type Options struct {
	PredictTimeout time.Duration
	AlertsLimit    int
}

type handler struct {
	svc    Service
	opts   Options
	logger *slog.Logger
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(svc Service, opts Options, logger *slog.Logger) *gin.Engine {
	if opts.AlertsLimit <= 0 || opts.AlertsLimit > MaxAlertsLimit {
		opts.AlertsLimit = 50
	}
	h := &handler{svc: svc, opts: opts, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), cors())

	r.GET("/health", h.health)
	r.POST("/ml/predict", h.predict)
	r.GET("/api/alerts", h.alerts)

	return r
}

func (h *handler) health(c *gin.Context) {
	if h.svc.ModelsLoaded() {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "models_loaded": true})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":        "error",
		"models_loaded": false,
		"message":       "Models failed to load.",
	})
}

type predictRequest struct {
	Text *string `json:"text"`
}

func (h *handler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'text' field in request body."})
		return
	}

	ctx := c.Request.Context()
	if h.opts.PredictTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.PredictTimeout)
		defer cancel()
	}

	report, err := h.svc.Predict(ctx, *req.Text)
	switch {
	case errors.Is(err, pipeline.ErrEmptyText):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'text' field in request body."})
	case errors.Is(err, pipeline.ErrModelsUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ML Service not ready."})
	case err != nil:
		h.logger.Error("predict failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save to database", "details": err.Error()})
	default:
		c.JSON(http.StatusOK, report)
	}
}

func (h *handler) alerts(c *gin.Context) {
	limit := h.opts.AlertsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be a positive integer"})
			return
		}
		limit = min(n, MaxAlertsLimit)
	}

	reports, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("fetch alerts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error fetching alerts"})
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	c.JSON(http.StatusOK, reports)
}
