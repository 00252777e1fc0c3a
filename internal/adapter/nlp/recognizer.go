// Package nlp recognizes entities with the Google Cloud Natural Language API.
package nlp

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
)

// EntityAnalyzer is the subset of the Natural Language client used here.
type EntityAnalyzer interface {
	AnalyzeEntities(ctx context.Context, req *languagepb.AnalyzeEntitiesRequest, opts ...gax.CallOption) (*languagepb.AnalyzeEntitiesResponse, error)
}

// Recognizer implements domain.EntityRecognizer over the Natural Language API.
type Recognizer struct {
	client  EntityAnalyzer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRecognizer wraps an existing client.
func NewRecognizer(client EntityAnalyzer, metrics *observability.Metrics, logger *slog.Logger) *Recognizer {
	return &Recognizer{client: client, metrics: metrics, logger: logger}
}

// NewClient creates a Natural Language client from base64-encoded service
// account credentials. Empty credentials fall back to application default
// credentials.
func NewClient(ctx context.Context, encodedCreds string) (*language.Client, error) {
	var opts []option.ClientOption
	if encodedCreds != "" {
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("decode natural language credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}
	client, err := language.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create natural language client: %w", err)
	}
	return client, nil
}

// Recognize returns the entities of text ordered by their first mention.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	if r == nil || r.client == nil {
		return nil, domain.ErrNERUnavailable
	}

	start := time.Now()
	resp, err := r.client.AnalyzeEntities(ctx, &languagepb.AnalyzeEntitiesRequest{
		Document: &languagepb.Document{
			Source: &languagepb.Document_Content{Content: text},
			Type:   languagepb.Document_PLAIN_TEXT,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	})
	r.metrics.InferenceDuration.WithLabelValues("ner").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("analyze entities: %w", err)
	}

	entities := toEntities(resp.GetEntities())
	r.logger.Debug("entities recognized", "count", len(entities))
	return entities, nil
}

// toEntities maps API entities to domain entities. The API groups entities by
// salience, so they are re-sorted by the offset of their first mention.
func toEntities(in []*languagepb.Entity) []domain.Entity {
	out := make([]domain.Entity, 0, len(in))
	for _, e := range in {
		offset := math.MaxInt32
		text := e.GetName()
		for _, m := range e.GetMentions() {
			span := m.GetText()
			if span == nil {
				continue
			}
			if o := int(span.GetBeginOffset()); o < offset {
				offset = o
				if span.GetContent() != "" {
					text = span.GetContent()
				}
			}
		}
		out = append(out, domain.Entity{Text: text, Type: entityType(e.GetType()), Offset: offset})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

func entityType(t languagepb.Entity_Type) domain.EntityType {
	switch t {
	case languagepb.Entity_LOCATION:
		return domain.EntityLocation
	case languagepb.Entity_ADDRESS:
		return domain.EntityFacility
	case languagepb.Entity_ORGANIZATION:
		return domain.EntityOrganization
	default:
		return domain.EntityOther
	}
}
