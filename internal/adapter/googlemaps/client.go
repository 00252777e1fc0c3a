// Package googlemaps implements domain.Geocoder with the Google Maps Geocoding API.
package googlemaps

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
	"googlemaps.github.io/maps"
)

const provider = "google"

// Client implements domain.Geocoder using googlemaps.github.io/maps.
type Client struct {
	maps    *maps.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a Google Maps geocoding client. Extra options are applied
// after the API key and HTTP timeout.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...maps.ClientOption) (*Client, error) {
	options := append([]maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}, opts...)

	mc, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Client{maps: mc, metrics: metrics, logger: logger}, nil
}

// ForwardGeocode converts a place name to coordinates, optionally restricted
// to a country via the components filter.
func (c *Client) ForwardGeocode(ctx context.Context, query, country string) (domain.GeocodingResult, error) {
	req := &maps.GeocodingRequest{Address: query}
	if country != "" {
		req.Components = map[maps.Component]string{
			maps.ComponentCountry: strings.ToUpper(country),
		}
	}

	start := time.Now()
	results, err := c.maps.Geocode(ctx, req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil && !isZeroResults(err) {
		c.metrics.GeocodeRequests.WithLabelValues(provider, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("google geocode %q: %w", query, err)
	}
	if len(results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues(provider, "empty").Inc()
		c.logger.Debug("google maps returned no results", "query", query, "country", country)
		return domain.GeocodingResult{}, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues(provider, "success").Inc()
	return toResult(results[0]), nil
}

// isZeroResults reports the "no match" status, which the maps client surfaces as an error.
func isZeroResults(err error) bool {
	return strings.Contains(err.Error(), "ZERO_RESULTS")
}

func toResult(r maps.GeocodingResult) domain.GeocodingResult {
	result := domain.GeocodingResult{
		Lat:              r.Geometry.Location.Lat,
		Lon:              r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
		Confidence:       1.0,
	}
	if len(r.AddressComponents) > 0 {
		result.PlaceName = r.AddressComponents[0].LongName
	}
	if r.PartialMatch {
		result.Confidence = 0.5
	}
	return result
}
