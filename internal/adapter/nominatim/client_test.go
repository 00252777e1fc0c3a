package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(baseURL, "disaster-test/1.0", timeout,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Solan", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "in", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "disaster-test/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"30.9045","lon":"77.0967","display_name":"Solan, Himachal Pradesh, India","name":"Solan","importance":0.52}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/", 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "Solan", "IN")
	require.NoError(t, err)

	assert.Equal(t, 30.9045, result.Lat)
	assert.Equal(t, 77.0967, result.Lon)
	assert.Equal(t, "Solan, Himachal Pradesh, India", result.FormattedAddress)
	assert.Equal(t, "Solan", result.PlaceName)
	assert.Equal(t, 0.52, result.Confidence)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "success")), 0)
}

func TestClient_ForwardGeocode_GlobalOmitsCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has := r.URL.Query()["countrycodes"]
		assert.False(t, has)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL, 5*time.Second).ForwardGeocode(context.Background(), "Kathmandu", "")
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestClient_ForwardGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "Nowhereville", "in")
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "empty")), 0)
}

func TestClient_ForwardGeocode_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.ForwardGeocode(context.Background(), "Solan", "in")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues(provider, "error")), 0)
}

func TestClient_ForwardGeocode_MalformedResponse(t *testing.T) {
	for name, body := range map[string]string{
		"not json":  `<html>`,
		"bad coord": `[{"lat":"north","lon":"77.0"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL, 5*time.Second).ForwardGeocode(context.Background(), "Solan", "in")
			require.Error(t, err)
		})
	}
}

func TestClient_ForwardGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).ForwardGeocode(context.Background(), "Solan", "in")
	require.Error(t, err)
}
