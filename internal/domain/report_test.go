package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport_WithLocation(t *testing.T) {
	fixed := time.Date(2024, time.July, 30, 4, 15, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	result := CombinedResult{
		Disaster: ClassificationResult{Label: "landslide", Probability: 0.93},
		Severity: ClassificationResult{Label: SeverityHigh, Probability: 0.61},
	}.WithLocation(&ResolvedLocation{Name: "Wayanad", Coordinates: Coordinates{Lat: 11.6854, Lon: 76.1320}})

	r := NewReport("Massive landslide in Wayanad", result)

	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Massive landslide in Wayanad", r.Text)
	assert.Equal(t, "landslide", r.DisasterType)
	assert.Equal(t, SeverityHigh, r.Severity)
	assert.Equal(t, 0.77, r.Confidence)
	assert.Equal(t, fixed, r.Timestamp)

	require.NotNil(t, r.Location)
	assert.Equal(t, "Point", r.Location.Type)
	assert.Equal(t, [2]float64{76.1320, 11.6854}, r.Location.Coordinates, "GeoJSON is longitude first")
	assert.Equal(t, Coordinates{Lat: 11.6854, Lon: 76.1320}, r.Location.LatLon())
	require.NotNil(t, r.LocationText)
	assert.Equal(t, "Wayanad", *r.LocationText)
}

func TestNewReport_WithoutLocation(t *testing.T) {
	r := NewReport("Flooding reported in several areas", CombinedResult{
		Disaster: ClassificationResult{Label: "flood", Probability: 0.88889},
		Severity: ClassificationResult{Label: SeverityMedium, Probability: 0.5},
	})

	assert.Nil(t, r.Location)
	assert.Nil(t, r.LocationText)
	assert.Equal(t, 0.6944, r.Confidence)
	assert.Equal(t, time.UTC, r.Timestamp.Location())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"location":null`)
	assert.Contains(t, string(data), `"location_text":null`)
	assert.Contains(t, string(data), `"_id":"`)
}

func TestNewReport_UniqueIDs(t *testing.T) {
	a := NewReport("x", CombinedResult{})
	b := NewReport("x", CombinedResult{})
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCombinedResult_WithLocation(t *testing.T) {
	base := CombinedResult{Disaster: ClassificationResult{Label: "flood", Probability: 0.9}}

	none := base.WithLocation(nil)
	assert.Nil(t, none.Location)
	assert.Nil(t, none.Coordinates)

	loc := &ResolvedLocation{Name: "Guwahati", Coordinates: Coordinates{Lat: 26.1445, Lon: 91.7362}}
	some := base.WithLocation(loc)
	require.NotNil(t, some.Location)
	require.NotNil(t, some.Coordinates)
	assert.Equal(t, "Guwahati", *some.Location)

	loc.Name = "changed"
	assert.Equal(t, "Guwahati", *some.Location, "result does not alias the resolver output")
}
