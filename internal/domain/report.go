package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// GeoPoint is a GeoJSON point. Coordinates are ordered [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint converts c to GeoJSON ordering.
func NewGeoPoint(c Coordinates) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{c.Lon, c.Lat}}
}

// LatLon converts the point back to a lat/lon pair.
func (p GeoPoint) LatLon() Coordinates {
	return Coordinates{Lat: p.Coordinates[1], Lon: p.Coordinates[0]}
}

// Report is the persisted and published form of a pipeline result.
type Report struct {
	ID           string    `json:"_id"`
	Text         string    `json:"text"`
	DisasterType string    `json:"disaster_type"`
	DisasterProb float64   `json:"disaster_prob"`
	Severity     string    `json:"severity"`
	SeverityProb float64   `json:"severity_prob"`
	Location     *GeoPoint `json:"location"`
	LocationText *string   `json:"location_text"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewReport builds a report for text from a pipeline result, stamping it with
// a fresh ID and the current UTC time.
func NewReport(text string, result CombinedResult) Report {
	r := Report{
		ID:           uuid.NewString(),
		Text:         text,
		DisasterType: result.Disaster.Label,
		DisasterProb: result.Disaster.Probability,
		Severity:     result.Severity.Label,
		SeverityProb: result.Severity.Probability,
		Confidence:   round4((result.Disaster.Probability + result.Severity.Probability) / 2),
		Timestamp:    clock.Now().UTC(),
	}
	if result.Location != nil {
		name := *result.Location
		r.LocationText = &name
	}
	if result.Coordinates != nil {
		point := NewGeoPoint(*result.Coordinates)
		r.Location = &point
	}
	return r
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
