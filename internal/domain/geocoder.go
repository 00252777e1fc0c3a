package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider matched the query.
func (r GeocodingResult) Found() bool {
	return r.Lat != 0 || r.Lon != 0
}

// Geocoder resolves place names to coordinates via an external gazetteer.
type Geocoder interface {
	// ForwardGeocode converts a place name to coordinates. A non-empty country
	// (ISO 3166-1 alpha-2) restricts matches to that country. No match is a
	// zero GeocodingResult with a nil error.
	ForwardGeocode(ctx context.Context, query, country string) (GeocodingResult, error)
}
