package domain

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// LocationBlocklist holds lowercased entity texts that NER tags as places but
// that never identify a usable location.
var LocationBlocklist = map[string]struct{}{
	"india":            {},
	"time":             {},
	"date":             {},
	"bbc":              {},
	"news":             {},
	"reuters":          {},
	"update":           {},
	"situation report": {},
}

const minLocationRunes = 2

// LocationResolver finds the first entity in a text that geocodes.
type LocationResolver struct {
	recognizer EntityRecognizer
	geocoder   Geocoder
	country    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewLocationResolver creates a resolver. A nil recognizer or geocoder makes
// every resolution absent. country restricts the first geocode attempt for
// each candidate; timeout bounds every individual geocode call.
func NewLocationResolver(recognizer EntityRecognizer, geocoder Geocoder, country string, timeout time.Duration, logger *slog.Logger) *LocationResolver {
	return &LocationResolver{
		recognizer: recognizer,
		geocoder:   geocoder,
		country:    strings.ToLower(country),
		timeout:    timeout,
		logger:     logger,
	}
}

// Resolve returns the first candidate entity of text that geocodes, or nil.
// Recognizer and geocoder failures are logged and never returned.
func (r *LocationResolver) Resolve(ctx context.Context, text string) *ResolvedLocation {
	if r == nil || r.recognizer == nil || r.geocoder == nil {
		return nil
	}

	entities, err := r.recognizer.Recognize(ctx, text)
	if err != nil {
		if errors.Is(err, ErrNERUnavailable) {
			r.logger.Debug("entity recognizer unavailable, skipping location")
		} else {
			r.logger.Warn("entity recognition failed", "error", err)
		}
		return nil
	}

	for candidate := range LocationCandidates(entities) {
		if ctx.Err() != nil {
			return nil
		}
		if coords, ok := r.geocode(ctx, candidate.Text); ok {
			return &ResolvedLocation{Name: candidate.Text, Coordinates: coords}
		}
	}
	return nil
}

// geocode tries the configured country first, then the whole world. An error
// on either attempt abandons the candidate.
func (r *LocationResolver) geocode(ctx context.Context, name string) (Coordinates, bool) {
	scopes := []string{""}
	if r.country != "" {
		scopes = []string{r.country, ""}
	}

	for _, country := range scopes {
		result, err := r.lookup(ctx, name, country)
		if err != nil {
			r.logger.Warn("geocoding failed",
				"location", name,
				"country", country,
				"error", err,
			)
			return Coordinates{}, false
		}
		if result.Found() {
			return Coordinates{Lat: result.Lat, Lon: result.Lon}, true
		}
	}
	return Coordinates{}, false
}

func (r *LocationResolver) lookup(ctx context.Context, name, country string) (GeocodingResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.geocoder.ForwardGeocode(ctx, name, country)
}

// LocationCandidates lazily yields the entities worth geocoding, in input
// order, with surrounding whitespace trimmed.
func LocationCandidates(entities []Entity) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, e := range entities {
			if !e.Type.IsLocationCandidate() {
				continue
			}
			e.Text = strings.TrimSpace(e.Text)
			if !plausiblePlace(e.Text) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func plausiblePlace(name string) bool {
	if utf8.RuneCountInString(name) < minLocationRunes {
		return false
	}
	_, blocked := LocationBlocklist[strings.ToLower(name)]
	return !blocked
}
