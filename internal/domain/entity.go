package domain

import (
	"context"
	"errors"
)

// ErrNERUnavailable is returned by recognizers whose model or client is not loaded.
var ErrNERUnavailable = errors.New("entity recognizer unavailable")

// EntityType is the coarse NER category of a span.
type EntityType string

const (
	EntityPlace        EntityType = "GPE"
	EntityLocation     EntityType = "LOC"
	EntityFacility     EntityType = "FAC"
	EntityOrganization EntityType = "ORG"
	EntityOther        EntityType = "OTHER"
)

// IsLocationCandidate reports whether entities of this type may name a place.
// Organizations are included because NER models often tag town names as ORG.
func (t EntityType) IsLocationCandidate() bool {
	switch t {
	case EntityPlace, EntityLocation, EntityFacility, EntityOrganization:
		return true
	default:
		return false
	}
}

// Entity is a typed span extracted from text. Offset is the byte offset of the
// first mention and defines appearance order.
type Entity struct {
	Text   string
	Type   EntityType
	Offset int
}

// EntityRecognizer extracts named entities in order of appearance.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}
