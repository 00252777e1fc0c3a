// Package firestore stores reports in a Cloud Firestore collection.
package firestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
)

// DefaultCollection is the collection reports are written to.
const DefaultCollection = "reports"

// NewClient initializes a Firebase app from base64-encoded service account
// credentials and returns its Firestore client.
func NewClient(ctx context.Context, encodedCreds string) (*firestore.Client, error) {
	creds, err := base64.StdEncoding.DecodeString(encodedCreds)
	if err != nil {
		return nil, fmt.Errorf("decode firebase credentials: %w", err)
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firestore client: %w", err)
	}
	return client, nil
}

// Store implements pipeline.Store on Firestore. Documents are keyed by report ID.
type Store struct {
	client     *firestore.Client
	collection string
}

// NewStore writes to collection, or DefaultCollection when empty.
func NewStore(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, collection: collection}
}

type pointDoc struct {
	Type        string    `firestore:"type"`
	Coordinates []float64 `firestore:"coordinates"`
}

type reportDoc struct {
	Text         string    `firestore:"text"`
	DisasterType string    `firestore:"disaster_type"`
	DisasterProb float64   `firestore:"disaster_prob"`
	Severity     string    `firestore:"severity"`
	SeverityProb float64   `firestore:"severity_prob"`
	Location     *pointDoc `firestore:"location"`
	LocationText *string   `firestore:"location_text"`
	Confidence   float64   `firestore:"confidence"`
	Timestamp    time.Time `firestore:"timestamp"`
}

func toDoc(r domain.Report) reportDoc {
	doc := reportDoc{
		Text:         r.Text,
		DisasterType: r.DisasterType,
		DisasterProb: r.DisasterProb,
		Severity:     r.Severity,
		SeverityProb: r.SeverityProb,
		LocationText: r.LocationText,
		Confidence:   r.Confidence,
		Timestamp:    r.Timestamp,
	}
	if r.Location != nil {
		doc.Location = &pointDoc{Type: r.Location.Type, Coordinates: r.Location.Coordinates[:]}
	}
	return doc
}

func fromDoc(id string, doc reportDoc) domain.Report {
	r := domain.Report{
		ID:           id,
		Text:         doc.Text,
		DisasterType: doc.DisasterType,
		DisasterProb: doc.DisasterProb,
		Severity:     doc.Severity,
		SeverityProb: doc.SeverityProb,
		LocationText: doc.LocationText,
		Confidence:   doc.Confidence,
		Timestamp:    doc.Timestamp.UTC(),
	}
	if doc.Location != nil && len(doc.Location.Coordinates) == 2 {
		point := domain.GeoPoint{Type: doc.Location.Type, Coordinates: [2]float64{doc.Location.Coordinates[0], doc.Location.Coordinates[1]}}
		r.Location = &point
	}
	return r
}

// SaveReport writes the report document.
func (s *Store) SaveReport(ctx context.Context, r domain.Report) error {
	if _, err := s.client.Collection(s.collection).Doc(r.ID).Set(ctx, toDoc(r)); err != nil {
		return fmt.Errorf("write report %s: %w", r.ID, err)
	}
	return nil
}

// RecentReports returns up to limit reports ordered by timestamp, newest first.
func (s *Store) RecentReports(ctx context.Context, limit int) ([]domain.Report, error) {
	docs, err := s.client.Collection(s.collection).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	reports := make([]domain.Report, 0, len(docs))
	for _, d := range docs {
		var doc reportDoc
		if err := d.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", d.Ref.ID, err)
		}
		reports = append(reports, fromDoc(d.Ref.ID, doc))
	}
	return reports, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
