// Package domain models disaster text classification.
//
// # Pipeline Inputs
//
// Texts are short news snippets or social posts, for example an RSS headline
// plus summary from a Google News search for "Flood India", or a Bluesky post.
// They arrive through the HTTP API, the live feed poller or the Kafka source
// topic, and each is analyzed independently.
//
// # Classification
//
// Two classifiers label every text:
//
//	disaster type: flood, earthquake, fire, cyclone, landslide, other
//	severity:      Low, Medium, High
//
// Each returns the argmax label with its softmax probability. A classifier
// whose model did not load returns the "N/A" label with probability 0 so
// callers can tell "not a disaster" apart from "could not run".
//
// # Severity Correction
//
// The severity label is then corrected by a fixed keyword hierarchy. High
// keywords win over Medium keywords, which win over Low keywords, regardless
// of what the model predicted:
//
//	"Massive earthquake near Solan"          → High   ("massive")
//	"Minor tremor felt, no damage reported"  → Low    ("minor", "tremor")
//	"Heavy rain in Mumbai"                   → Medium ("heavy rain")
//
// Keywords match as lowercase substrings, so "tremor" also matches "tremors".
// When nothing matches the model label is kept. The model probability is
// never changed by a correction.
//
// # Location Resolution
//
// Named entities typed as place, location, facility or organization are
// tried in order of appearance. Entities shorter than two characters and
// generic terms ("india", "news", "bbc", "situation report", ...) are
// skipped. Each candidate is geocoded inside the configured country first
// and then worldwide. The first candidate that geocodes is the location;
// geocoder errors only discard that candidate.
//
// # Reports
//
// A Report is the stored form of a result. Coordinates become a GeoJSON
// point, which orders them [longitude, latitude]. Confidence is the mean of
// the two classifier probabilities rounded to four decimals.
package domain
