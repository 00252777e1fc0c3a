package domain

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ResolvedLocation is a place name together with the coordinates it geocoded to.
type ResolvedLocation struct {
	Name        string
	Coordinates Coordinates
}

// CombinedResult is the output of one pipeline run. Severity holds the
// corrected label with the model's original probability. Location and
// Coordinates are both set or both nil.
type CombinedResult struct {
	Disaster    ClassificationResult `json:"disaster"`
	Severity    ClassificationResult `json:"severity"`
	Location    *string              `json:"location"`
	Coordinates *Coordinates         `json:"coordinates"`
}

// WithLocation returns a copy of r carrying loc. A nil loc leaves both fields nil.
func (r CombinedResult) WithLocation(loc *ResolvedLocation) CombinedResult {
	if loc == nil {
		r.Location = nil
		r.Coordinates = nil
		return r
	}
	name := loc.Name
	coords := loc.Coordinates
	r.Location = &name
	r.Coordinates = &coords
	return r
}
