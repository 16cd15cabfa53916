package domain

import "math"

// Severity bounds for a classified complaint.
const (
	MinSeverity = 0.1
	MaxSeverity = 1.0
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"finite"`
	Longitude float64 `json:"longitude" validate:"finite"`
}

// InRange reports whether both components are finite and within WGS84 bounds.
func (c Coordinates) InRange() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Draft accumulates complaint fields while the conversation progresses.
type Draft struct {
	Description   string       `json:"description,omitempty"`
	Department    *Department  `json:"department,omitempty"`
	SeverityScore float64      `json:"severity_score,omitempty"`
	NeedsImage    bool         `json:"needs_image,omitempty"`
	Reasoning     string       `json:"reasoning,omitempty"`
	Location      *Coordinates `json:"location,omitempty"`
	ImageRef      string       `json:"image_ref,omitempty"`
	VisionLabel   string       `json:"vision_label,omitempty"`
}

// AdditionalDetailsSeparator joins follow-up text onto the description.
const AdditionalDetailsSeparator = "\n\nAdditional details: "

// AppendDetails adds follow-up text to the description.
func (d *Draft) AppendDetails(text string) {
	if d.Description == "" {
		d.Description = text
		return
	}
	d.Description += AdditionalDetailsSeparator + text
}

// ApplyClassification merges a classification result into the draft.
func (d *Draft) ApplyClassification(r ClassificationResult) {
	dept := r.Department
	d.Department = &dept
	d.SeverityScore = ClampSeverity(r.SeverityScore)
	d.NeedsImage = r.NeedsImage
	d.Reasoning = r.Reasoning
}

// ReadyForLocation reports whether the draft may leave the description stage.
func (d Draft) ReadyForLocation() bool {
	return d.Description != "" && d.Department != nil &&
		d.SeverityScore >= MinSeverity && d.SeverityScore <= MaxSeverity
}

// ReadyForSubmit reports whether every field required for persistence is present.
func (d Draft) ReadyForSubmit() bool {
	return d.ReadyForLocation() && d.Location != nil && d.Location.InRange()
}

// DepartmentOrGeneral returns the classified department, or General when unset.
func (d Draft) DepartmentOrGeneral() Department {
	if d.Department == nil {
		return DepartmentGeneral
	}
	return *d.Department
}

// ClampSeverity forces a score into [MinSeverity, MaxSeverity].
func ClampSeverity(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(MinSeverity, math.Min(MaxSeverity, v))
}

// SeverityBand is the human label for a severity score.
func SeverityBand(score float64) string {
	switch {
	case score > 0.7:
		return "High"
	case score > 0.4:
		return "Medium"
	default:
		return "Low"
	}
}
