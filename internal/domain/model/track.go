// Package model contains domain models passed between layers.
package model

import "time"

// Format is the declared encoding of a raw track source.
type Format string

// Supported formats.
const (
	FormatCSV Format = "csv"
	FormatGPX Format = "gpx"
)

// TrackSource is one raw input file handed to the ingestor.
type TrackSource struct {
	Name     string `json:"name" validate:"required"`
	Format   Format `json:"format" validate:"required"`
	Content  []byte `json:"content" validate:"required"`
	VesselID string `json:"vessel_id,omitempty"`
}

// IngestJob is a unit of work on the ingest queue. Index is the source's
// position in the batch and keys the deterministic join.
type IngestJob struct {
	Index  int
	Source TrackSource
}

// IngestOutcome is the result of processing one IngestJob.
type IngestOutcome struct {
	Job      IngestJob
	Track    VesselTrack
	Warnings []string
	Err      error
}

// TrackPoint is a single GPS fix. Speed is speed over ground in m/s and
// Course is course over ground in degrees; both are derived during
// normalization when the source omits them.
type TrackPoint struct {
	VesselID    string    `json:"vessel_id"`
	Time        time.Time `json:"timestamp"`
	Lat         float64   `json:"latitude"`
	Lon         float64   `json:"longitude"`
	Elevation   *float64  `json:"elevation,omitempty"`
	Speed       *float64  `json:"speed,omitempty"`
	Course      *float64  `json:"course,omitempty"`
	HeartRate   *float64  `json:"heart_rate,omitempty"`
	Cadence     *float64  `json:"cadence,omitempty"`
	Power       *float64  `json:"power,omitempty"`
	Distance    *float64  `json:"distance,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// SpeedOr returns the speed over ground or def when unset.
func (p TrackPoint) SpeedOr(def float64) float64 {
	if p.Speed == nil {
		return def
	}
	return *p.Speed
}

// CourseOr returns the course over ground or def when unset.
func (p TrackPoint) CourseOr(def float64) float64 {
	if p.Course == nil {
		return def
	}
	return *p.Course
}

// ValidPosition reports whether the coordinates are in range.
func (p TrackPoint) ValidPosition() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// VesselTrack is the time-ordered point sequence of one vessel.
type VesselTrack struct {
	VesselID    string       `json:"vessel_id"`
	Source      string       `json:"source"`
	Points      []TrackPoint `json:"points"`
	Downsampled bool         `json:"downsampled,omitempty"`
}

// Len returns the number of points.
func (t VesselTrack) Len() int { return len(t.Points) }

// Clone returns a deep copy of the point slice header and values.
func (t VesselTrack) Clone() VesselTrack {
	out := t
	out.Points = append([]TrackPoint(nil), t.Points...)
	return out
}

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 { return &v }
