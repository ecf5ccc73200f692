package service

import (
	"time"

	"github.com/okian/sailwind/internal/adapters/ingest"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/strategy"
)

// Request describes one analysis. Sources are required; everything else is
// optional.
type Request struct {
	Sources []model.TrackSource `json:"sources" validate:"required,min=1,dive"`
	// Course to scan. Without one, every vessel's sailed track becomes a leg.
	Course *model.Course `json:"course,omitempty"`
	// VesselType selects the polar profile; empty uses the configured type.
	VesselType string `json:"vessel_type,omitempty" validate:"omitempty,max=32"`
	// ReferenceTime is when the wind field is fused; the latest estimate
	// time is used when unset.
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
	// ShiftThreshold overrides the shift probability cut-off.
	ShiftThreshold *float64 `json:"shift_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	// MinShiftAngle overrides the smallest reported shift in degrees.
	MinShiftAngle *float64 `json:"min_shift_angle,omitempty" validate:"omitempty,gte=0,lt=180"`
}

// VesselReport is the per-vessel part of an analysis.
type VesselReport struct {
	Summary   ingest.Summary       `json:"summary"`
	Estimates []model.WindEstimate `json:"estimates"`
	Maneuvers int                  `json:"maneuvers"`
	// Condition explains an empty estimate list.
	Condition string `json:"condition,omitempty"`
}

// Analysis is a completed run.
type Analysis struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	TookMs        int64            `json:"took_ms"`
	VesselType    string           `json:"vessel_type"`
	ReferenceTime time.Time        `json:"reference_time"`
	Vessels       []VesselReport   `json:"vessels"`
	Field         *model.WindField `json:"field,omitempty"`
	Strategy      strategy.Result  `json:"strategy"`
	Skipped       []ingest.Skipped `json:"skipped,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
}
