package model

import "time"

// TackSide names the side the wind comes over.
type TackSide string

// Tack sides.
const (
	Port      TackSide = "port"
	Starboard TackSide = "starboard"
)

// LegKind classifies a course leg relative to the wind.
type LegKind string

// Leg kinds.
const (
	Upwind   LegKind = "upwind"
	Downwind LegKind = "downwind"
	Reach    LegKind = "reach"
)

// Mark is a course mark.
type Mark struct {
	ID  string  `json:"id" yaml:"id"`
	Lat float64 `json:"latitude" yaml:"lat"`
	Lon float64 `json:"longitude" yaml:"lon"`
}

// PathPoint is one point of a leg path. Time may be any time-like value
// accepted by timenorm.Normalize. Heading is optional; when nil the bearing
// to the next path point is used.
type PathPoint struct {
	Lat     float64  `json:"latitude" yaml:"lat"`
	Lon     float64  `json:"longitude" yaml:"lon"`
	Time    any      `json:"time,omitempty" yaml:"time,omitempty"`
	Heading *float64 `json:"heading,omitempty" yaml:"heading,omitempty"`
}

// Leg is one segment of a course.
type Leg struct {
	Kind    LegKind     `json:"kind" yaml:"kind"`
	Path    []PathPoint `json:"path" yaml:"path"`
	EndMark *Mark       `json:"end_mark,omitempty" yaml:"end_mark,omitempty"`
}

// Course is the read-only leg structure handed to the detector.
type Course struct {
	Name string `json:"name" yaml:"name"`
	Legs []Leg  `json:"legs" yaml:"legs"`
}

// StrategicPoint holds the fields shared by every detection variant.
type StrategicPoint struct {
	Lat          float64 `json:"latitude"`
	Lon          float64 `json:"longitude"`
	TimeEstimate Epoch   `json:"time_estimate"`
	Score        float64 `json:"strategic_score"`
	Note         string  `json:"note"`
	Leg          int     `json:"leg"`
}

// WindShiftPoint is a detected change in wind direction along a leg.
type WindShiftPoint struct {
	StrategicPoint
	ShiftAngle      float64       `json:"shift_angle"`
	BeforeDirection float64       `json:"before_direction"`
	AfterDirection  float64       `json:"after_direction"`
	SpeedChange     float64       `json:"speed_change"`
	Probability     float64       `json:"probability"`
	Horizon         time.Duration `json:"horizon"`
}

// TackPoint is a position where tacking improves VMG toward the mark.
type TackPoint struct {
	StrategicPoint
	VMGGain    float64  `json:"vmg_gain"`
	FromSide   TackSide `json:"from_side"`
	ToSide     TackSide `json:"to_side"`
	Confidence float64  `json:"confidence"`
}

// LaylinePoint is a position on a layline to a mark.
type LaylinePoint struct {
	StrategicPoint
	MarkID         string   `json:"mark_id"`
	Side           TackSide `json:"side"`
	LaylineAngle   float64  `json:"layline_angle"`
	SafetyMargin   float64  `json:"safety_margin"`
	MarkDistance   float64  `json:"mark_distance"`
	PredictedShift float64  `json:"predicted_shift"`
	Confidence     float64  `json:"confidence"`
}
