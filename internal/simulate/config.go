package simulate

import (
	"time"

	"github.com/okian/sailwind/pkg/logger"
)

// Runner defaults.
const (
	DefaultBaseURL   = "http://localhost:9080"
	DefaultVessels   = 4
	DefaultCourseM   = 1000
	DefaultTolerance = 5.0
	DefaultTimeout   = 60 * time.Second
)

// RunConfig holds configuration for an end-to-end run.
type RunConfig struct {
	BaseURL       string        // Base URL of the service
	Vessels       int           // Number of vessels in the fleet
	Class         string        // Boat class, also sent as vessel_type
	WindDirection float64       // True wind direction, degrees
	WindSpeed     float64       // True wind speed, knots
	WindShift     float64       // Linear shift over each track, degrees
	Format        string        // csv or gpx
	CourseM       float64       // Beat length of the generated course
	Timeout       time.Duration // HTTP request timeout
	OutputDir     string        // When set, generated files are written here
	Tolerance     float64       // Allowed mean direction error, degrees
	Seed          int64
	Logger        logger.Logger
}

func (c RunConfig) withDefaults() RunConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Vessels <= 0 {
		c.Vessels = DefaultVessels
	}
	if c.Format == "" {
		c.Format = "csv"
	}
	if c.CourseM <= 0 {
		c.CourseM = DefaultCourseM
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	return c
}

// Report summarizes a run.
type Report struct {
	AnalysisID         string        `json:"analysis_id"`
	Vessels            int           `json:"vessels"`
	Estimates          int           `json:"estimates"`
	Skipped            int           `json:"skipped"`
	MeanDirectionError float64       `json:"mean_direction_error"`
	MeanSpeedError     float64       `json:"mean_speed_error"`
	WindShifts         int           `json:"wind_shifts"`
	Tacks              int           `json:"tacks"`
	Laylines           int           `json:"laylines"`
	Duration           time.Duration `json:"duration"`
}
