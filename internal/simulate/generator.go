package simulate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/polar"
)

// Track generation defaults.
const (
	defaultLegPoints  = 120
	defaultInterval   = time.Second
	defaultWindSpeed  = 12.0
	defaultUpwindLegs = 6
	defaultStartLat   = 43.5
	defaultStartLon   = 16.4
)

// TrackSpec describes a synthetic vessel sailing in a known wind. Headings
// follow the class optimal angles; a non-zero WindShift rotates the wind
// linearly over the track.
type TrackSpec struct {
	VesselID      string
	Class         string
	Start         time.Time
	Lat, Lon      float64
	WindDirection float64
	WindSpeed     float64 // knots
	WindShift     float64 // degrees over the whole track
	Interval      time.Duration
	LegPoints     int
	UpwindLegs    int
	DownwindLegs  int
	Noise         float64 // heading noise standard deviation, degrees
	Seed          int64
}

func (s TrackSpec) withDefaults() TrackSpec {
	if s.VesselID == "" {
		s.VesselID = uuid.NewString()
	}
	if s.Class == "" {
		s.Class = polar.DefaultClass
	}
	if s.Start.IsZero() {
		s.Start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	if s.Lat == 0 && s.Lon == 0 {
		s.Lat, s.Lon = defaultStartLat, defaultStartLon
	}
	if s.WindSpeed <= 0 {
		s.WindSpeed = defaultWindSpeed
	}
	if s.Interval <= 0 {
		s.Interval = defaultInterval
	}
	if s.LegPoints <= 0 {
		s.LegPoints = defaultLegPoints
	}
	if s.UpwindLegs == 0 && s.DownwindLegs == 0 {
		s.UpwindLegs = defaultUpwindLegs
	}
	return s
}

// TotalPoints returns the number of points GenerateTrack emits for s.
func (s TrackSpec) TotalPoints() int {
	s = s.withDefaults()
	return (s.UpwindLegs + s.DownwindLegs) * s.LegPoints
}

// GenerateTrack sails the upwind legs first, starting on starboard tack, then
// the downwind legs. Output is deterministic for a given spec.
func GenerateTrack(spec TrackSpec) model.VesselTrack {
	s := spec.withDefaults()
	prof, _ := polar.Lookup(s.Class)
	up, down := prof.OptimalAngles(s.WindSpeed)
	rng := rand.New(rand.NewSource(s.Seed)) //nolint:gosec // deterministic fixtures

	total := (s.UpwindLegs + s.DownwindLegs) * s.LegPoints
	pts := make([]model.TrackPoint, 0, total)
	lat, lon := s.Lat, s.Lon
	t := s.Start
	lastBeatPlus := s.UpwindLegs > 0 && (s.UpwindLegs-1)%2 == 1

	for leg := 0; leg < s.UpwindLegs+s.DownwindLegs; leg++ {
		upwind := leg < s.UpwindLegs
		for k := 0; k < s.LegPoints; k++ {
			idx := len(pts)
			wind := s.WindDirection
			if total > 1 {
				wind += s.WindShift * float64(idx) / float64(total-1)
			}
			var heading, twa float64
			if upwind {
				twa = up
				if leg%2 == 0 {
					heading = wind - up
				} else {
					heading = wind + up
				}
			} else {
				// Bear away onto the gybe that continues the last beat's turn
				// so the rounding is not mistaken for a tack.
				twa = down
				plus := (leg-s.UpwindLegs)%2 == 0
				if lastBeatPlus {
					plus = !plus
				}
				if plus {
					heading = wind + down
				} else {
					heading = wind - down
				}
			}
			heading = geo.Normalize(heading)
			speed := prof.BoatSpeed(s.WindSpeed, twa) / geo.MpsToKnots

			reported := heading
			if s.Noise > 0 {
				reported = geo.Normalize(heading + rng.NormFloat64()*s.Noise)
			}
			pts = append(pts, model.TrackPoint{
				VesselID: s.VesselID,
				Time:     t,
				Lat:      lat,
				Lon:      lon,
				Speed:    model.Ptr(speed),
				Course:   model.Ptr(reported),
			})
			lat, lon = geo.Destination(lat, lon, heading, speed*s.Interval.Seconds())
			t = t.Add(s.Interval)
		}
	}

	return model.VesselTrack{VesselID: s.VesselID, Source: s.VesselID, Points: pts}
}

// FleetSpec places several vessels in the same wind on a line across it.
type FleetSpec struct {
	Vessels  int
	SpacingM float64
	Template TrackSpec
	IDPrefix string
}

// GenerateFleet returns one track per vessel, spaced perpendicular to the
// wind. Vessel ids are IDPrefix plus the index, or random UUIDs when the
// prefix is empty.
func GenerateFleet(f FleetSpec) []model.VesselTrack {
	base := f.Template.withDefaults()
	spacing := f.SpacingM
	if spacing <= 0 {
		spacing = 150
	}
	out := make([]model.VesselTrack, 0, f.Vessels)
	for i := 0; i < f.Vessels; i++ {
		s := base
		s.VesselID = ""
		if f.IDPrefix != "" {
			s.VesselID = fmt.Sprintf("%s%02d", f.IDPrefix, i+1)
		}
		s.Seed = base.Seed + int64(i)
		s.Lat, s.Lon = geo.Destination(base.Lat, base.Lon, base.WindDirection+90, spacing*float64(i))
		out = append(out, GenerateTrack(s))
	}
	return out
}
