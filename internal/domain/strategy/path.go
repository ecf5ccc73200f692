package strategy

import (
	"math"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/timenorm"
)

// knotsToMps converts boat speed to metres per second.
const knotsToMps = 1 / geo.MpsToKnots

type pathPoint struct {
	lat, lon float64
	at       model.Epoch
	heading  float64
}

// resolvePath drops unusable positions, normalizes times and fills missing
// headings with the bearing to the next point (the last point keeps the
// previous heading).
func resolvePath(path []model.PathPoint) []pathPoint {
	out := make([]pathPoint, 0, len(path))
	explicit := make([]bool, 0, len(path))
	for _, p := range path {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 {
			continue
		}
		pp := pathPoint{lat: p.Lat, lon: p.Lon, at: timenorm.Normalize(p.Time)}
		if p.Heading != nil {
			pp.heading = geo.Normalize(*p.Heading)
		}
		out = append(out, pp)
		explicit = append(explicit, p.Heading != nil)
	}
	for i := range out {
		if explicit[i] {
			continue
		}
		switch {
		case i+1 < len(out):
			out[i].heading = geo.Bearing(out[i].lat, out[i].lon, out[i+1].lat, out[i+1].lon)
		case i > 0:
			out[i].heading = out[i-1].heading
		}
	}
	return out
}

// sideOf returns the tack a boat on heading is sailing in wind from wind.
func sideOf(wind, heading float64) model.TackSide {
	if geo.Normalize(wind-heading) <= 180 {
		return model.Starboard
	}
	return model.Port
}

func opposite(s model.TackSide) model.TackSide {
	if s == model.Starboard {
		return model.Port
	}
	return model.Starboard
}

// closeHauled returns the heading on side sailing half the tacking angle off
// the wind.
func closeHauled(wind, half float64, side model.TackSide) float64 {
	if side == model.Starboard {
		return geo.Normalize(wind - half)
	}
	return geo.Normalize(wind + half)
}

func clamp01(x float64) float64 { return max(0, min(1, x)) }
