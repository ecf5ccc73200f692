package estimator

import (
	"math"
	"sort"
	"time"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
)

// Maneuver detection constants.
const (
	turnWindow     = 3   // heading changes summed per detection window
	legSamples     = 5   // courses averaged on each side of a maneuver
	minLegDiff     = 50  // smallest plausible tack/jibe angle
	maxLegDiff     = 150 // larger turns are mark roundings
	minManeuverGap = 3   // points skipped after a detection
	splitTolerance = 1.02
)

// ManeuverKind tells tacks from jibes.
type ManeuverKind string

// Maneuver kinds.
const (
	Tack ManeuverKind = "tack"
	Jibe ManeuverKind = "jibe"
)

// Maneuver is a detected tack or jibe and the wind direction it implies.
type Maneuver struct {
	Index         int          `json:"index"`
	Time          time.Time    `json:"time"`
	Lat           float64      `json:"latitude"`
	Lon           float64      `json:"longitude"`
	Kind          ManeuverKind `json:"kind"`
	HeadingBefore float64      `json:"heading_before"`
	HeadingAfter  float64      `json:"heading_after"`
	WindDirection float64      `json:"wind_direction"`
	Confidence    float64      `json:"confidence"`
}

// headings returns the course over ground of each point, falling back to the
// bearing toward the neighbouring point when the course is unset.
func headings(pts []model.TrackPoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		if p.Course != nil {
			out[i] = geo.Normalize(*p.Course)
			continue
		}
		switch {
		case i+1 < len(pts):
			out[i] = geo.Bearing(p.Lat, p.Lon, pts[i+1].Lat, pts[i+1].Lon)
		case i > 0:
			out[i] = out[i-1]
		}
	}
	return out
}

func speeds(pts []model.TrackPoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.SpeedOr(0)
	}
	return out
}

// speedSplit is the midpoint of the 10th and 90th percentile speeds. Legs at
// or below it are treated as upwind.
func speedSplit(sp []float64) float64 {
	if len(sp) == 0 {
		return 0
	}
	s := append([]float64(nil), sp...)
	sort.Float64s(s)
	lo := s[int(float64(len(s)-1)*0.1)]
	hi := s[int(float64(len(s)-1)*0.9)]
	return (lo + hi) / 2
}

// detectManeuvers scans rolling windows of heading changes. A window whose
// summed change exceeds tackAngle yields a maneuver at its largest change.
func detectManeuvers(pts []model.TrackPoint, courses, sp []float64, tackAngle float64) []Maneuver {
	n := len(courses)
	if n < turnWindow {
		return nil
	}
	delta := make([]float64, n)
	for i := 1; i < n; i++ {
		delta[i] = geo.Diff(courses[i-1], courses[i])
	}
	split := speedSplit(sp)

	var out []Maneuver
	for i := 1; i < n; {
		end := min(i+turnWindow, n)
		var sum float64
		j := i
		for k := i; k < end; k++ {
			sum += delta[k]
			if math.Abs(delta[k]) > math.Abs(delta[j]) {
				j = k
			}
		}
		if math.Abs(sum) <= tackAngle {
			i++
			continue
		}
		if m, ok := buildManeuver(pts, courses, sp, j, split); ok {
			out = append(out, m)
		}
		i = j + minManeuverGap
	}
	return out
}

func buildManeuver(pts []model.TrackPoint, courses, sp []float64, j int, split float64) (Maneuver, bool) {
	n := len(courses)
	bLo, bHi := max(0, j-legSamples-1), max(0, j-1)
	if bHi <= bLo {
		bLo, bHi = max(0, j-1), j
	}
	aLo, aHi := min(n, j+1), min(n, j+legSamples+1)
	if aHi <= aLo {
		aLo, aHi = j, j+1
	}

	before, okB := geo.CircularMean(courses[bLo:bHi], nil)
	after, okA := geo.CircularMean(courses[aLo:aHi], nil)
	if !okB || !okA {
		return Maneuver{}, false
	}
	legDiff := geo.AbsDiff(before, after)
	if legDiff < minLegDiff || legDiff > maxLegDiff {
		return Maneuver{}, false
	}

	var legSpeed float64
	cnt := 0
	for _, r := range [][2]int{{bLo, bHi}, {aLo, aHi}} {
		for k := r[0]; k < r[1]; k++ {
			legSpeed += sp[k]
			cnt++
		}
	}
	legSpeed /= float64(cnt)

	kind := Tack
	wind := geo.Bisector(before, after)
	if legSpeed > split*splitTolerance {
		kind = Jibe
		wind = geo.Normalize(wind + 180)
	}

	spread := (geo.CircularVariance(courses[bLo:bHi]) + geo.CircularVariance(courses[aLo:aHi])) / 2
	conf := 0.5*math.Min(1, legDiff/120) + 0.5*(1-spread)

	return Maneuver{
		Index:         j,
		Time:          pts[j].Time,
		Lat:           pts[j].Lat,
		Lon:           pts[j].Lon,
		Kind:          kind,
		HeadingBefore: before,
		HeadingAfter:  after,
		WindDirection: wind,
		Confidence:    math.Max(0.3, math.Min(0.9, conf)),
	}, true
}
