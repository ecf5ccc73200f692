package strategy

import (
	"math"
	"time"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/scoring"
)

// Tack search constants.
const (
	tackCandidates   = 10
	tackSamples      = 15
	gainWeight       = 0.5
	remainingWeight  = 0.3
	remainingScale   = 5000.0
	confidenceWeight = 0.2
)

// legTarget returns where a leg is heading: its end mark, or the last path
// point when the leg has none.
func legTarget(leg model.Leg, pts []pathPoint) (lat, lon float64, ok bool) {
	if leg.EndMark != nil {
		return leg.EndMark.Lat, leg.EndMark.Lon, true
	}
	if len(pts) < 2 {
		return 0, 0, false
	}
	last := pts[len(pts)-1]
	return last.lat, last.lon, true
}

// scanTacks looks for positions where tacking onto the other board improves
// VMG toward the leg target. Only points whose target lies inside the no-go
// zone are considered; for each, the best of a line of candidates ahead on
// the current heading is kept.
func (d *Detector) scanTacks(cfg Config, leg int, l model.Leg, pts []pathPoint, field model.WindField) []model.TackPoint {
	tLat, tLon, ok := legTarget(l, pts)
	if !ok || len(pts) == 0 {
		return nil
	}
	stride := max(1, len(pts)/tackSamples)

	var out []model.TackPoint
	for i := 0; i < len(pts); i += stride {
		p := pts[i]
		if geo.Distance(p.lat, p.lon, tLat, tLon) < cfg.MinMarkDistanceM {
			continue
		}
		w, ok := field.At(p.lat, p.lon)
		if !ok || w.Speed <= 0 {
			continue
		}
		half := d.vmg.TackingAngle(w.Speed) / 2
		toTarget := geo.Bearing(p.lat, p.lon, tLat, tLon)
		if geo.AbsDiff(w.Direction, toTarget) >= half {
			continue
		}

		side := sideOf(w.Direction, p.heading)
		speed := d.vmg.BoatSpeed(w.Speed, geo.AbsDiff(w.Direction, p.heading))
		vmgNow := speed * math.Cos(geo.AbsDiff(p.heading, toTarget)*math.Pi/180)
		if vmgNow <= 0 {
			continue
		}

		tp, found := d.bestTack(cfg, p, side, vmgNow, tLat, tLon, field)
		if !found {
			continue
		}
		if speed > 0 {
			along := geo.Distance(p.lat, p.lon, tp.Lat, tp.Lon)
			tp.TimeEstimate = p.at.Add(time.Duration(along / (speed * knotsToMps) * float64(time.Second)))
		} else {
			tp.TimeEstimate = p.at
		}
		tp.Leg = leg
		out = append(out, tp)
	}
	return out
}

func (d *Detector) bestTack(cfg Config, p pathPoint, side model.TackSide, vmgNow, tLat, tLon float64, field model.WindField) (model.TackPoint, bool) {
	var (
		best      model.TackPoint
		bestScore float64
		bestCond  scoring.Conditions
		found     bool
	)
	for k := 0; k < tackCandidates; k++ {
		dist := cfg.TackSearchRadiusM * float64(k) / float64(tackCandidates-1)
		lat, lon := geo.Destination(p.lat, p.lon, p.heading, dist)
		w, ok := field.At(lat, lon)
		if !ok || w.Speed <= 0 {
			continue
		}
		half := d.vmg.TackingAngle(w.Speed) / 2
		heading := closeHauled(w.Direction, half, opposite(side))
		toTarget := geo.Bearing(lat, lon, tLat, tLon)
		vmgAfter := cfg.TackEfficiency * d.vmg.BoatSpeed(w.Speed, half) *
			math.Cos(geo.AbsDiff(heading, toTarget)*math.Pi/180)

		gain := vmgAfter/vmgNow - 1
		if gain < cfg.MinVMGImprovement {
			continue
		}
		remaining := geo.Distance(lat, lon, tLat, tLon)
		score := gainWeight*gain + remainingWeight*remainingScale/(remaining+1) + confidenceWeight*w.Confidence
		if found && score <= bestScore {
			continue
		}
		found, bestScore = true, score
		bestCond = scoring.Conditions{Confidence: w.Confidence, Variability: w.Variability}
		best = model.TackPoint{
			StrategicPoint: model.StrategicPoint{Lat: lat, Lon: lon},
			VMGGain:        gain,
			FromSide:       side,
			ToSide:         opposite(side),
			Confidence:     w.Confidence,
		}
	}
	if found {
		sc := d.scorer.Tack(best, bestCond)
		best.Score, best.Note = sc.Value, sc.Note
	}
	return best, found
}
