package strategy

import (
	"math"
	"time"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
)

// scanShifts compares the wind sampled at consecutive path points and
// reports every change of at least the minimum shift angle.
func (d *Detector) scanShifts(cfg Config, leg int, pts []pathPoint, field model.WindField, horizon time.Duration) []model.WindShiftPoint {
	if len(pts) < 2 {
		return nil
	}
	factor := decay(cfg, horizon)

	var out []model.WindShiftPoint
	prev, okPrev := field.At(pts[0].lat, pts[0].lon)
	for i := 1; i < len(pts); i++ {
		cur, ok := field.At(pts[i].lat, pts[i].lon)
		if !ok || !okPrev {
			prev, okPrev = cur, ok
			continue
		}
		diff := geo.Diff(prev.Direction, cur.Direction)
		if math.Abs(diff) < cfg.MinShiftAngle {
			prev = cur
			continue
		}

		raw := min(prev.Confidence*(1-prev.Variability), cur.Confidence*(1-cur.Variability))
		weight := min(1, math.Abs(diff)/cfg.MaxReferenceAngle)
		prob := raw * (cfg.AngleBlendBase + cfg.AngleBlendWeight*weight)
		prob = clamp01(prob * factor)

		lat, lon := geo.Midpoint(pts[i-1].lat, pts[i-1].lon, pts[i].lat, pts[i].lon)
		p := model.WindShiftPoint{
			StrategicPoint: model.StrategicPoint{
				Lat:          lat,
				Lon:          lon,
				TimeEstimate: pts[i-1].at.Mid(pts[i].at),
				Leg:          leg,
			},
			ShiftAngle:      diff,
			BeforeDirection: prev.Direction,
			AfterDirection:  cur.Direction,
			SpeedChange:     cur.Speed - prev.Speed,
			Probability:     prob,
			Horizon:         horizon,
		}
		sc := d.scorer.Shift(p)
		p.Score, p.Note = sc.Value, sc.Note
		out = append(out, p)
		prev = cur
	}
	return out
}
