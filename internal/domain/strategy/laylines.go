package strategy

import (
	"math"
	"time"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
)

// Safety margin bounds in degrees.
const (
	minMargin = 3.0
	maxMargin = 25.0
)

// scanLaylines reports path points of upwind legs that sit on a layline to
// the leg's end mark.
func (d *Detector) scanLaylines(cfg Config, leg int, l model.Leg, pts []pathPoint, field model.WindField, forecasts []forecast) []model.LaylinePoint {
	if l.Kind != model.Upwind || l.EndMark == nil {
		return nil
	}
	mark := *l.EndMark

	var out []model.LaylinePoint
	for _, p := range pts {
		dist := geo.Distance(p.lat, p.lon, mark.Lat, mark.Lon)
		if dist < cfg.MinMarkDistanceM {
			continue
		}
		w, ok := field.At(p.lat, p.lon)
		if !ok {
			continue
		}

		half := d.vmg.TackingAngle(w.Speed) / 2
		var eta time.Duration
		if bs := d.vmg.BoatSpeed(w.Speed, half); bs > 0 {
			eta = time.Duration(dist / (bs * knotsToMps) * float64(time.Second))
		}
		arrival := arrivalWind(field, forecasts, eta, mark, w)
		shift := geo.Diff(w.Direction, arrival.Direction)
		margin := d.safetyMargin(w, dist, shift)

		// Headings that fetch the mark on each board, tightened by the margin.
		starboard := geo.Normalize(w.Direction - half + margin)
		port := geo.Normalize(w.Direction + half - margin)
		toMark := geo.Bearing(p.lat, p.lon, mark.Lat, mark.Lon)

		var side model.TackSide
		var angle float64
		switch {
		case geo.AbsDiff(toMark, starboard) < margin/2:
			side, angle = model.Starboard, starboard
		case geo.AbsDiff(toMark, port) < margin/2:
			side, angle = model.Port, port
		default:
			continue
		}

		conf := w.Confidence * math.Max(0.7, 1-dist/2000) * math.Max(0.6, 1-math.Abs(shift)/30)
		lp := model.LaylinePoint{
			StrategicPoint: model.StrategicPoint{
				Lat:          p.lat,
				Lon:          p.lon,
				TimeEstimate: p.at,
				Leg:          leg,
			},
			MarkID:         mark.ID,
			Side:           side,
			LaylineAngle:   angle,
			SafetyMargin:   margin,
			MarkDistance:   dist,
			PredictedShift: shift,
			Confidence:     clamp01(conf),
		}
		sc := d.scorer.Layline(lp)
		lp.Score, lp.Note = sc.Value, sc.Note
		out = append(out, lp)
	}
	return out
}

// arrivalWind samples the wind at the mark in the field closest in time to
// the boat's arrival. Without forecasts the current field is used.
func arrivalWind(field model.WindField, forecasts []forecast, eta time.Duration, mark model.Mark, fallback model.WindSample) model.WindSample {
	src, gap := field, absDuration(eta)
	for _, fc := range forecasts {
		if g := absDuration(fc.horizon - eta); g < gap {
			src, gap = fc.field, g
		}
	}
	if s, ok := src.At(mark.Lat, mark.Lon); ok {
		return s
	}
	return fallback
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// safetyMargin widens the layline margin for shifty, light, uncertain or
// distant conditions and for a forecast shift before arrival.
func (d *Detector) safetyMargin(w model.WindSample, dist, shift float64) float64 {
	base := defaultLaylineMargin
	if m, ok := any(d.vmg).(interface{ BaseLaylineMargin() float64 }); ok && m.BaseLaylineMargin() > 0 {
		base = m.BaseLaylineMargin()
	}
	margin := base *
		(1 + w.Variability*15) *
		(1 + math.Max(0, (15-w.Speed)/10)) *
		(1 + (1-w.Confidence)*2) *
		math.Min(1.5, math.Max(0.8, dist/500)) *
		(1 + math.Abs(shift)/45)
	return math.Min(maxMargin, math.Max(minMargin, margin))
}
