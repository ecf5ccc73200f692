// Package dedupe removes near-identical detections.
//
// Filter is greedy by score: items are visited best first (ties in input
// order) and kept only when they duplicate nothing already kept. The result
// therefore never contains a duplicate pair, and filtering it again returns
// it unchanged.
package dedupe

import (
	"math"
	"sort"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
)

// Duplicate thresholds per detection variant.
const (
	ShiftDistanceM   = 300.0
	ShiftTimeS       = 300.0
	ShiftAngleDeg    = 15.0
	TackDistanceM    = 200.0
	TackGainDiff     = 0.05
	LaylineDistanceM = 300.0
)

// Rule decides duplicates and ranks survivors.
type Rule[T any] struct {
	// Duplicate reports whether a and b describe the same event.
	Duplicate func(a, b T) bool
	// Score ranks items; the higher one survives a conflict.
	Score func(T) float64
}

// Filter returns the surviving items in their original relative order.
func Filter[T any](items []T, rule Rule[T]) []T {
	if len(items) <= 1 {
		return append([]T(nil), items...)
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rule.Score(items[order[a]]) > rule.Score(items[order[b]])
	})

	kept := make([]int, 0, len(items))
	for _, idx := range order {
		dup := false
		for _, k := range kept {
			if rule.Duplicate(items[k], items[idx]) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, idx)
		}
	}
	sort.Ints(kept)

	out := make([]T, len(kept))
	for i, k := range kept {
		out[i] = items[k]
	}
	return out
}

func distance(a, b model.StrategicPoint) float64 {
	return geo.Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// ShiftRule treats wind shifts as duplicates when they are close in space,
// time and shift angle. Higher probability wins.
var ShiftRule = Rule[model.WindShiftPoint]{
	Duplicate: func(a, b model.WindShiftPoint) bool {
		return distance(a.StrategicPoint, b.StrategicPoint) < ShiftDistanceM &&
			a.TimeEstimate.Diff(b.TimeEstimate) < ShiftTimeS &&
			math.Abs(a.ShiftAngle-b.ShiftAngle) < ShiftAngleDeg
	},
	Score: func(p model.WindShiftPoint) float64 { return p.Probability },
}

// TackRule treats tacks as duplicates when they are close and promise a
// similar VMG gain. Higher gain wins.
var TackRule = Rule[model.TackPoint]{
	Duplicate: func(a, b model.TackPoint) bool {
		return distance(a.StrategicPoint, b.StrategicPoint) < TackDistanceM &&
			math.Abs(a.VMGGain-b.VMGGain) < TackGainDiff
	},
	Score: func(p model.TackPoint) float64 { return p.VMGGain },
}

// LaylineRule treats laylines to the same mark as duplicates when close.
// Higher confidence wins.
var LaylineRule = Rule[model.LaylinePoint]{
	Duplicate: func(a, b model.LaylinePoint) bool {
		return a.MarkID == b.MarkID &&
			distance(a.StrategicPoint, b.StrategicPoint) < LaylineDistanceM
	},
	Score: func(p model.LaylinePoint) float64 { return p.Confidence },
}

// WindShifts filters wind shift detections.
func WindShifts(points []model.WindShiftPoint) []model.WindShiftPoint {
	return Filter(points, ShiftRule)
}

// Tacks filters tack detections.
func Tacks(points []model.TackPoint) []model.TackPoint {
	return Filter(points, TackRule)
}

// Laylines filters layline detections.
func Laylines(points []model.LaylinePoint) []model.LaylinePoint {
	return Filter(points, LaylineRule)
}
