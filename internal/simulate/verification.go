package simulate

import (
	"fmt"
	"math"

	"github.com/okian/sailwind/internal/domain/geo"
)

// verify compares the stored analysis with the generating wind. A shifting
// wind is compared against its mid-track direction.
func verify(a analysisResponse, cfg RunConfig) (*Report, error) {
	r := &Report{
		AnalysisID: a.ID,
		Vessels:    len(a.Vessels),
		Skipped:    len(a.Skipped),
		WindShifts: len(a.Strategy.WindShifts),
		Tacks:      len(a.Strategy.Tacks),
		Laylines:   len(a.Strategy.Laylines),
	}
	if r.Vessels != cfg.Vessels {
		return r, fmt.Errorf("expected %d vessels, analysis has %d", cfg.Vessels, r.Vessels)
	}

	truth := geo.Normalize(cfg.WindDirection + cfg.WindShift/2)
	speed := cfg.WindSpeed
	if speed <= 0 {
		speed = defaultWindSpeed
	}

	var dirErr, speedErr float64
	for _, v := range a.Vessels {
		for _, e := range v.Estimates {
			dirErr += geo.AbsDiff(e.Direction, truth)
			speedErr += math.Abs(e.Speed - speed)
			r.Estimates++
		}
	}
	if r.Estimates == 0 {
		return r, fmt.Errorf("no wind estimates produced")
	}
	r.MeanDirectionError = dirErr / float64(r.Estimates)
	r.MeanSpeedError = speedErr / float64(r.Estimates)

	if r.MeanDirectionError > cfg.Tolerance {
		return r, fmt.Errorf("mean direction error %.2f exceeds tolerance %.2f", r.MeanDirectionError, cfg.Tolerance)
	}
	return r, nil
}
