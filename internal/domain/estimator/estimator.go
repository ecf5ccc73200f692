// Package estimator infers a wind time series from a single vessel's track.
//
// Tacks and jibes are found from heading changes; the wind bisects the leg
// headings on the windward side. Wind speed comes from boat speed and the
// class polar ratios.
package estimator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/polar"
	"github.com/okian/sailwind/pkg/logger"
	"github.com/okian/sailwind/pkg/metrics"
)

const (
	upwindTWA       = 60.0
	downwindTWA     = 120.0
	upwindWeight    = 0.7
	minTimeFactor   = 0.3
	minInfluenceSec = 60.0
)

// Result is the output of one estimation pass.
type Result struct {
	VesselID  string               `json:"vessel_id"`
	Estimates []model.WindEstimate `json:"estimates"`
	Maneuvers []Maneuver           `json:"maneuvers"`
}

// Estimator runs per-vessel wind estimation. It is stateless apart from its
// logger and safe for concurrent use.
type Estimator struct {
	log logger.Logger
}

// New creates an Estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate derives wind estimates from track. Too few points or no
// detectable maneuvers return an empty Result together with
// ErrInsufficientPoints or ErrNoTacks. The track is not modified.
func (e *Estimator) Estimate(ctx context.Context, track model.VesselTrack, o Options) (Result, error) {
	start := time.Now()
	o = o.withDefaults()
	res := Result{VesselID: track.VesselID}

	n := track.Len()
	if n < o.MinPoints {
		metrics.RecordEstimationCondition("insufficient_points")
		e.log.Warn(ctx, "too few points for wind estimation",
			logger.String("vessel", track.VesselID),
			logger.Int("points", n),
			logger.Int("min_points", o.MinPoints),
		)
		return res, fmt.Errorf("%w: vessel %s has %d points, need %d", ErrInsufficientPoints, track.VesselID, n, o.MinPoints)
	}

	prof, known := polar.Lookup(o.VesselType)
	if !known {
		e.log.Warn(ctx, "unknown vessel type, using default profile",
			logger.String("vessel", track.VesselID),
			logger.String("vessel_type", o.VesselType),
		)
	}

	for lo := 0; lo < n; {
		hi := min(lo+o.ChunkSize, n)
		// Fold a short tail into this chunk instead of dropping it.
		if n-hi < o.MinPoints {
			hi = n
		}
		ests, mans := estimateChunk(track.Points[lo:hi], o, prof)
		for i := range mans {
			mans[i].Index += lo
		}
		for i := range ests {
			ests[i].VesselID = track.VesselID
		}
		res.Estimates = append(res.Estimates, ests...)
		res.Maneuvers = append(res.Maneuvers, mans...)
		lo = hi
	}

	if len(res.Estimates) == 0 {
		metrics.RecordEstimationCondition("no_tacks")
		e.log.Warn(ctx, "no tacks detected",
			logger.String("vessel", track.VesselID),
			logger.Int("points", n),
			logger.Float64("tack_angle", o.TackAngle),
		)
		return Result{VesselID: track.VesselID}, fmt.Errorf("%w: vessel %s", ErrNoTacks, track.VesselID)
	}

	if o.UseSmoothing {
		res.Estimates = Smooth(res.Estimates, o.SmoothingAlpha)
	}

	metrics.RecordEstimates(len(res.Estimates), time.Since(start))
	e.log.Debug(ctx, "wind estimated",
		logger.String("vessel", track.VesselID),
		logger.Int("estimates", len(res.Estimates)),
		logger.Int("maneuvers", len(res.Maneuvers)),
	)
	return res, nil
}

// estimateChunk produces windowed estimates for one contiguous slice of points.
func estimateChunk(pts []model.TrackPoint, o Options, prof polar.Profile) ([]model.WindEstimate, []Maneuver) {
	courses := headings(pts)
	sp := speeds(pts)
	mans := detectManeuvers(pts, courses, sp, o.TackAngle)
	if len(mans) == 0 {
		return nil, nil
	}

	n := len(pts)
	window := min(max(n/10, o.MinWindow), n)
	step := max(1, window/2)
	t0 := pts[0].Time
	span := math.Max(1, pts[n-1].Time.Sub(t0).Seconds())

	var out []model.WindEstimate
	for i := 0; i < n; i += step {
		end := min(i+window, n)
		if end-i < window/2 {
			break
		}
		w := pts[i:end]
		center := w[len(w)/2]
		tau := math.Max(minInfluenceSec, w[len(w)-1].Time.Sub(w[0].Time).Seconds())

		dir, manConf, dirVar, ok := windowDirection(mans, center.Time, tau)
		if !ok {
			continue
		}

		var lat, lon float64
		for _, p := range w {
			lat += p.Lat
			lon += p.Lon
		}
		lat /= float64(len(w))
		lon /= float64(len(w))

		f := w[0].Time.Sub(t0).Seconds() / span
		timeFactor := math.Max(minTimeFactor, 1-math.Abs(0.5-f)*0.3)

		out = append(out, model.WindEstimate{
			Time:        center.Time,
			Lat:         lat,
			Lon:         lon,
			Direction:   dir,
			Speed:       windSpeed(courses[i:end], sp[i:end], dir, prof) * geo.MpsToKnots,
			Confidence:  clamp01(manConf * timeFactor),
			Variability: clamp01(0.7*dirVar + 0.3*coefVar(sp[i:end])),
		})
	}
	return out, mans
}

// windowDirection is the confidence and time weighted circular mean of the
// maneuver wind directions around t. dirVar is the spread of maneuvers within
// two influence lengths.
func windowDirection(mans []Maneuver, t time.Time, tau float64) (dir, conf, dirVar float64, ok bool) {
	dirs := make([]float64, len(mans))
	weights := make([]float64, len(mans))
	var wsum, csum float64
	var near []float64
	for i, m := range mans {
		dt := math.Abs(m.Time.Sub(t).Seconds())
		w := m.Confidence / (1 + dt/tau)
		dirs[i] = m.WindDirection
		weights[i] = w
		wsum += w
		csum += w * m.Confidence
		if dt <= 2*tau {
			near = append(near, m.WindDirection)
		}
	}
	if wsum <= 0 {
		return 0, 0, 0, false
	}
	dir, ok = geo.CircularMean(dirs, weights)
	if !ok {
		return 0, 0, 0, false
	}
	if len(near) > 1 {
		dirVar = geo.CircularVariance(near)
	}
	return dir, csum / wsum, dirVar, true
}

// windSpeed infers true wind speed (m/s) from boat speeds split by point of
// sail relative to dir. Upwind samples are weighted 0.7 against downwind.
func windSpeed(courses, sp []float64, dir float64, prof polar.Profile) float64 {
	var up, down, all float64
	var nUp, nDown int
	for i, c := range courses {
		twa := geo.AbsDiff(c, dir)
		all += sp[i]
		switch {
		case twa < upwindTWA:
			up += sp[i]
			nUp++
		case twa > downwindTWA:
			down += sp[i]
			nDown++
		}
	}
	var fromUp, fromDown float64
	if nUp > 0 {
		fromUp = prof.WindSpeedFromBoat(up/float64(nUp), true)
	}
	if nDown > 0 {
		fromDown = prof.WindSpeedFromBoat(down/float64(nDown), false)
	}
	switch {
	case fromUp > 0 && fromDown > 0:
		return fromUp*upwindWeight + fromDown*(1-upwindWeight)
	case fromUp > 0:
		return fromUp
	case fromDown > 0:
		return fromDown
	case len(sp) > 0:
		return all / float64(len(sp)) * (prof.UpwindRatio + prof.DownwindRatio) / 2
	}
	return 0
}

func coefVar(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum, sq float64
	for _, x := range xs {
		sum += x
		sq += x * x
	}
	mean := sum / float64(len(xs))
	if mean <= 0 {
		return 0
	}
	v := math.Max(0, sq/float64(len(xs))-mean*mean)
	return math.Min(1, math.Sqrt(v)/mean)
}

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }
