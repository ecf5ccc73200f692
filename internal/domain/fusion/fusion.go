// Package fusion merges per-vessel wind estimates into a gridded wind field
// and extrapolates fields forward in time.
package fusion

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/pkg/logger"
	"github.com/okian/sailwind/pkg/metrics"
)

const (
	gridMargin    = 0.1   // fraction of the span added on each side
	minSpanDeg    = 0.005 // smallest grid extent in degrees
	nearSourceM   = 10.0  // closer than this a source contributes its confidence directly
	knotsToMeters = 1 / geo.MpsToKnots
)

// Fuser interpolates and forecasts wind fields. Apart from the optional
// bounded history it holds no state between calls.
type Fuser struct {
	cfg Config
	log logger.Logger

	mu      sync.Mutex
	history []model.WindField
}

// New creates a Fuser.
func New(opts ...Option) *Fuser {
	f := &Fuser{cfg: DefaultConfig(), log: logger.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config returns the active configuration.
func (f *Fuser) Config() Config { return f.cfg }

type source struct {
	vessel string
	est    model.WindEstimate
}

// Fuse builds a snapshot at ref from the estimate nearest ref of every
// vessel, ignoring estimates further than the time window away.
func (f *Fuser) Fuse(ctx context.Context, ref time.Time, estimates map[string][]model.WindEstimate) (model.WindField, error) {
	srcs := f.nearest(ref, estimates)
	if len(srcs) == 0 {
		f.log.Warn(ctx, "no estimates to fuse", logger.Int("vessels", len(estimates)))
		return model.WindField{}, fmt.Errorf("%w: %d vessels, ref %s", ErrNoEstimates, len(estimates), ref.Format(time.RFC3339))
	}

	var field model.WindField
	if len(srcs) == 1 {
		field = model.Uniform(ref, srcs[0].est)
	} else {
		field = f.interpolate(ref, srcs)
	}

	if f.cfg.UseHistory {
		field = f.blendHistory(field)
	}

	metrics.RecordFieldFused(len(srcs))
	f.log.Debug(ctx, "wind field fused",
		logger.Int("sources", len(srcs)),
		logger.Int("rows", field.Rows),
		logger.Int("cols", field.Cols),
	)
	return field, nil
}

// nearest picks, per vessel, the estimate closest to ref inside the window.
// Vessels are visited in sorted order so the result is deterministic.
func (f *Fuser) nearest(ref time.Time, estimates map[string][]model.WindEstimate) []source {
	ids := make([]string, 0, len(estimates))
	for id := range estimates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []source
	for _, id := range ids {
		best := -1
		bestDt := time.Duration(math.MaxInt64)
		for i, e := range estimates[id] {
			dt := e.Time.Sub(ref)
			if dt < 0 {
				dt = -dt
			}
			if dt <= f.cfg.TimeWindow && dt < bestDt {
				best, bestDt = i, dt
			}
		}
		if best >= 0 {
			out = append(out, source{vessel: id, est: estimates[id][best]})
		}
	}
	return out
}

func (f *Fuser) interpolate(ref time.Time, srcs []source) model.WindField {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, s := range srcs {
		minLat, maxLat = math.Min(minLat, s.est.Lat), math.Max(maxLat, s.est.Lat)
		minLon, maxLon = math.Min(minLon, s.est.Lon), math.Max(maxLon, s.est.Lon)
	}
	minLat, maxLat = expand(minLat, maxLat)
	minLon, maxLon = expand(minLon, maxLon)

	n := f.cfg.GridResolution
	field := model.WindField{
		Time:   ref,
		MinLat: minLat, MaxLat: maxLat,
		MinLon: minLon, MaxLon: maxLon,
		Rows: n, Cols: n,
		Cells:   make([]model.WindCell, n*n),
		Sources: len(srcs),
	}

	weights := make([]float64, n*n)
	meanConf := make([]float64, n*n)
	var maxW float64
	r := f.cfg.InfluenceRadiusM

	for i := 0; i < n; i++ {
		lat := gridCoord(minLat, maxLat, i, n)
		for j := 0; j < n; j++ {
			lon := gridCoord(minLon, maxLon, j, n)
			var sumW, sumU, sumV, sumSpeed, sumConf, sumVar float64
			for _, s := range srcs {
				d := geo.Distance(lat, lon, s.est.Lat, s.est.Lon)
				w := s.est.Confidence
				if d >= nearSourceM {
					k := r / (d + r)
					w *= k * k
				}
				u, v := geo.UV(s.est.Direction)
				sumW += w
				sumU += w * u
				sumV += w * v
				sumSpeed += w * s.est.Speed
				sumConf += w * s.est.Confidence
				sumVar += w * s.est.Variability
			}
			idx := i*n + j
			cell := model.WindCell{Lat: lat, Lon: lon}
			if sumW > 0 {
				cell.Direction = geo.FromUV(sumU, sumV)
				cell.Speed = sumSpeed / sumW
				cell.Variability = sumVar / sumW
				meanConf[idx] = sumConf / sumW
			}
			weights[idx] = sumW
			maxW = math.Max(maxW, sumW)
			field.Cells[idx] = cell
		}
	}

	if maxW > 0 {
		for idx := range field.Cells {
			field.Cells[idx].Confidence = weights[idx] / maxW * meanConf[idx]
		}
	}
	return field
}

// blendHistory mixes the latest retained snapshot into field and records the
// result, evicting the oldest snapshot past MaxHistory.
func (f *Fuser) blendHistory(field model.WindField) model.WindField {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.history) > 0 {
		prev := f.history[len(f.history)-1]
		hw := f.cfg.HistoryWeight
		for i, c := range field.Cells {
			s, ok := prev.At(c.Lat, c.Lon)
			if !ok {
				continue
			}
			if dir, ok := geo.CircularMean([]float64{c.Direction, s.Direction}, []float64{1 - hw, hw}); ok {
				field.Cells[i].Direction = dir
			}
			field.Cells[i].Speed = (1-hw)*c.Speed + hw*s.Speed
			field.Cells[i].Confidence = (1-hw)*c.Confidence + hw*s.Confidence
		}
	}

	f.history = append(f.history, field.Clone())
	if over := len(f.history) - f.cfg.MaxHistory; over > 0 {
		f.history = append([]model.WindField(nil), f.history[over:]...)
	}
	return field
}

// History returns copies of the retained snapshots, oldest first.
func (f *Fuser) History() []model.WindField {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.WindField, len(f.history))
	for i, h := range f.history {
		out[i] = h.Clone()
	}
	return out
}

// Decay returns the confidence multiplier for a forecast horizon h.
func (f *Fuser) Decay(h time.Duration) float64 {
	x := h.Seconds() / f.cfg.DecayHorizon.Seconds()
	if f.cfg.DecayKind == DecayExponential {
		return math.Exp(-f.cfg.DecayRate * x)
	}
	return math.Max(0, 1-f.cfg.DecayRate*x)
}

// Predict advects current along the wind's travel direction to target and
// decays confidence with the horizon.
func (f *Fuser) Predict(ctx context.Context, target time.Time, current model.WindField) (model.WindField, error) {
	if !f.cfg.ForecastEnabled {
		metrics.RecordForecastFailure()
		return model.WindField{}, ErrPredictionUnsupported
	}
	if current.Empty() {
		metrics.RecordForecastFailure()
		return model.WindField{}, fmt.Errorf("%w: empty field", ErrNoEstimates)
	}
	h := target.Sub(current.Time)
	if h < 0 {
		metrics.RecordForecastFailure()
		return model.WindField{}, fmt.Errorf("%w: target %s before %s", ErrInvalidHorizon,
			target.Format(time.RFC3339), current.Time.Format(time.RFC3339))
	}

	out := current.Clone()
	out.Time = target
	out.Predicted = true
	out.Horizon = current.Horizon + h
	decay := f.Decay(h)

	for i, c := range current.Cells {
		// The air arriving at c was upwind of it h ago.
		dist := f.cfg.PropagationFactor * c.Speed * knotsToMeters * h.Seconds()
		lat, lon := geo.Destination(c.Lat, c.Lon, c.Direction, dist)
		s, ok := current.At(lat, lon)
		if !ok {
			continue
		}
		out.Cells[i].Direction = s.Direction
		out.Cells[i].Speed = s.Speed
		out.Cells[i].Variability = s.Variability
		out.Cells[i].Confidence = clamp01(s.Confidence * decay)
	}

	metrics.RecordForecast()
	f.log.Debug(ctx, "wind field predicted",
		logger.Duration("horizon", h),
		logger.Float64("decay", decay),
	)
	return out, nil
}

func expand(lo, hi float64) (float64, float64) {
	span := hi - lo
	lo, hi = lo-span*gridMargin, hi+span*gridMargin
	if hi-lo < minSpanDeg {
		mid := (lo + hi) / 2
		lo, hi = mid-minSpanDeg/2, mid+minSpanDeg/2
	}
	return lo, hi
}

func gridCoord(lo, hi float64, i, n int) float64 {
	if n <= 1 {
		return (lo + hi) / 2
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }
