package estimator

import (
	"math"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
)

// maxSmoothedConfidence caps confidence after blending.
const maxSmoothedConfidence = 0.95

// Smooth blends every estimate with its smoothed predecessor. The prior is
// weighted by its confidence and the new reading by alpha times its own.
// It returns a new slice and leaves in untouched.
func Smooth(in []model.WindEstimate, alpha float64) []model.WindEstimate {
	out := make([]model.WindEstimate, len(in))
	copy(out, in)
	for i := 1; i < len(out); i++ {
		prior, cur := out[i-1], in[i]
		wp := prior.Confidence
		wc := cur.Confidence * alpha
		if wp+wc <= 0 {
			continue
		}
		if dir, ok := geo.CircularMean([]float64{prior.Direction, cur.Direction}, []float64{wp, wc}); ok {
			out[i].Direction = dir
		}
		out[i].Speed = (prior.Speed*wp + cur.Speed*wc) / (wp + wc)
		out[i].Confidence = math.Min(maxSmoothedConfidence, (prior.Confidence+alpha*cur.Confidence)/(1+alpha))
		out[i].Variability = (prior.Variability + alpha*cur.Variability) / (1 + alpha)
	}
	return out
}
