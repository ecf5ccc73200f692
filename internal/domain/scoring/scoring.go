// Package scoring rates detected maneuvers and wind shifts on a 0..1 scale
// and pairs each rating with a short rationale.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/sailwind/internal/domain/model"
)

// Fixed score levels.
const (
	shiftLarge         = 0.9
	shiftMedium        = 0.7
	shiftLargeAngle    = 20.0
	shiftMediumAngle   = 10.0
	tackFavourable     = 0.8
	tackUnreliable     = 0.3
	maxScore           = 1.0
	laylineMinScore    = 0.1
	laylineConfWeight  = 0.8
	laylineMarginBonus = 0.2
)

// Score is a rating and its rationale.
type Score struct {
	Value float64
	Note  string
}

// Conditions describes the wind at the position being scored.
type Conditions struct {
	Confidence  float64
	Variability float64
}

// Scorer computes strategic scores.
type Scorer struct {
	cfg Config
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the active constants.
func (s *Scorer) Config() Config { return s.cfg }

// Shift scores a wind shift by its magnitude, with a bump when the wind
// speed changes noticeably at the same time.
func (s *Scorer) Shift(p model.WindShiftPoint) Score {
	angle := math.Abs(p.ShiftAngle)
	dir := "veer"
	if p.ShiftAngle < 0 {
		dir = "back"
	}

	var sc Score
	switch {
	case angle > shiftLargeAngle:
		sc = Score{Value: shiftLarge, Note: fmt.Sprintf("major %.0f° %s, reposition early", angle, dir)}
	case angle > shiftMediumAngle:
		sc = Score{Value: shiftMedium, Note: fmt.Sprintf("moderate %.0f° %s, worth playing", angle, dir)}
	default:
		sc = Score{Value: s.cfg.Base, Note: fmt.Sprintf("minor %.0f° %s", angle, dir)}
	}

	if math.Abs(p.SpeedChange) > s.cfg.SpeedChangeThreshold {
		sc.Value = math.Min(maxScore, sc.Value+s.cfg.SpeedChangeBump)
		sc.Note += fmt.Sprintf("; wind speed %+.1f kn", p.SpeedChange)
	}
	return sc
}

// Tack scores a tack opportunity against the wind conditions around it.
func (s *Scorer) Tack(p model.TackPoint, c Conditions) Score {
	switch {
	case c.Confidence < s.cfg.LowConfidence:
		return Score{
			Value: tackUnreliable,
			Note:  fmt.Sprintf("caution: wind data unreliable (confidence %.2f), verify before tacking", c.Confidence),
		}
	case c.Variability > s.cfg.HighVariability:
		return Score{
			Value: tackFavourable,
			Note:  fmt.Sprintf("shifty wind (variability %.2f) favours tacking onto %s, VMG %+.0f%%", c.Variability, p.ToSide, p.VMGGain*100),
		}
	default:
		return Score{
			Value: s.cfg.Base,
			Note:  fmt.Sprintf("tack onto %s for VMG %+.0f%%", p.ToSide, p.VMGGain*100),
		}
	}
}

// Layline scores a layline by its confidence and how tight the margin is.
func (s *Scorer) Layline(p model.LaylinePoint) Score {
	v := laylineConfWeight * p.Confidence
	if p.SafetyMargin > 0 {
		v += laylineMarginBonus * math.Min(1, 5/p.SafetyMargin)
	}
	v = math.Max(laylineMinScore, math.Min(maxScore, v))
	return Score{
		Value: v,
		Note: fmt.Sprintf("%s layline to %s, %.0f m out, margin %.1f°",
			p.Side, p.MarkID, p.MarkDistance, p.SafetyMargin),
	}
}
