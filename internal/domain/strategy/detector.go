// Package strategy finds wind shifts, tack opportunities and laylines along
// a course by scanning it against the current wind field and, when a
// forecaster is configured, against predicted fields out to a horizon.
//
// A Detect call walks the stages IDLE, SCAN_CURRENT, SCAN_PREDICTED (once per
// forecast step), MERGE, FILTER_THRESHOLD and DONE. The detector keeps no
// state between calls besides its configuration.
package strategy

import (
	"context"
	"sort"
	"time"

	"github.com/okian/sailwind/internal/domain/dedupe"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/scoring"
	"github.com/okian/sailwind/pkg/logger"
	"github.com/okian/sailwind/pkg/metrics"
)

// VMGModel provides boat performance for tack and layline detection.
// Implementations may also provide BaseLaylineMargin() float64.
type VMGModel interface {
	// BoatSpeed returns boat speed in knots at true wind speed tws and angle twa.
	BoatSpeed(tws, twa float64) float64
	// TackingAngle returns the angle turned through when tacking at tws.
	TackingAngle(tws float64) float64
}

// Forecaster predicts a wind field at a later time.
type Forecaster interface {
	Predict(ctx context.Context, target time.Time, current model.WindField) (model.WindField, error)
}

// Stage names a detection pass.
type Stage string

// Detection stages in order.
const (
	StageIdle            Stage = "IDLE"
	StageScanCurrent     Stage = "SCAN_CURRENT"
	StageScanPredicted   Stage = "SCAN_PREDICTED"
	StageMerge           Stage = "MERGE"
	StageFilterThreshold Stage = "FILTER_THRESHOLD"
	StageDone            Stage = "DONE"
)

// Detection variants, used as metric labels.
const (
	variantShift   = "wind_shift"
	variantTack    = "tack"
	variantLayline = "layline"
)

const defaultLaylineMargin = 5.0

// Result holds the three deduplicated detection lists, each sorted by time.
type Result struct {
	WindShifts []model.WindShiftPoint `json:"wind_shifts"`
	Tacks      []model.TackPoint      `json:"tacks"`
	Laylines   []model.LaylinePoint   `json:"laylines"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// Detector finds strategic points.
type Detector struct {
	cfg        Config
	vmg        VMGModel
	forecaster Forecaster
	scorer     *scoring.Scorer
	log        logger.Logger
}

// NewDetector creates a Detector. Without WithVMGModel only wind shifts are
// detected; without WithForecaster only the current field is scanned.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		cfg:    DefaultConfig(),
		scorer: scoring.New(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// forecast is one predicted field and its horizon from the current field.
type forecast struct {
	horizon time.Duration
	field   model.WindField
}

// Detect scans course against field. It never fails: missing capabilities
// and forecast errors are reported in Result.Warnings.
func (d *Detector) Detect(ctx context.Context, course model.Course, field model.WindField, callOpts ...CallOption) Result {
	start := time.Now()
	cfg := d.cfg
	for _, opt := range callOpts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	res := Result{
		WindShifts: []model.WindShiftPoint{},
		Tacks:      []model.TackPoint{},
		Laylines:   []model.LaylinePoint{},
	}
	d.stage(ctx, StageIdle)

	if field.Empty() {
		res.Warnings = append(res.Warnings, "empty wind field, nothing to detect")
		d.stage(ctx, StageDone)
		return res
	}

	paths := make([][]pathPoint, len(course.Legs))
	for i, leg := range course.Legs {
		paths[i] = resolvePath(leg.Path)
	}

	d.stage(ctx, StageScanCurrent)
	var shifts []model.WindShiftPoint
	for i, pts := range paths {
		shifts = append(shifts, d.scanShifts(cfg, i, pts, field, 0)...)
	}
	metrics.RecordDetections(variantShift, "current", len(shifts))

	forecasts := d.predict(ctx, cfg, field, &res)
	for _, fc := range forecasts {
		d.stage(ctx, StageScanPredicted, logger.Duration("horizon", fc.horizon))
		n := len(shifts)
		for i, pts := range paths {
			shifts = append(shifts, d.scanShifts(cfg, i, pts, fc.field, fc.horizon)...)
		}
		metrics.RecordDetections(variantShift, "predicted", len(shifts)-n)
	}

	var tacks []model.TackPoint
	var laylines []model.LaylinePoint
	if d.vmg == nil {
		res.Warnings = append(res.Warnings, ErrNoVMGModel.Error())
		d.log.Warn(ctx, "tack and layline detection skipped", logger.Error(ErrNoVMGModel))
	} else {
		for i, leg := range course.Legs {
			tacks = append(tacks, d.scanTacks(cfg, i, leg, paths[i], field)...)
			laylines = append(laylines, d.scanLaylines(cfg, i, leg, paths[i], field, forecasts)...)
		}
		metrics.RecordDetections(variantTack, "current", len(tacks))
		metrics.RecordDetections(variantLayline, "current", len(laylines))
	}

	d.stage(ctx, StageMerge)
	res.WindShifts = merge(shifts, dedupe.WindShifts, variantShift)
	res.Tacks = merge(tacks, dedupe.Tacks, variantTack)
	res.Laylines = merge(laylines, dedupe.Laylines, variantLayline)

	d.stage(ctx, StageFilterThreshold)
	kept := res.WindShifts[:0]
	for _, s := range res.WindShifts {
		if s.Probability >= cfg.ShiftConfidenceThreshold {
			kept = append(kept, s)
		}
	}
	metrics.RecordThresholdDrops(len(res.WindShifts) - len(kept))
	res.WindShifts = kept

	sortByTime(res.WindShifts, func(p model.WindShiftPoint) model.Epoch { return p.TimeEstimate })
	sortByTime(res.Tacks, func(p model.TackPoint) model.Epoch { return p.TimeEstimate })
	sortByTime(res.Laylines, func(p model.LaylinePoint) model.Epoch { return p.TimeEstimate })

	d.stage(ctx, StageDone,
		logger.Int("wind_shifts", len(res.WindShifts)),
		logger.Int("tacks", len(res.Tacks)),
		logger.Int("laylines", len(res.Laylines)),
	)
	metrics.RecordDetectionLatency(time.Since(start))
	return res
}

// predict builds the forecast fields at every step out to the horizon. The
// first failure stops the scan and is reported as a warning.
func (d *Detector) predict(ctx context.Context, cfg Config, field model.WindField, res *Result) []forecast {
	if d.forecaster == nil || cfg.Horizon <= 0 {
		return nil
	}
	var out []forecast
	for t := cfg.Step; t <= cfg.Horizon; t += cfg.Step {
		f, err := d.forecaster.Predict(ctx, field.Time.Add(t), field)
		if err != nil {
			res.Warnings = append(res.Warnings, "forecast scan stopped: "+err.Error())
			d.log.Warn(ctx, "forecast failed", logger.Duration("horizon", t), logger.Error(err))
			break
		}
		out = append(out, forecast{horizon: t, field: f})
	}
	return out
}

// decay is the probability multiplier for a detection at horizon h.
func decay(cfg Config, h time.Duration) float64 {
	if h <= 0 || cfg.Horizon <= 0 {
		return 1
	}
	return max(0, 1-(h.Seconds()/cfg.Horizon.Seconds())*cfg.DecayRate)
}

func (d *Detector) stage(ctx context.Context, s Stage, fields ...logger.Field) {
	d.log.Debug(ctx, "detector stage", append([]logger.Field{logger.String("stage", string(s))}, fields...)...)
}

func merge[T any](items []T, filter func([]T) []T, variant string) []T {
	out := filter(items)
	metrics.RecordDuplicatesDropped(variant, len(items)-len(out))
	if out == nil {
		out = []T{}
	}
	return out
}

func sortByTime[T any](items []T, at func(T) model.Epoch) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]) < at(items[j]) })
}
