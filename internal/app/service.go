// Package service wires ingest, estimation, fusion and strategy detection
// into one analysis pipeline and implements the dependencies required by the
// HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/sailwind/internal/adapters/ingest"
	"github.com/okian/sailwind/internal/adapters/repository"
	"github.com/okian/sailwind/internal/config"
	"github.com/okian/sailwind/internal/domain/estimator"
	"github.com/okian/sailwind/internal/domain/fusion"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/polar"
	"github.com/okian/sailwind/internal/domain/scoring"
	"github.com/okian/sailwind/internal/domain/strategy"
	"github.com/okian/sailwind/pkg/logger"
	"github.com/okian/sailwind/pkg/memguard"
	"github.com/okian/sailwind/pkg/metrics"
)

// maxDerivedPathPoints bounds the legs built from sailed tracks.
const maxDerivedPathPoints = 60

// Service runs analyses and keeps the recent ones.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	loader    *ingest.Loader
	estimator *estimator.Estimator
	scorer    *scoring.Scorer
	store     repository.Store[Analysis]
	guard     *memguard.Guard
	validate  *validator.Validate
	newID     func() string

	// State
	started   bool
	cancel    context.CancelFunc
	done      chan struct{}
	analyses  int
	lastTook  time.Duration
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service. Components are built from the configuration
// (config.New defaults unless WithConfig is given).
func New(opts ...Option) *Service {
	s := &Service{
		cfg:      config.New(),
		logger:   logger.Nop(),
		validate: validator.New(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.guard == nil {
		s.guard = memguard.New(
			memguard.WithThreshold(s.cfg.Memory.ThresholdBytes),
			memguard.WithInterval(s.cfg.Memory.CheckInterval),
			memguard.WithLogger(s.logger.Named("memguard")),
		)
	}
	if s.store == nil {
		s.store = repository.NewRunStore[Analysis](repository.WithCapacity(s.cfg.Runs.Capacity))
	}

	in := s.cfg.Ingest
	s.loader = ingest.New(
		ingest.WithConfig(ingest.Config{
			Parallel:            in.Parallel,
			Workers:             in.Workers,
			MaxFiles:            in.MaxFiles,
			MinPoints:           in.MinPoints,
			DownsampleThreshold: in.DownsampleThreshold,
			DownsampleRatio:     in.DownsampleRatio,
			ChunkSize:           in.ChunkSize,
			GCEveryChunks:       in.GCEveryChunks,
			// Inflated uploads get the same cap as request bodies.
			MaxDecompressedBytes: s.cfg.MaxBodyBytes,
		}),
		ingest.WithLogger(s.logger.Named("ingest")),
		ingest.WithGuard(s.guard),
	)
	s.estimator = estimator.New(estimator.WithLogger(s.logger.Named("estimator")))

	sc := s.cfg.Scoring
	s.scorer = scoring.New(scoring.WithConfig(scoring.Config{
		Base:                 sc.Base,
		HighVariability:      sc.HighVariability,
		LowConfidence:        sc.LowConfidence,
		SpeedChangeBump:      sc.SpeedChangeBump,
		SpeedChangeThreshold: sc.SpeedChangeThreshold,
	}))
	return s
}

// Start launches the memory guard loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting analysis service...")

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.guard.Run(runCtx)
	}()

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "analysis service started",
		logger.Int("ingestWorkers", s.cfg.Ingest.Workers),
		logger.Int("runCapacity", s.cfg.Runs.Capacity),
	)
	return nil
}

// Stop halts the memory guard loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping analysis service...")
	s.cancel()
	<-s.done

	s.started = false
	s.logger.Info(context.Background(), "analysis service stopped")
}

// Analyze runs the full pipeline over req and stores the result. Files and
// vessels that cannot contribute are reported in the analysis, not as errors.
func (s *Service) Analyze(ctx context.Context, req Request) (Analysis, error) {
	start := time.Now()
	if err := s.validate.Struct(req); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	vesselType := req.VesselType
	if vesselType == "" {
		vesselType = s.cfg.Estimator.VesselType
	}
	profile, known := polar.Lookup(vesselType)

	a := Analysis{
		ID:         s.newID(),
		VesselType: profile.Class,
		Strategy: strategy.Result{
			WindShifts: []model.WindShiftPoint{},
			Tacks:      []model.TackPoint{},
			Laylines:   []model.LaylinePoint{},
		},
	}
	if !known {
		a.Warnings = append(a.Warnings, fmt.Sprintf("unknown vessel type %q, using %s profile", vesselType, profile.Class))
	}

	// Ingest.
	loaded := s.loader.Load(ctx, req.Sources)
	a.Skipped = loaded.Skipped
	a.Warnings = append(a.Warnings, loaded.Warnings...)
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}

	// Estimate.
	estimates, err := s.estimate(ctx, loaded, vesselType, &a)
	if err != nil {
		return Analysis{}, err
	}

	// Fuse and detect.
	ref := latest(estimates)
	if req.ReferenceTime != nil {
		ref = req.ReferenceTime.UTC()
	}
	a.ReferenceTime = ref

	fuser := fusion.New(fusion.WithConfig(s.fusionConfig()), fusion.WithLogger(s.logger.Named("fusion")))
	field, err := fuser.Fuse(ctx, ref, estimates)
	switch {
	case errors.Is(err, fusion.ErrNoEstimates):
		a.Warnings = append(a.Warnings, err.Error())
	case err != nil:
		return Analysis{}, err
	default:
		a.Field = &field

		course := s.course(req, loaded)
		opts := []strategy.Option{
			strategy.WithConfig(s.strategyConfig()),
			strategy.WithVMGModel(profile),
			strategy.WithScorer(s.scorer),
			strategy.WithLogger(s.logger.Named("strategy")),
		}
		if s.cfg.Fusion.ForecastEnabled {
			opts = append(opts, strategy.WithForecaster(fuser))
		}
		var callOpts []strategy.CallOption
		if req.ShiftThreshold != nil {
			callOpts = append(callOpts, strategy.WithShiftThreshold(*req.ShiftThreshold))
		}
		if req.MinShiftAngle != nil {
			callOpts = append(callOpts, strategy.WithMinShiftAngle(*req.MinShiftAngle))
		}
		a.Strategy = strategy.NewDetector(opts...).Detect(ctx, course, field, callOpts...)
		a.Warnings = append(a.Warnings, a.Strategy.Warnings...)
	}

	took := time.Since(start)
	a.TookMs = took.Milliseconds()
	if err := s.store.Put(ctx, a.ID, a); err != nil {
		return Analysis{}, err
	}
	if rec, err := s.store.Get(ctx, a.ID); err == nil {
		a.CreatedAt = rec.CreatedAt
	}

	s.mu.Lock()
	s.analyses++
	s.lastTook = took
	s.mu.Unlock()

	metrics.RecordAnalysis()
	s.logger.Info(ctx, "analysis complete",
		logger.String("id", a.ID),
		logger.Int("vessels", len(a.Vessels)),
		logger.Int("skipped", len(a.Skipped)),
		logger.Int("wind_shifts", len(a.Strategy.WindShifts)),
		logger.Int("tacks", len(a.Strategy.Tacks)),
		logger.Int("laylines", len(a.Strategy.Laylines)),
		logger.Duration("took", took),
	)
	return a, nil
}

// estimate runs the estimator for each loaded vessel in load order.
func (s *Service) estimate(ctx context.Context, loaded ingest.Result, vesselType string, a *Analysis) (map[string][]model.WindEstimate, error) {
	ec := s.cfg.Estimator
	opts := estimator.Options{
		TackAngle:      ec.TackAngle,
		VesselType:     vesselType,
		UseSmoothing:   ec.UseSmoothing,
		SmoothingAlpha: ec.SmoothingAlpha,
		MinPoints:      ec.MinPoints,
		ChunkSize:      ec.ChunkSize,
		MinWindow:      ec.MinWindow,
	}

	out := make(map[string][]model.WindEstimate, len(loaded.Order))
	a.Vessels = make([]VesselReport, 0, len(loaded.Order))
	for _, id := range loaded.Order {
		track := loaded.Tracks[id]
		report := VesselReport{Summary: ingest.Summarize(track), Estimates: []model.WindEstimate{}}

		res, err := s.estimator.Estimate(ctx, track, opts)
		switch {
		case errors.Is(err, estimator.ErrInsufficientPoints):
			report.Condition = "insufficient_points"
			a.Warnings = append(a.Warnings, err.Error())
		case errors.Is(err, estimator.ErrNoTacks):
			report.Condition = "no_tacks"
			a.Warnings = append(a.Warnings, err.Error())
		case err != nil:
			return nil, err
		default:
			report.Estimates = res.Estimates
			report.Maneuvers = len(res.Maneuvers)
			out[id] = res.Estimates
		}
		a.Vessels = append(a.Vessels, report)
	}
	return out, nil
}

// course returns the requested course, or one leg per vessel following the
// sailed track.
func (s *Service) course(req Request, loaded ingest.Result) model.Course {
	if req.Course != nil {
		return *req.Course
	}
	c := model.Course{Name: "sailed tracks"}
	for _, id := range loaded.Order {
		pts := loaded.Tracks[id].Points
		if len(pts) < 2 {
			continue
		}
		stride := max(1, (len(pts)+maxDerivedPathPoints-1)/maxDerivedPathPoints)
		leg := model.Leg{Kind: model.Reach}
		for i := 0; i < len(pts); i += stride {
			p := pts[i]
			leg.Path = append(leg.Path, model.PathPoint{Lat: p.Lat, Lon: p.Lon, Time: p.Time, Heading: p.Course})
		}
		c.Legs = append(c.Legs, leg)
	}
	return c
}

func (s *Service) fusionConfig() fusion.Config {
	f := s.cfg.Fusion
	return fusion.Config{
		GridResolution:    f.GridResolution,
		TimeWindow:        f.TimeWindow,
		InfluenceRadiusM:  f.InfluenceRadiusM,
		ForecastEnabled:   f.ForecastEnabled,
		DecayKind:         f.DecayKind,
		DecayRate:         f.DecayRate,
		DecayHorizon:      f.DecayHorizon,
		PropagationFactor: f.PropagationFactor,
		UseHistory:        f.UseHistory,
		MaxHistory:        f.MaxHistory,
		HistoryWeight:     f.HistoryWeight,
	}
}

func (s *Service) strategyConfig() strategy.Config {
	c := s.cfg.Strategy
	return strategy.Config{
		MinShiftAngle:            c.MinShiftAngle,
		MaxReferenceAngle:        c.MaxReferenceAngle,
		AngleBlendBase:           c.AngleBlendBase,
		AngleBlendWeight:         c.AngleBlendWeight,
		ShiftConfidenceThreshold: c.ShiftConfidenceThreshold,
		Horizon:                  c.Horizon,
		Step:                     c.Step,
		DecayRate:                c.DecayRate,
		TackSearchRadiusM:        c.TackSearchRadiusM,
		MinVMGImprovement:        c.MinVMGImprovement,
		TackEfficiency:           c.TackEfficiency,
		MinMarkDistanceM:         c.MinMarkDistanceM,
	}
}

// latest returns the newest estimate time, or the current time when there
// are no estimates.
func latest(estimates map[string][]model.WindEstimate) time.Time {
	var t time.Time
	for _, ests := range estimates {
		for _, e := range ests {
			if e.Time.After(t) {
				t = e.Time
			}
		}
	}
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// Analysis returns a stored analysis.
func (s *Service) Analysis(ctx context.Context, id string) (Analysis, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return Analysis{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Analysis{}, err
	}
	a := rec.Value
	a.CreatedAt = rec.CreatedAt
	return a, nil
}

// Recent returns up to n stored analyses, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]Analysis, error) {
	recs, err := s.store.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]Analysis, len(recs))
	for i, r := range recs {
		out[i] = r.Value
		out[i].CreatedAt = r.CreatedAt
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stored := s.store.Count(ctx)
	stats := map[string]interface{}{
		"started":        s.started,
		"analyses":       s.analyses,
		"storedRuns":     stored,
		"runCapacity":    s.cfg.Runs.Capacity,
		"ingestWorkers":  s.cfg.Ingest.Workers,
		"lastAnalysisMs": s.lastTook.Milliseconds(),
		"memReclaims":    s.guard.Reclaims(),
		"vesselTypes":    polar.Classes(),
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}

	metrics.UpdateStoredRuns(stored)
	return stats
}
