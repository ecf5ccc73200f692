// Package ingest loads raw GPS track files into per-vessel point sequences.
//
// Formats are declared by the caller: delimited text (csv) and GPX. Gzip and
// zstd content is inflated first. A batch never fails as a whole; files that
// cannot be read are listed in Result.Skipped.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/sailwind/internal/adapters/mq/queue"
	"github.com/okian/sailwind/internal/adapters/mq/worker"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/pkg/logger"
	"github.com/okian/sailwind/pkg/metrics"
)

// Skip reasons.
const (
	ReasonLimit          = "limit"
	ReasonInvalid        = "invalid"
	ReasonNotSupported   = "not_supported"
	ReasonMissingColumns = "missing_columns"
	ReasonNoValidPoints  = "no_valid_points"
	ReasonDecode         = "decode"
	ReasonCancelled      = "cancelled"
	ReasonParse          = "parse"
)

// Skipped is a source excluded from a batch.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
	Err    error  `json:"-"`
}

// Result is the outcome of a batch load. Order lists vessel ids in input order.
type Result struct {
	Tracks   map[string]model.VesselTrack `json:"-"`
	Order    []string                     `json:"order"`
	Skipped  []Skipped                    `json:"skipped,omitempty"`
	Warnings []string                     `json:"warnings,omitempty"`
}

// File is one parsed source.
type File struct {
	Track    model.VesselTrack
	Warnings []string
}

// Loader parses track files.
type Loader struct {
	cfg      Config
	log      logger.Logger
	guard    Checker
	validate *validator.Validate
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		cfg:      DefaultConfig(),
		log:      logger.Nop(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the active configuration.
func (l *Loader) Config() Config { return l.cfg }

// ParseFile parses one source into a normalized track.
func (l *Loader) ParseFile(ctx context.Context, src model.TrackSource) (File, error) {
	start := time.Now()
	if err := l.validate.Struct(src); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	content, name, err := decompress(src.Name, src.Content, l.cfg.MaxDecompressedBytes)
	if err != nil {
		return File{}, err
	}

	var (
		points  []model.TrackPoint
		dropped int
	)
	switch model.Format(strings.ToLower(strings.TrimSpace(string(src.Format)))) {
	case model.FormatCSV:
		text, derr := decodeText(content)
		if derr != nil {
			return File{}, derr
		}
		points, dropped, err = parseCSV(text)
	case model.FormatGPX:
		points, dropped, err = parseGPX(content)
	default:
		return File{}, fmt.Errorf("%w: %q", ErrNotSupported, src.Format)
	}
	if err != nil {
		return File{}, err
	}
	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	var f File
	if dropped > 0 {
		f.Warnings = append(f.Warnings, fmt.Sprintf("%s: dropped %d unreadable rows", src.Name, dropped))
	}
	if len(points) < l.cfg.MinPoints {
		return File{}, fmt.Errorf("%w: %d usable of %d required", ErrNoValidPoints, len(points), l.cfg.MinPoints)
	}

	vessel := src.VesselID
	if vessel == "" {
		vessel = stem(name)
	}

	sortByTime(points)
	before := len(points)
	points, downsampled := downsample(points, l.cfg.DownsampleThreshold, l.cfg.DownsampleRatio)
	if downsampled {
		metrics.RecordDownsample()
		f.Warnings = append(f.Warnings, fmt.Sprintf("%s: downsampled from %d to %d points", src.Name, before, len(points)))
	}

	f.Track = model.VesselTrack{
		VesselID:    vessel,
		Source:      src.Name,
		Points:      l.normalize(ctx, vessel, points),
		Downsampled: downsampled,
	}

	metrics.RecordFileLoaded(len(f.Track.Points))
	metrics.RecordLoadLatency(time.Since(start))
	l.log.Debug(ctx, "file loaded",
		logger.String("file", src.Name),
		logger.String("vessel_id", vessel),
		logger.Int("points", len(f.Track.Points)),
		logger.Bool("downsampled", downsampled),
	)
	return f, nil
}

// Process implements worker.Processor.
func (l *Loader) Process(ctx context.Context, job model.IngestJob) model.IngestOutcome {
	f, err := l.ParseFile(ctx, job.Source)
	return model.IngestOutcome{Job: job, Track: f.Track, Warnings: f.Warnings, Err: err}
}

// Load parses a batch. Files run on the worker pool when parallel loading
// is enabled; the merge into the result happens afterwards on the calling
// goroutine in input order, so vessel ids and suffixes are deterministic.
func (l *Loader) Load(ctx context.Context, sources []model.TrackSource) Result {
	start := time.Now()
	res := Result{Tracks: make(map[string]model.VesselTrack, len(sources))}

	batch, over := sources, []model.TrackSource(nil)
	if l.cfg.MaxFiles > 0 && len(batch) > l.cfg.MaxFiles {
		batch, over = sources[:l.cfg.MaxFiles], sources[l.cfg.MaxFiles:]
	}

	outcomes := make([]model.IngestOutcome, len(batch))
	if l.cfg.Parallel && l.cfg.Workers > 1 && len(batch) > 1 {
		l.runPool(ctx, batch, outcomes)
	} else {
		for i, src := range batch {
			outcomes[i] = l.Process(ctx, model.IngestJob{Index: i, Source: src})
		}
	}

	// Join.
	used := make(map[string]int, len(batch))
	for i, o := range outcomes {
		name := batch[i].Name
		if o.Err != nil {
			l.skip(ctx, &res, name, reason(o.Err), o.Err)
			continue
		}
		res.Warnings = append(res.Warnings, o.Warnings...)
		id := uniqueID(used, o.Track.VesselID)
		track := o.Track
		if id != track.VesselID {
			track = withVessel(track, id)
		}
		res.Tracks[id] = track
		res.Order = append(res.Order, id)
	}
	for _, src := range over {
		l.skip(ctx, &res, src.Name, ReasonLimit, fmt.Errorf("batch limit of %d files reached", l.cfg.MaxFiles))
	}

	l.log.Info(ctx, "batch loaded",
		logger.Int("files", len(sources)),
		logger.Int("vessels", len(res.Order)),
		logger.Int("skipped", len(res.Skipped)),
		logger.Duration("took", time.Since(start)),
	)
	return res
}

// runPool fans the batch out over the worker pool and waits for every
// outcome. Each job writes only its own slot.
func (l *Loader) runPool(ctx context.Context, batch []model.TrackSource, outcomes []model.IngestOutcome) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(batch)))
	delivered := make([]bool, len(batch))
	for i, src := range batch {
		if err := q.Enqueue(ctx, model.IngestJob{Index: i, Source: src}); err != nil {
			outcomes[i] = model.IngestOutcome{Err: err}
			delivered[i] = true
		}
	}
	_ = q.Close()

	sink := &slotSink{outcomes: outcomes, delivered: delivered}
	pool := worker.NewPool(min(l.cfg.Workers, len(batch)), q, l, sink, worker.WithPoolLogger(l.log))
	pool.Start(ctx)
	pool.Wait()

	for i, ok := range sink.delivered {
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = errors.New("job not processed")
			}
			outcomes[i] = model.IngestOutcome{Err: err}
		}
	}
}

type slotSink struct {
	mu        sync.Mutex
	outcomes  []model.IngestOutcome
	delivered []bool
}

func (s *slotSink) Deliver(_ context.Context, o model.IngestOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[o.Job.Index] = o
	s.delivered[o.Job.Index] = true
}

func (l *Loader) skip(ctx context.Context, res *Result, name, why string, err error) {
	res.Skipped = append(res.Skipped, Skipped{Name: name, Reason: why, Error: err.Error(), Err: err})
	res.Warnings = append(res.Warnings, fmt.Sprintf("%s skipped (%s): %v", name, why, err))
	metrics.RecordFileSkipped(why)
	l.log.Warn(ctx, "file skipped",
		logger.String("file", name),
		logger.String("reason", why),
		logger.Error(err),
	)
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSource):
		return ReasonInvalid
	case errors.Is(err, ErrNotSupported):
		return ReasonNotSupported
	case errors.Is(err, ErrMissingColumns):
		return ReasonMissingColumns
	case errors.Is(err, ErrNoValidPoints):
		return ReasonNoValidPoints
	case errors.Is(err, ErrDecode):
		return ReasonDecode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	default:
		return ReasonParse
	}
}

// uniqueID returns id, or id with the next free _N suffix when taken.
func uniqueID(used map[string]int, id string) string {
	if _, taken := used[id]; !taken {
		used[id] = 1
		return id
	}
	for n := used[id] + 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", id, n)
		if _, taken := used[candidate]; !taken {
			used[id] = n
			used[candidate] = 1
			return candidate
		}
	}
}

func withVessel(t model.VesselTrack, id string) model.VesselTrack {
	t.VesselID = id
	for i := range t.Points {
		t.Points[i].VesselID = id
	}
	return t
}

func stem(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return "vessel"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
