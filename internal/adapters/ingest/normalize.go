package ingest

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/pkg/metrics"
)

// sortByTime orders points by time, keeping file order for equal times.
func sortByTime(points []model.TrackPoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
}

// downsample keeps every stride-th point so that roughly ratio of the points
// survive. Tracks at or below threshold are returned unchanged.
func downsample(points []model.TrackPoint, threshold int, ratio float64) ([]model.TrackPoint, bool) {
	if threshold <= 0 || len(points) <= threshold {
		return points, false
	}
	target := max(2, int(float64(len(points))*ratio))
	stride := int(math.Ceil(float64(len(points)) / float64(target)))
	if stride < 2 {
		return points, false
	}
	out := make([]model.TrackPoint, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	return out, true
}

// normalize tags points with the vessel id and derives missing speed and
// course from the previous point. Work proceeds in fixed-size chunks, each
// copied out of the input, with the last point carried across the boundary;
// the memory guard is consulted every GCEveryChunks chunks.
func (l *Loader) normalize(ctx context.Context, vessel string, points []model.TrackPoint) []model.TrackPoint {
	out := make([]model.TrackPoint, 0, len(points))
	var prev *model.TrackPoint
	chunks := 0
	for start := 0; start < len(points); start += l.cfg.ChunkSize {
		end := min(start+l.cfg.ChunkSize, len(points))
		chunk := append([]model.TrackPoint(nil), points[start:end]...)
		for i := range chunk {
			chunk[i].VesselID = vessel
			derive(prev, &chunk[i])
			prev = &chunk[i]
		}
		out = append(out, chunk...)
		chunks++
		metrics.RecordChunk()
		if l.guard != nil && l.cfg.GCEveryChunks > 0 && chunks%l.cfg.GCEveryChunks == 0 {
			l.guard.Check(ctx)
		}
	}
	// The first fix has no predecessor; borrow from the second.
	if len(out) > 1 {
		if out[0].Speed == nil && out[1].Speed != nil {
			out[0].Speed = model.Ptr(*out[1].Speed)
		}
		if out[0].Course == nil && out[1].Course != nil {
			out[0].Course = model.Ptr(*out[1].Course)
		}
	}
	return out
}

func derive(prev, cur *model.TrackPoint) {
	if prev == nil {
		return
	}
	dist := geo.Distance(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
	if cur.Speed == nil {
		if dt := cur.Time.Sub(prev.Time).Seconds(); dt > 0 {
			cur.Speed = model.Ptr(dist / dt)
		}
	}
	if cur.Course == nil && dist > 0 {
		cur.Course = model.Ptr(geo.Bearing(prev.Lat, prev.Lon, cur.Lat, cur.Lon))
	}
}

// Summary describes a loaded track.
type Summary struct {
	VesselID   string        `json:"vessel_id"`
	Points     int           `json:"points"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Duration   time.Duration `json:"duration"`
	AvgSpeedKn float64       `json:"avg_speed_kn"`
	MaxSpeedKn float64       `json:"max_speed_kn"`
	DistanceM  float64       `json:"distance_m"`
}

// Summarize computes duration, speed and distance statistics.
func Summarize(t model.VesselTrack) Summary {
	s := Summary{VesselID: t.VesselID, Points: len(t.Points)}
	if len(t.Points) == 0 {
		return s
	}
	s.Start = t.Points[0].Time
	s.End = t.Points[len(t.Points)-1].Time
	s.Duration = s.End.Sub(s.Start)

	var sum float64
	n := 0
	for i, p := range t.Points {
		if i > 0 {
			q := t.Points[i-1]
			s.DistanceM += geo.Distance(q.Lat, q.Lon, p.Lat, p.Lon)
		}
		if p.Speed != nil {
			kn := *p.Speed * geo.MpsToKnots
			sum += kn
			n++
			s.MaxSpeedKn = max(s.MaxSpeedKn, kn)
		}
	}
	if n > 0 {
		s.AvgSpeedKn = sum / float64(n)
	}
	return s
}
