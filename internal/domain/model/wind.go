package model

import (
	"math"
	"time"
)

// WindEstimate is one inferred wind reading attached to a vessel. Direction
// is where the wind blows from, in degrees. Speed is in knots.
type WindEstimate struct {
	VesselID    string    `json:"vessel_id"`
	Time        time.Time `json:"timestamp"`
	Lat         float64   `json:"latitude"`
	Lon         float64   `json:"longitude"`
	Direction   float64   `json:"direction"`
	Speed       float64   `json:"speed"`
	Confidence  float64   `json:"confidence"`
	Variability float64   `json:"variability"`
}

// WindCell is one node of a gridded wind field.
type WindCell struct {
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
	Direction   float64 `json:"direction"`
	Speed       float64 `json:"speed"`
	Confidence  float64 `json:"confidence"`
	Variability float64 `json:"variability"`
}

// WindField is a gridded wind snapshot. Cells are stored row-major with row 0
// at MinLat and column 0 at MinLon. A predicted field carries the forecast
// horizon it was extrapolated over.
type WindField struct {
	Time      time.Time     `json:"time"`
	Predicted bool          `json:"predicted"`
	Horizon   time.Duration `json:"horizon"`
	MinLat    float64       `json:"min_lat"`
	MaxLat    float64       `json:"max_lat"`
	MinLon    float64       `json:"min_lon"`
	MaxLon    float64       `json:"max_lon"`
	Rows      int           `json:"rows"`
	Cols      int           `json:"cols"`
	Cells     []WindCell    `json:"cells"`
	Sources   int           `json:"sources"`
}

// WindSample is the wind at a queried position.
type WindSample struct {
	Direction   float64 `json:"direction"`
	Speed       float64 `json:"speed"`
	Confidence  float64 `json:"confidence"`
	Variability float64 `json:"variability"`
}

// Empty reports whether the field has no cells.
func (f WindField) Empty() bool { return f.Rows == 0 || f.Cols == 0 || len(f.Cells) < f.Rows*f.Cols }

// Cell returns the cell at row r, column c.
func (f WindField) Cell(r, c int) WindCell { return f.Cells[r*f.Cols+c] }

// Clone returns a copy that shares no cell storage with f.
func (f WindField) Clone() WindField {
	out := f
	out.Cells = append([]WindCell(nil), f.Cells...)
	return out
}

// index maps a coordinate onto the nearest grid row/column, clamping points
// outside the bounding box to the edge.
func (f WindField) index(lat, lon float64) (int, int) {
	r, c := 0, 0
	if f.Rows > 1 && f.MaxLat > f.MinLat {
		r = int(math.Round((lat - f.MinLat) / (f.MaxLat - f.MinLat) * float64(f.Rows-1)))
	}
	if f.Cols > 1 && f.MaxLon > f.MinLon {
		c = int(math.Round((lon - f.MinLon) / (f.MaxLon - f.MinLon) * float64(f.Cols-1)))
	}
	r = max(0, min(f.Rows-1, r))
	c = max(0, min(f.Cols-1, c))
	return r, c
}

// At samples the nearest cell. Variability is the larger of the cell's own
// value and the spread of its 3x3 neighbourhood (0.7 direction + 0.3 speed
// coefficient of variation). ok is false for an empty field.
func (f WindField) At(lat, lon float64) (WindSample, bool) {
	if f.Empty() {
		return WindSample{}, false
	}
	r, c := f.index(lat, lon)
	cell := f.Cell(r, c)

	var s, co, sum, sumSq float64
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			rr, cc := r+dr, c+dc
			if rr < 0 || rr >= f.Rows || cc < 0 || cc >= f.Cols {
				continue
			}
			nb := f.Cell(rr, cc)
			rad := nb.Direction * math.Pi / 180
			s += math.Sin(rad)
			co += math.Cos(rad)
			sum += nb.Speed
			sumSq += nb.Speed * nb.Speed
			n++
		}
	}
	var neigh float64
	if n > 1 {
		dirVar := 1 - math.Hypot(s, co)/float64(n)
		mean := sum / float64(n)
		var cv float64
		if mean > 0 {
			variance := math.Max(0, sumSq/float64(n)-mean*mean)
			cv = math.Sqrt(variance) / mean
		}
		neigh = 0.7*dirVar + 0.3*math.Min(1, cv)
	}

	return WindSample{
		Direction:   cell.Direction,
		Speed:       cell.Speed,
		Confidence:  clamp01(cell.Confidence),
		Variability: clamp01(math.Max(cell.Variability, neigh)),
	}, true
}

// Uniform builds a one-cell field around (lat, lon) carrying a single estimate.
func Uniform(t time.Time, e WindEstimate) WindField {
	return WindField{
		Time:   t,
		MinLat: e.Lat, MaxLat: e.Lat,
		MinLon: e.Lon, MaxLon: e.Lon,
		Rows: 1, Cols: 1,
		Cells: []WindCell{{
			Lat: e.Lat, Lon: e.Lon,
			Direction: e.Direction, Speed: e.Speed,
			Confidence: e.Confidence, Variability: e.Variability,
		}},
		Sources: 1,
	}
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
