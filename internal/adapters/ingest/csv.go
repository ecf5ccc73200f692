package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/timenorm"
)

// Logical column names.
const (
	colTime        = "timestamp"
	colLat         = "latitude"
	colLon         = "longitude"
	colElevation   = "elevation"
	colSpeed       = "speed"
	colCourse      = "course"
	colHeartRate   = "heart_rate"
	colCadence     = "cadence"
	colPower       = "power"
	colDistance    = "distance"
	colTemperature = "temperature"
)

var columnAliases = map[string]string{
	"timestamp": colTime, "time": colTime, "datetime": colTime, "date_time": colTime,
	"latitude": colLat, "lat": colLat,
	"longitude": colLon, "lon": colLon, "lng": colLon, "long": colLon,
	"elevation": colElevation, "altitude": colElevation, "ele": colElevation,
	"speed": colSpeed, "sog": colSpeed,
	"course": colCourse, "cog": colCourse, "bearing": colCourse, "heading": colCourse,
	"heart_rate": colHeartRate, "heartrate": colHeartRate, "hr": colHeartRate,
	"cadence": colCadence, "cad": colCadence,
	"power":       colPower,
	"distance":    colDistance,
	"temperature": colTemperature, "temp": colTemperature, "atemp": colTemperature,
}

var requiredColumns = []string{colTime, colLat, colLon}

// sniffDelimiter picks the most frequent of comma, semicolon and tab in the
// header line.
func sniffDelimiter(header string) rune {
	best, bestN := ',', strings.Count(header, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(header, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// parseCSV reads delimited text. Rows with an unparsable time or position
// are dropped and counted.
func parseCSV(text string) (points []model.TrackPoint, dropped int, err error) {
	header, _, _ := strings.Cut(text, "\n")
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(header)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.ReuseRecord = true

	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: empty file", ErrMissingColumns)
		}
		return nil, 0, fmt.Errorf("%w: header: %v", ErrDecode, err)
	}
	cols := make(map[string]int, len(head))
	for i, h := range head {
		name := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := columnAliases[name]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				dropped++
				continue
			}
			return nil, dropped, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		p, ok := csvPoint(rec, cols)
		if !ok {
			dropped++
			continue
		}
		points = append(points, p)
	}
	return points, dropped, nil
}

func csvPoint(rec []string, cols map[string]int) (model.TrackPoint, bool) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		v := strings.TrimSpace(rec[i])
		return v, v != ""
	}
	number := func(name string) *float64 {
		v, ok := field(name)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return model.Ptr(f)
	}

	ts, ok := field(colTime)
	if !ok {
		return model.TrackPoint{}, false
	}
	at, ok := timenorm.ParseTime(ts)
	if !ok {
		return model.TrackPoint{}, false
	}
	lat, lon := number(colLat), number(colLon)
	if lat == nil || lon == nil {
		return model.TrackPoint{}, false
	}
	p := model.TrackPoint{
		Time:        at.UTC(),
		Lat:         *lat,
		Lon:         *lon,
		Elevation:   number(colElevation),
		Speed:       number(colSpeed),
		Course:      number(colCourse),
		HeartRate:   number(colHeartRate),
		Cadence:     number(colCadence),
		Power:       number(colPower),
		Distance:    number(colDistance),
		Temperature: number(colTemperature),
	}
	return p, p.ValidPosition()
}
