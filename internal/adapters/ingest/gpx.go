package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/timenorm"
)

type gpxDoc struct {
	Tracks []gpxTrack `xml:"trk"`
	Routes []gpxRoute `xml:"rte"`
}

type gpxTrack struct {
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxRoute struct {
	Points []gpxPoint `xml:"rtept"`
}

// gpxPoint keeps every value as text so one malformed field drops a point,
// not the document.
type gpxPoint struct {
	Lat        string        `xml:"lat,attr"`
	Lon        string        `xml:"lon,attr"`
	Elevation  string        `xml:"ele"`
	Time       string        `xml:"time"`
	Speed      string        `xml:"speed"`
	Course     string        `xml:"course"`
	Extensions gpxExtensions `xml:"extensions"`
}

type gpxExtensions struct {
	Speed  string `xml:"speed"`
	Course string `xml:"course"`
	TPX    struct {
		HeartRate   string `xml:"hr"`
		Cadence     string `xml:"cad"`
		Temperature string `xml:"atemp"`
		Speed       string `xml:"speed"`
		Course      string `xml:"course"`
	} `xml:"TrackPointExtension"`
}

// parseGPX reads track and route points. Points without a parsable time or
// position are dropped and counted.
func parseGPX(content []byte) (points []model.TrackPoint, dropped int, err error) {
	var doc gpxDoc
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("%w: gpx: %v", ErrDecode, err)
	}

	add := func(gp gpxPoint) {
		if p, ok := gpxTrackPoint(gp); ok {
			points = append(points, p)
		} else {
			dropped++
		}
	}
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, gp := range seg.Points {
				add(gp)
			}
		}
	}
	for _, rte := range doc.Routes {
		for _, gp := range rte.Points {
			add(gp)
		}
	}
	return points, dropped, nil
}

func gpxTrackPoint(gp gpxPoint) (model.TrackPoint, bool) {
	lat, lon := parseNumber(gp.Lat), parseNumber(gp.Lon)
	if lat == nil || lon == nil {
		return model.TrackPoint{}, false
	}
	at, ok := timenorm.ParseTime(gp.Time)
	if !ok {
		return model.TrackPoint{}, false
	}
	ext := gp.Extensions
	p := model.TrackPoint{
		Time:        at,
		Lat:         *lat,
		Lon:         *lon,
		Elevation:   parseNumber(gp.Elevation),
		Speed:       firstNumber(gp.Speed, ext.Speed, ext.TPX.Speed),
		Course:      firstNumber(gp.Course, ext.Course, ext.TPX.Course),
		HeartRate:   parseNumber(ext.TPX.HeartRate),
		Cadence:     parseNumber(ext.TPX.Cadence),
		Temperature: parseNumber(ext.TPX.Temperature),
	}
	return p, p.ValidPosition()
}

func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return model.Ptr(f)
}

func firstNumber(vals ...string) *float64 {
	for _, v := range vals {
		if f := parseNumber(v); f != nil {
			return f
		}
	}
	return nil
}
