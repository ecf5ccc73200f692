package simulate

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/sailwind/internal/domain/model"
)

var csvHeader = []string{"timestamp", "latitude", "longitude", "speed", "course"}

// EncodeCSV writes a track as comma-separated text with speed in m/s.
func EncodeCSV(t model.VesselTrack) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	rec := make([]string, len(csvHeader))
	for _, p := range t.Points {
		rec[0] = p.Time.UTC().Format(time.RFC3339Nano)
		rec[1] = strconv.FormatFloat(p.Lat, 'f', 7, 64)
		rec[2] = strconv.FormatFloat(p.Lon, 'f', 7, 64)
		rec[3] = optional(p.Speed, 4)
		rec[4] = optional(p.Course, 3)
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

func optional(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

type gpxOut struct {
	XMLName xml.Name    `xml:"gpx"`
	Version string      `xml:"version,attr"`
	Creator string      `xml:"creator,attr"`
	NS      string      `xml:"xmlns,attr"`
	Track   gpxOutTrack `xml:"trk"`
}

type gpxOutTrack struct {
	Name    string        `xml:"name"`
	Segment []gpxOutPoint `xml:"trkseg>trkpt"`
}

type gpxOutPoint struct {
	Lat    string `xml:"lat,attr"`
	Lon    string `xml:"lon,attr"`
	Time   string `xml:"time"`
	Speed  string `xml:"speed,omitempty"`
	Course string `xml:"course,omitempty"`
}

// EncodeGPX writes a track as a GPX 1.1 document with one segment.
func EncodeGPX(t model.VesselTrack) ([]byte, error) {
	doc := gpxOut{
		Version: "1.1",
		Creator: "sailwind-simulate",
		NS:      "http://www.topografix.com/GPX/1/1",
		Track:   gpxOutTrack{Name: t.VesselID},
	}
	doc.Track.Segment = make([]gpxOutPoint, len(t.Points))
	for i, p := range t.Points {
		doc.Track.Segment[i] = gpxOutPoint{
			Lat:    strconv.FormatFloat(p.Lat, 'f', 7, 64),
			Lon:    strconv.FormatFloat(p.Lon, 'f', 7, 64),
			Time:   p.Time.UTC().Format(time.RFC3339Nano),
			Speed:  optional(p.Speed, 4),
			Course: optional(p.Course, 3),
		}
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
