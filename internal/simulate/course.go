package simulate

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/polar"
)

const coursePathPoints = 6

// CourseFor lays a windward-leeward course for spec: a beat of distanceM to
// a windward mark straight upwind of the start, then a run back. Path times
// follow the class VMG.
func CourseFor(spec TrackSpec, distanceM float64) model.Course {
	s := spec.withDefaults()
	if distanceM <= 0 {
		distanceM = 1000
	}
	prof, _ := polar.Lookup(s.Class)
	up, down := prof.OptimalAngles(s.WindSpeed)
	upVMG := prof.VMG(s.WindSpeed, up) / geo.MpsToKnots
	downVMG := math.Abs(prof.VMG(s.WindSpeed, down)) / geo.MpsToKnots

	wLat, wLon := geo.Destination(s.Lat, s.Lon, s.WindDirection, distanceM)
	windward := model.Mark{ID: "windward", Lat: wLat, Lon: wLon}
	leeward := model.Mark{ID: "leeward", Lat: s.Lat, Lon: s.Lon}

	beat := legPath(s.Lat, s.Lon, wLat, wLon, s.Start, distanceM, upVMG)
	runStart := s.Start.Add(seconds(distanceM / upVMG))
	run := legPath(wLat, wLon, s.Lat, s.Lon, runStart, distanceM, downVMG)

	return model.Course{
		Name: fmt.Sprintf("windward-leeward %.0fm", distanceM),
		Legs: []model.Leg{
			{Kind: model.Upwind, Path: beat, EndMark: &windward},
			{Kind: model.Downwind, Path: run, EndMark: &leeward},
		},
	}
}

func legPath(lat1, lon1, lat2, lon2 float64, start time.Time, dist, vmg float64) []model.PathPoint {
	bearing := geo.Bearing(lat1, lon1, lat2, lon2)
	out := make([]model.PathPoint, coursePathPoints)
	for i := range out {
		d := dist * float64(i) / float64(coursePathPoints-1)
		lat, lon := geo.Destination(lat1, lon1, bearing, d)
		out[i] = model.PathPoint{Lat: lat, Lon: lon, Time: start.Add(seconds(d / vmg)).UTC()}
	}
	return out
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// EncodeCourse renders a course as YAML.
func EncodeCourse(c model.Course) ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}
	return out, nil
}

// DecodeCourse parses a YAML course. Path times may be timestamps, epoch
// seconds or any other time-like value the detector accepts.
func DecodeCourse(b []byte) (model.Course, error) {
	var c model.Course
	if err := yaml.Unmarshal(b, &c); err != nil {
		return model.Course{}, fmt.Errorf("decode course: %w", err)
	}
	if len(c.Legs) == 0 {
		return model.Course{}, fmt.Errorf("decode course: no legs")
	}
	return c, nil
}
