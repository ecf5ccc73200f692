package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestEpoch(t *testing.T) {
	convey.Convey("Given epochs", t, func() {
		ts := time.Date(2024, 6, 1, 10, 0, 0, 500_000_000, time.UTC)
		e := EpochOf(ts)

		convey.Convey("EpochOf keeps sub-second precision", func() {
			convey.So(float64(e), convey.ShouldAlmostEqual, float64(ts.Unix())+0.5, 1e-6)
			convey.So(e.Time().Sub(ts), convey.ShouldBeLessThan, time.Microsecond)
		})

		convey.Convey("Diff against the unknown sentinel is infinite", func() {
			convey.So(math.IsInf(e.Diff(InfEpoch), 1), convey.ShouldBeTrue)
			convey.So(math.IsInf(InfEpoch.Diff(e), 1), convey.ShouldBeTrue)
			convey.So(e.Diff(e.Add(10*time.Second)), convey.ShouldAlmostEqual, 10, 1e-6)
		})

		convey.Convey("Mid and Add keep unknown values unknown", func() {
			convey.So(e.Mid(InfEpoch).IsInf(), convey.ShouldBeTrue)
			convey.So(InfEpoch.Add(time.Minute).IsInf(), convey.ShouldBeTrue)
		})

		convey.Convey("JSON encodes unknown as null", func() {
			b, err := json.Marshal(struct{ T Epoch }{InfEpoch})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{"T":null}`)

			var back struct{ T Epoch }
			convey.So(json.Unmarshal(b, &back), convey.ShouldBeNil)
			convey.So(back.T.IsInf(), convey.ShouldBeTrue)
		})
	})
}

func TestWindFieldAt(t *testing.T) {
	convey.Convey("Given a 2x2 field", t, func() {
		f := WindField{
			MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1,
			Rows: 2, Cols: 2,
			Cells: []WindCell{
				{Lat: 0, Lon: 0, Direction: 10, Speed: 10, Confidence: 0.9},
				{Lat: 0, Lon: 1, Direction: 20, Speed: 10, Confidence: 0.8},
				{Lat: 1, Lon: 0, Direction: 30, Speed: 10, Confidence: 0.7},
				{Lat: 1, Lon: 1, Direction: 40, Speed: 10, Confidence: 0.6, Variability: 0.5},
			},
		}

		convey.Convey("The nearest cell is sampled", func() {
			s, ok := f.At(0.9, 0.1)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s.Direction, convey.ShouldEqual, 30)
			convey.So(s.Confidence, convey.ShouldEqual, 0.7)
			convey.So(s.Variability, convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("Points outside are clamped to the edge", func() {
			s, ok := f.At(5, 5)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s.Direction, convey.ShouldEqual, 40)
			convey.So(s.Variability, convey.ShouldEqual, 0.5)
		})

		convey.Convey("An empty field has no samples", func() {
			_, ok := WindField{}.At(0, 0)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("A uniform field returns the estimate everywhere", func() {
			u := Uniform(time.Unix(0, 0), WindEstimate{Lat: 1, Lon: 1, Direction: 200, Speed: 12, Confidence: 0.8, Variability: 0.1})
			s, ok := u.At(-30, 100)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s.Direction, convey.ShouldEqual, 200)
			convey.So(s.Variability, convey.ShouldEqual, 0.1)
		})
	})
}

func TestTrackHelpers(t *testing.T) {
	convey.Convey("Given a point without course and speed", t, func() {
		p := TrackPoint{Lat: 54, Lon: 10}

		convey.Convey("The fallbacks are returned", func() {
			convey.So(p.CourseOr(90), convey.ShouldEqual, 90)
			convey.So(p.SpeedOr(1.5), convey.ShouldEqual, 1.5)
		})

		convey.Convey("Set values win over the fallbacks", func() {
			p.Course = Ptr(275)
			p.Speed = Ptr(3)
			convey.So(p.CourseOr(90), convey.ShouldEqual, 275)
			convey.So(p.SpeedOr(1.5), convey.ShouldEqual, 3)
		})
	})

	convey.Convey("Given a track", t, func() {
		track := VesselTrack{VesselID: "boat", Points: []TrackPoint{{Lat: 1}, {Lat: 2}}}

		convey.Convey("A clone does not share its points", func() {
			c := track.Clone()
			c.Points[0].Lat = 99
			convey.So(track.Points[0].Lat, convey.ShouldEqual, 1)
			convey.So(c.VesselID, convey.ShouldEqual, "boat")
			convey.So(c.Len(), convey.ShouldEqual, 2)
		})
	})
}
