package geo

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDistanceAndBearing(t *testing.T) {
	Convey("Given two nearby points", t, func() {
		Convey("The scenario pair is about 15.7 m apart", func() {
			d := Distance(1.000, 1.000, 1.0001, 1.0001)
			So(d, ShouldBeBetween, 15, 16.5)
		})

		Convey("One degree of latitude is about 111 km", func() {
			So(Distance(0, 0, 1, 0), ShouldAlmostEqual, 111195, 5)
		})

		Convey("Due north and due east bearings", func() {
			So(Bearing(0, 0, 1, 0), ShouldAlmostEqual, 0, 1e-9)
			So(Bearing(0, 0, 0, 1), ShouldAlmostEqual, 90, 1e-9)
			So(Bearing(0, 0, -1, 0), ShouldAlmostEqual, 180, 1e-9)
		})

		Convey("Destination inverts distance and bearing", func() {
			lat, lon := Destination(43.5, 16.4, 47, 1200)
			So(Distance(43.5, 16.4, lat, lon), ShouldAlmostEqual, 1200, 0.01)
			So(Bearing(43.5, 16.4, lat, lon), ShouldAlmostEqual, 47, 0.01)
		})
	})
}

func TestAngles(t *testing.T) {
	Convey("Given compass angles", t, func() {
		So(Normalize(-10), ShouldEqual, 350)
		So(Normalize(720), ShouldEqual, 0)
		So(Diff(350, 10), ShouldAlmostEqual, 20, 1e-9)
		So(Diff(10, 350), ShouldAlmostEqual, -20, 1e-9)
		So(AbsDiff(0, 180), ShouldEqual, 180)
		So(Bisector(350, 30), ShouldAlmostEqual, 10, 1e-9)
		So(Bisector(45, 315), ShouldAlmostEqual, 0, 1e-9)

		Convey("Circular mean wraps through north", func() {
			m, ok := CircularMean([]float64{350, 10}, nil)
			So(ok, ShouldBeTrue)
			So(math.Min(m, 360-m), ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Opposite angles have no mean", func() {
			_, ok := CircularMean([]float64{0, 180}, nil)
			So(ok, ShouldBeFalse)
		})

		Convey("Weights pull the mean", func() {
			m, ok := CircularMean([]float64{0, 90}, []float64{3, 1})
			So(ok, ShouldBeTrue)
			So(m, ShouldBeLessThan, 45)
		})

		Convey("Variance is 0 for identical and 1 for opposite angles", func() {
			So(CircularVariance([]float64{42, 42, 42}), ShouldAlmostEqual, 0, 1e-9)
			So(CircularVariance([]float64{0, 180}), ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("UV round-trips", func() {
			u, v := UV(225)
			So(FromUV(u, v), ShouldAlmostEqual, 225, 1e-9)
		})
	})
}
