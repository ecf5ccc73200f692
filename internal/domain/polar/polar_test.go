package polar

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestLookup(t *testing.T) {
	convey.Convey("Given the class table", t, func() {
		p, ok := Lookup("Laser")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(p.UpwindRatio, convey.ShouldEqual, 3.2)

		p, ok = Lookup("catamaran")
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(p.Class, convey.ShouldEqual, DefaultClass)

		convey.So(Classes(), convey.ShouldContain, "nacra17")
		convey.So(len(Classes()), convey.ShouldEqual, 8)
	})
}

func TestProfileGeometry(t *testing.T) {
	convey.Convey("Given the default profile", t, func() {
		p, _ := Lookup(DefaultClass)

		convey.Convey("Optimal angles follow the ratios", func() {
			up, down := p.OptimalAngles(12)
			convey.So(up, convey.ShouldEqual, 45)
			convey.So(down, convey.ShouldEqual, 150)

			n, _ := Lookup("nacra17")
			up, down = n.OptimalAngles(12)
			convey.So(up, convey.ShouldEqual, 44)
			convey.So(down, convey.ShouldAlmostEqual, 150.6, 1e-9)
		})

		convey.Convey("Boat speed is zero head to wind and grows off the wind", func() {
			convey.So(p.BoatSpeed(12, 0), convey.ShouldEqual, 0)
			convey.So(p.BoatSpeed(12, 20), convey.ShouldBeLessThan, p.BoatSpeed(12, 45))
			convey.So(p.BoatSpeed(12, 45), convey.ShouldAlmostEqual, 4, 1e-9)
			convey.So(p.BoatSpeed(12, 90), convey.ShouldAlmostEqual, 8, 1e-9)
			convey.So(p.BoatSpeed(12, -45), convey.ShouldEqual, p.BoatSpeed(12, 45))
			convey.So(p.BoatSpeed(0, 90), convey.ShouldEqual, 0)
		})

		convey.Convey("Upwind VMG beats pinching", func() {
			convey.So(p.VMG(12, 45), convey.ShouldBeGreaterThan, p.VMG(12, 25))
		})

		convey.Convey("Tacking angle narrows with wind", func() {
			convey.So(p.TackingAngle(3), convey.ShouldEqual, 100)
			convey.So(p.TackingAngle(10), convey.ShouldEqual, 92.5)
			convey.So(p.TackingAngle(20), convey.ShouldEqual, 85)
		})

		convey.Convey("Wind speed is inferred from boat speed", func() {
			convey.So(p.WindSpeedFromBoat(2, true), convey.ShouldEqual, 6)
			convey.So(p.WindSpeedFromBoat(2, false), convey.ShouldEqual, 3)
		})
	})
}
