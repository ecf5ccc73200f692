package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sailwind/internal/domain/model"
	scoring "github.com/okian/sailwind/internal/domain/scoring"
)

func TestShift(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := scoring.New()

		Convey("Then shift magnitude sets the level", func() {
			So(s.Shift(model.WindShiftPoint{ShiftAngle: 25}).Value, ShouldEqual, 0.9)
			So(s.Shift(model.WindShiftPoint{ShiftAngle: -15}).Value, ShouldEqual, 0.7)
			So(s.Shift(model.WindShiftPoint{ShiftAngle: 8}).Value, ShouldEqual, 0.5)
			So(s.Shift(model.WindShiftPoint{ShiftAngle: 10}).Value, ShouldEqual, 0.5)
		})

		Convey("Then a speed change adds the bump capped at one", func() {
			So(s.Shift(model.WindShiftPoint{ShiftAngle: 15, SpeedChange: 6}).Value, ShouldAlmostEqual, 0.8, 1e-9)
			So(s.Shift(model.WindShiftPoint{ShiftAngle: 25, SpeedChange: -7}).Value, ShouldAlmostEqual, 1.0, 1e-9)
			So(s.Shift(model.WindShiftPoint{ShiftAngle: 25, SpeedChange: 5}).Value, ShouldEqual, 0.9)
		})

		Convey("Then every score has a note", func() {
			sc := s.Shift(model.WindShiftPoint{ShiftAngle: -12, SpeedChange: 6})
			So(sc.Note, ShouldContainSubstring, "back")
			So(sc.Note, ShouldContainSubstring, "wind speed")
		})
	})

	Convey("Given custom constants", t, func() {
		s := scoring.New(scoring.WithConfig(scoring.Config{Base: 0.4, SpeedChangeBump: 0.2}))

		Convey("Then they replace the defaults and zero fields keep theirs", func() {
			So(s.Config().Base, ShouldEqual, 0.4)
			So(s.Config().SpeedChangeThreshold, ShouldEqual, 5)
			So(s.Shift(model.WindShiftPoint{ShiftAngle: 3, SpeedChange: 9}).Value, ShouldAlmostEqual, 0.6, 1e-9)
		})
	})
}

func TestTack(t *testing.T) {
	Convey("Given a tack opportunity", t, func() {
		s := scoring.New()
		p := model.TackPoint{VMGGain: 0.12, FromSide: model.Port, ToSide: model.Starboard}

		Convey("When the wind is shifty", func() {
			sc := s.Tack(p, scoring.Conditions{Confidence: 0.8, Variability: 0.45})
			So(sc.Value, ShouldEqual, 0.8)
			So(sc.Note, ShouldContainSubstring, "shifty")
		})

		Convey("When the wind data is unreliable", func() {
			sc := s.Tack(p, scoring.Conditions{Confidence: 0.2, Variability: 0.45})
			So(sc.Value, ShouldEqual, 0.3)
			So(sc.Note, ShouldStartWith, "caution")
		})

		Convey("When conditions are ordinary", func() {
			sc := s.Tack(p, scoring.Conditions{Confidence: 0.7, Variability: 0.1})
			So(sc.Value, ShouldEqual, 0.5)
			So(sc.Note, ShouldContainSubstring, "starboard")
		})
	})
}

func TestLayline(t *testing.T) {
	Convey("Given layline points", t, func() {
		s := scoring.New()
		tight := model.LaylinePoint{MarkID: "windward", Side: model.Port, SafetyMargin: 5, Confidence: 0.9, MarkDistance: 300}
		loose := tight
		loose.SafetyMargin = 20

		Convey("Then scores stay in range and favour tighter margins", func() {
			a, b := s.Layline(tight), s.Layline(loose)
			So(a.Value, ShouldBeBetweenOrEqual, 0, 1)
			So(a.Value, ShouldBeGreaterThan, b.Value)
			So(a.Note, ShouldContainSubstring, "windward")
		})
	})
}
