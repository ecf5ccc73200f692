package strategy

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sailwind/internal/domain/model"
)

func TestShiftDecay(t *testing.T) {
	Convey("Given the same shift scanned at every forecast step", t, func() {
		d := NewDetector()
		cfg := d.Config()
		field := model.WindField{
			MinLat: 43.5, MaxLat: 43.5, MinLon: 16.40, MaxLon: 16.42, Rows: 1, Cols: 2,
			Cells: []model.WindCell{
				{Lat: 43.5, Lon: 16.40, Direction: 350, Speed: 10, Confidence: 0.95, Variability: 0.02},
				{Lat: 43.5, Lon: 16.42, Direction: 30, Speed: 16, Confidence: 0.95, Variability: 0.02},
			},
		}
		pts := []pathPoint{{lat: 43.5, lon: 16.40}, {lat: 43.5, lon: 16.42}}

		var probs []float64
		for h := time.Duration(0); h <= cfg.Horizon; h += cfg.Step {
			out := d.scanShifts(cfg, 0, pts, field, h)
			So(len(out), ShouldEqual, 1)
			probs = append(probs, out[0].Probability)
		}

		Convey("Then probability stays in range and never increases", func() {
			for i, p := range probs {
				So(p, ShouldBeBetweenOrEqual, 0, 1)
				if i > 0 {
					So(p, ShouldBeLessThanOrEqualTo, probs[i-1])
				}
			}
			So(probs[len(probs)-1], ShouldAlmostEqual, probs[0]*(1-cfg.DecayRate), 1e-12)
		})

		Convey("Then a large speed change bumps the score", func() {
			out := d.scanShifts(cfg, 0, pts, field, 0)
			So(out[0].ShiftAngle, ShouldAlmostEqual, 40, 1e-9)
			So(out[0].Score, ShouldAlmostEqual, 1.0, 1e-9)
		})
	})

	Convey("decay clamps at zero past the horizon", t, func() {
		cfg := DefaultConfig()
		cfg.DecayRate = 1
		So(decay(cfg, 0), ShouldEqual, 1)
		So(decay(cfg, cfg.Horizon), ShouldEqual, 0)
		So(decay(cfg, 2*cfg.Horizon), ShouldEqual, 0)
	})
}

func TestSides(t *testing.T) {
	Convey("Tack sides follow the wind over the bow", t, func() {
		So(sideOf(0, 315), ShouldEqual, model.Starboard)
		So(sideOf(0, 45), ShouldEqual, model.Port)
		So(closeHauled(0, 45, model.Starboard), ShouldEqual, 315)
		So(closeHauled(0, 45, model.Port), ShouldEqual, 45)
		So(opposite(model.Port), ShouldEqual, model.Starboard)
	})
}
