package fusion

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
)

var ref = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func est(lat, lon, dir, conf float64, at time.Time) model.WindEstimate {
	return model.WindEstimate{Time: at, Lat: lat, Lon: lon, Direction: dir, Speed: 12, Confidence: conf, Variability: 0.1}
}

func TestFuse(t *testing.T) {
	convey.Convey("Given a fuser with defaults", t, func() {
		ctx := context.Background()
		f := New()

		convey.Convey("When there are no estimates", func() {
			_, err := f.Fuse(ctx, ref, nil)
			convey.So(errors.Is(err, ErrNoEstimates), convey.ShouldBeTrue)
		})

		convey.Convey("When every estimate is outside the time window", func() {
			_, err := f.Fuse(ctx, ref, map[string][]model.WindEstimate{
				"a": {est(43.5, 16.4, 0, 0.8, ref.Add(-2*time.Hour))},
			})
			convey.So(errors.Is(err, ErrNoEstimates), convey.ShouldBeTrue)
		})

		convey.Convey("When a single vessel reports", func() {
			field, err := f.Fuse(ctx, ref, map[string][]model.WindEstimate{
				"a": {
					est(43.5, 16.4, 90, 0.6, ref.Add(-20*time.Minute)),
					est(43.5, 16.4, 100, 0.8, ref.Add(-time.Minute)),
				},
			})

			convey.Convey("Then the field is uniform from the nearest estimate", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(field.Sources, convey.ShouldEqual, 1)
				s, ok := field.At(44, 17)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(s.Direction, convey.ShouldEqual, 100)
				convey.So(s.Confidence, convey.ShouldEqual, 0.8)
			})
		})

		convey.Convey("When two vessels disagree across north", func() {
			field, err := f.Fuse(ctx, ref, map[string][]model.WindEstimate{
				"a": {est(43.50, 16.40, 350, 0.8, ref)},
				"b": {est(43.51, 16.41, 10, 0.8, ref)},
			})

			convey.Convey("Then the grid spans the fleet with a margin", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(field.Rows, convey.ShouldEqual, 20)
				convey.So(field.MinLat, convey.ShouldBeLessThan, 43.50)
				convey.So(field.MaxLat, convey.ShouldBeGreaterThan, 43.51)
			})

			convey.Convey("Then directions interpolate through north", func() {
				mid, _ := field.At(43.505, 16.405)
				convey.So(geo.AbsDiff(mid.Direction, 0), convey.ShouldBeLessThan, 2)
				nearA, _ := field.At(43.50, 16.40)
				convey.So(geo.AbsDiff(nearA.Direction, 350), convey.ShouldBeLessThan, 5)
			})

			convey.Convey("Then confidences stay in range", func() {
				for _, c := range field.Cells {
					convey.So(c.Confidence, convey.ShouldBeBetweenOrEqual, 0, 1)
				}
			})
		})
	})
}

func TestPredict(t *testing.T) {
	convey.Convey("Given a uniform current field", t, func() {
		ctx := context.Background()
		current := model.Uniform(ref, est(43.5, 16.4, 180, 0.8, ref))

		convey.Convey("When forecasting is disabled", func() {
			cfg := DefaultConfig()
			cfg.ForecastEnabled = false
			_, err := New(WithConfig(cfg)).Predict(ctx, ref.Add(time.Minute), current)
			convey.So(errors.Is(err, ErrPredictionUnsupported), convey.ShouldBeTrue)
		})

		convey.Convey("When the target precedes the field", func() {
			_, err := New().Predict(ctx, ref.Add(-time.Minute), current)
			convey.So(errors.Is(err, ErrInvalidHorizon), convey.ShouldBeTrue)
		})

		convey.Convey("When predicting with linear decay", func() {
			f := New()
			p, err := f.Predict(ctx, ref.Add(30*time.Minute), current)

			convey.Convey("Then confidence is scaled by 1 - rate at the full horizon", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Predicted, convey.ShouldBeTrue)
				convey.So(p.Horizon, convey.ShouldEqual, 30*time.Minute)
				convey.So(p.Cells[0].Confidence, convey.ShouldAlmostEqual, 0.4, 1e-9)
				convey.So(current.Cells[0].Confidence, convey.ShouldEqual, 0.8)
			})

			convey.Convey("Then confidence never increases with the horizon", func() {
				prev := 1.0
				for step := 0; step <= 12; step++ {
					p, err := f.Predict(ctx, ref.Add(time.Duration(step)*5*time.Minute), current)
					convey.So(err, convey.ShouldBeNil)
					convey.So(p.Cells[0].Confidence, convey.ShouldBeLessThanOrEqualTo, prev)
					convey.So(p.Cells[0].Confidence, convey.ShouldBeGreaterThanOrEqualTo, 0)
					prev = p.Cells[0].Confidence
				}
			})
		})

		convey.Convey("When predicting with exponential decay", func() {
			cfg := DefaultConfig()
			cfg.DecayKind = DecayExponential
			p, err := New(WithConfig(cfg)).Predict(ctx, ref.Add(30*time.Minute), current)
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Cells[0].Confidence, convey.ShouldAlmostEqual, 0.8*math.Exp(-0.5), 1e-9)
		})
	})
}

func TestHistory(t *testing.T) {
	convey.Convey("Given a fuser with bounded history", t, func() {
		ctx := context.Background()
		cfg := DefaultConfig()
		cfg.UseHistory = true
		cfg.MaxHistory = 2
		cfg.HistoryWeight = 0.5
		f := New(WithConfig(cfg))

		for i, dir := range []float64{0, 40, 80} {
			at := ref.Add(time.Duration(i) * time.Minute)
			_, err := f.Fuse(ctx, at, map[string][]model.WindEstimate{"a": {est(43.5, 16.4, dir, 0.8, at)}})
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("Then only MaxHistory snapshots are kept", func() {
			h := f.History()
			convey.So(len(h), convey.ShouldEqual, 2)
			convey.So(h[1].Time, convey.ShouldEqual, ref.Add(2*time.Minute))
		})

		convey.Convey("Then new snapshots lean toward the previous one", func() {
			h := f.History()
			convey.So(h[0].Cells[0].Direction, convey.ShouldAlmostEqual, 20, 1e-6)
			convey.So(h[1].Cells[0].Direction, convey.ShouldAlmostEqual, 50, 1e-6)
		})

		convey.Convey("Then History returns copies", func() {
			h := f.History()
			h[0].Cells[0].Direction = 999
			convey.So(f.History()[0].Cells[0].Direction, convey.ShouldNotEqual, 999)
		})
	})

	convey.Convey("Given a fuser without history", t, func() {
		f := New()
		_, _ = f.Fuse(context.Background(), ref, map[string][]model.WindEstimate{"a": {est(43.5, 16.4, 0, 0.8, ref)}})
		convey.So(f.History(), convey.ShouldBeEmpty)
	})
}
