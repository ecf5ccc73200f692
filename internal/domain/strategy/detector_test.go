package strategy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sailwind/internal/domain/fusion"
	"github.com/okian/sailwind/internal/domain/geo"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/internal/domain/polar"
	"github.com/okian/sailwind/internal/domain/strategy"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// twoCellField has wind from 0° in the west cell and from east° in the east cell.
func twoCellField(at time.Time, east float64) model.WindField {
	return model.WindField{
		Time:   at,
		MinLat: 43.5, MaxLat: 43.5,
		MinLon: 16.40, MaxLon: 16.42,
		Rows: 1, Cols: 2,
		Cells: []model.WindCell{
			{Lat: 43.5, Lon: 16.40, Direction: 0, Speed: 12, Confidence: 0.9, Variability: 0.05},
			{Lat: 43.5, Lon: 16.42, Direction: east, Speed: 12, Confidence: 0.9, Variability: 0.05},
		},
		Sources: 2,
	}
}

func crossingCourse() model.Course {
	return model.Course{
		Name: "crossing",
		Legs: []model.Leg{{
			Kind: model.Reach,
			Path: []model.PathPoint{
				{Lat: 43.5, Lon: 16.40, Time: t0},
				{Lat: 43.5, Lon: 16.42, Time: t0.Add(2 * time.Minute)},
			},
		}},
	}
}

type stubForecaster struct {
	field func(h time.Duration) model.WindField
	err   error
}

func (s stubForecaster) Predict(_ context.Context, target time.Time, current model.WindField) (model.WindField, error) {
	if s.err != nil {
		return model.WindField{}, s.err
	}
	f := s.field(target.Sub(current.Time))
	f.Time = target
	f.Predicted = true
	return f, nil
}

// expectedShift is the undecayed probability of the 20° shift in twoCellField.
func expectedShift() float64 {
	raw := 0.9 * (1 - 0.05)
	return raw * (0.5 + 0.5*(20.0/30.0))
}

func TestWindShifts(t *testing.T) {
	ctx := context.Background()

	Convey("Given a field with a 20° shift across the course", t, func() {
		field := twoCellField(t0, 20)

		Convey("When scanning the current field only", func() {
			res := strategy.NewDetector().Detect(ctx, crossingCourse(), field)

			Convey("Then one shift is found at the midpoint", func() {
				So(len(res.WindShifts), ShouldEqual, 1)
				s := res.WindShifts[0]
				So(s.ShiftAngle, ShouldAlmostEqual, 20, 1e-9)
				So(s.Lat, ShouldAlmostEqual, 43.5, 1e-9)
				So(s.Lon, ShouldAlmostEqual, 16.41, 1e-9)
				So(s.TimeEstimate, ShouldEqual, model.EpochOf(t0.Add(time.Minute)))
				So(s.Probability, ShouldAlmostEqual, expectedShift(), 1e-9)
				So(s.Score, ShouldEqual, 0.7)
				So(s.Note, ShouldNotBeEmpty)
			})

			Convey("Then the missing VMG model is a warning, not a failure", func() {
				So(res.Tacks, ShouldBeEmpty)
				So(res.Laylines, ShouldBeEmpty)
				So(res.Warnings, ShouldContain, strategy.ErrNoVMGModel.Error())
			})
		})

		Convey("When forecasts repeat the same field", func() {
			d := strategy.NewDetector(strategy.WithForecaster(stubForecaster{
				field: func(time.Duration) model.WindField { return twoCellField(t0, 20) },
			}))
			res := d.Detect(ctx, crossingCourse(), field)

			Convey("Then forecast copies merge into the current detection", func() {
				So(len(res.WindShifts), ShouldEqual, 1)
				So(res.WindShifts[0].Horizon, ShouldEqual, time.Duration(0))
				So(res.WindShifts[0].Probability, ShouldAlmostEqual, expectedShift(), 1e-9)
			})
		})

		Convey("When the threshold is raised for one call", func() {
			d := strategy.NewDetector()
			res := d.Detect(ctx, crossingCourse(), field, strategy.WithShiftThreshold(0.8))

			Convey("Then the shift is filtered and the detector config is unchanged", func() {
				So(res.WindShifts, ShouldBeEmpty)
				So(d.Config().ShiftConfidenceThreshold, ShouldEqual, 0.3)
			})
		})

		Convey("When the minimum shift angle exceeds the shift", func() {
			res := strategy.NewDetector().Detect(ctx, crossingCourse(), field, strategy.WithMinShiftAngle(25))
			So(res.WindShifts, ShouldBeEmpty)
		})
	})

	Convey("Given a shift that only appears at the full horizon", t, func() {
		d := strategy.NewDetector(strategy.WithForecaster(stubForecaster{
			field: func(h time.Duration) model.WindField {
				if h == 30*time.Minute {
					return twoCellField(t0, 20)
				}
				return twoCellField(t0, 0)
			},
		}))
		res := d.Detect(ctx, crossingCourse(), twoCellField(t0, 0))

		Convey("Then its probability is raw times one minus the decay rate", func() {
			So(len(res.WindShifts), ShouldEqual, 1)
			So(res.WindShifts[0].Horizon, ShouldEqual, 30*time.Minute)
			So(res.WindShifts[0].Probability, ShouldAlmostEqual, expectedShift()*(1-0.5), 1e-12)
		})

		Convey("When one call shortens the horizon", func() {
			short := d.Detect(ctx, crossingCourse(), twoCellField(t0, 0), strategy.WithHorizon(20*time.Minute, 10*time.Minute))

			Convey("Then the late shift is out of reach and the detector keeps its horizon", func() {
				So(short.WindShifts, ShouldBeEmpty)
				So(d.Config().Horizon, ShouldEqual, 30*time.Minute)
				So(d.Config().Step, ShouldEqual, 5*time.Minute)
			})
		})

		Convey("When one call lowers the decay rate", func() {
			slow := d.Detect(ctx, crossingCourse(), twoCellField(t0, 0), strategy.WithDecayRate(0.2))

			Convey("Then the shift decays less and the detector keeps its rate", func() {
				So(len(slow.WindShifts), ShouldEqual, 1)
				So(slow.WindShifts[0].Probability, ShouldAlmostEqual, expectedShift()*(1-0.2), 1e-12)
				So(d.Config().DecayRate, ShouldEqual, 0.5)
			})
		})
	})

	Convey("Given a course with a single point", t, func() {
		course := model.Course{Legs: []model.Leg{{Path: []model.PathPoint{{Lat: 43.5, Lon: 16.40}}}}}
		res := strategy.NewDetector().Detect(ctx, course, twoCellField(t0, 40))

		Convey("Then no shifts are detected", func() {
			So(res.WindShifts, ShouldBeEmpty)
		})
	})

	Convey("Given a forecaster that fails", t, func() {
		d := strategy.NewDetector(strategy.WithForecaster(stubForecaster{err: errors.New("no forecast")}))
		res := d.Detect(ctx, crossingCourse(), twoCellField(t0, 20))

		Convey("Then current detections survive and the failure is a warning", func() {
			So(len(res.WindShifts), ShouldEqual, 1)
			found := false
			for _, w := range res.Warnings {
				if w == "forecast scan stopped: no forecast" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given an empty field", t, func() {
		res := strategy.NewDetector().Detect(ctx, crossingCourse(), model.WindField{})
		So(res.WindShifts, ShouldBeEmpty)
		So(res.Warnings, ShouldNotBeEmpty)
	})
}

func uniform(dir, conf, variability float64) model.WindField {
	return model.Uniform(t0, model.WindEstimate{
		Lat: 43.5, Lon: 16.4, Direction: dir, Speed: 12, Confidence: conf, Variability: variability,
	})
}

func TestTacks(t *testing.T) {
	Convey("Given a boat on starboard with the mark far to the right of the wind", t, func() {
		profile, _ := polar.Lookup("default")
		d := strategy.NewDetector(strategy.WithVMGModel(profile))

		markLat, markLon := geo.Destination(43.5, 16.4, 40, 2000)
		nextLat, nextLon := geo.Destination(43.5, 16.4, 315, 600)
		heading := 315.0
		course := model.Course{Legs: []model.Leg{{
			Kind:    model.Upwind,
			EndMark: &model.Mark{ID: "windward", Lat: markLat, Lon: markLon},
			Path: []model.PathPoint{
				{Lat: 43.5, Lon: 16.4, Time: t0, Heading: &heading},
				{Lat: nextLat, Lon: nextLon, Time: t0.Add(5 * time.Minute), Heading: &heading},
			},
		}}}

		res := d.Detect(context.Background(), course, uniform(0, 0.9, 0.1))

		Convey("Then tacking onto port is recommended", func() {
			So(len(res.Tacks), ShouldBeGreaterThanOrEqualTo, 1)
			tp := res.Tacks[0]
			So(tp.FromSide, ShouldEqual, model.Starboard)
			So(tp.ToSide, ShouldEqual, model.Port)
			So(tp.VMGGain, ShouldBeGreaterThan, 0.05)
			So(tp.Score, ShouldEqual, 0.5)
			So(tp.Note, ShouldContainSubstring, "port")
			So(float64(tp.TimeEstimate), ShouldBeBetweenOrEqual, float64(model.EpochOf(t0)), float64(model.EpochOf(t0.Add(5*time.Minute))))
		})

		Convey("Then no VMG warning is raised", func() {
			So(res.Warnings, ShouldNotContain, strategy.ErrNoVMGModel.Error())
		})
	})
}

func TestLaylines(t *testing.T) {
	Convey("Given points on the starboard layline to a windward mark", t, func() {
		profile, _ := polar.Lookup("default")
		d := strategy.NewDetector(strategy.WithVMGModel(profile))

		// margin = 5 * 1.3 (12 kn) * 1.2 (0.9 confidence) * 1.5 (distance) = 11.7
		// starboard layline = 0 - 89.5/2 + 11.7
		const margin = 11.7
		layline := geo.Normalize(0 - 89.5/2 + margin)
		mark := model.Mark{ID: "windward", Lat: 43.52, Lon: 16.40}
		aLat, aLon := geo.Destination(mark.Lat, mark.Lon, geo.Normalize(layline+180), 1000)
		bLat, bLon := geo.Destination(mark.Lat, mark.Lon, geo.Normalize(layline+180), 1500)

		course := model.Course{Legs: []model.Leg{{
			Kind:    model.Upwind,
			EndMark: &mark,
			Path: []model.PathPoint{
				{Lat: bLat, Lon: bLon, Time: t0},
				{Lat: aLat, Lon: aLon, Time: t0.Add(3 * time.Minute)},
			},
		}}}
		res := d.Detect(context.Background(), course, uniform(0, 0.9, 0))

		Convey("Then both points are reported on the starboard layline", func() {
			So(len(res.Laylines), ShouldEqual, 2)
			for _, lp := range res.Laylines {
				So(lp.Side, ShouldEqual, model.Starboard)
				So(lp.MarkID, ShouldEqual, "windward")
				So(lp.SafetyMargin, ShouldAlmostEqual, margin, 1e-6)
				So(lp.LaylineAngle, ShouldAlmostEqual, layline, 1e-6)
				So(lp.Confidence, ShouldAlmostEqual, 0.63, 1e-6)
				So(lp.Note, ShouldContainSubstring, "windward")
			}
			So(res.Laylines[0].MarkDistance, ShouldAlmostEqual, 1500, 0.01)
		})

		Convey("Then downwind legs are ignored", func() {
			course.Legs[0].Kind = model.Downwind
			res := d.Detect(context.Background(), course, uniform(0, 0.9, 0))
			So(res.Laylines, ShouldBeEmpty)
		})
	})
}

func TestDetectWithFusion(t *testing.T) {
	Convey("Given a fused field and the fusion forecaster", t, func() {
		ctx := context.Background()
		fuser := fusion.New()
		field, err := fuser.Fuse(ctx, t0, map[string][]model.WindEstimate{
			"a": {{VesselID: "a", Time: t0, Lat: 43.50, Lon: 16.40, Direction: 350, Speed: 11, Confidence: 0.8, Variability: 0.1}},
			"b": {{VesselID: "b", Time: t0, Lat: 43.52, Lon: 16.43, Direction: 25, Speed: 13, Confidence: 0.7, Variability: 0.1}},
		})
		So(err, ShouldBeNil)

		profile, _ := polar.Lookup("laser")
		d := strategy.NewDetector(strategy.WithForecaster(fuser), strategy.WithVMGModel(profile))
		course := model.Course{Legs: []model.Leg{{
			Kind:    model.Upwind,
			EndMark: &model.Mark{ID: "m1", Lat: 43.53, Lon: 16.42},
			Path: []model.PathPoint{
				{Lat: 43.500, Lon: 16.400, Time: t0},
				{Lat: 43.505, Lon: 16.410, Time: t0.Add(2 * time.Minute)},
				{Lat: 43.510, Lon: 16.420, Time: t0.Add(4 * time.Minute)},
				{Lat: 43.515, Lon: 16.430, Time: t0.Add(6 * time.Minute)},
				{Lat: 43.520, Lon: 16.425, Time: t0.Add(8 * time.Minute)},
			},
		}}}

		a := d.Detect(ctx, course, field)
		b := d.Detect(ctx, course, field)

		Convey("Then detection is deterministic", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Then probabilities stay in range and lists are time ordered", func() {
			for i, s := range a.WindShifts {
				So(s.Probability, ShouldBeBetweenOrEqual, 0, 1)
				So(s.Score, ShouldBeBetweenOrEqual, 0, 1)
				if i > 0 {
					So(float64(s.TimeEstimate), ShouldBeGreaterThanOrEqualTo, float64(a.WindShifts[i-1].TimeEstimate))
				}
			}
			for _, l := range a.Laylines {
				So(l.SafetyMargin, ShouldBeBetweenOrEqual, 3, 25)
			}
		})
	})
}
