package timenorm

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sailwind/internal/domain/model"
)

type stamped struct{ t time.Time }

func (s stamped) Timestamp() time.Time { return s.t }

func TestNormalize(t *testing.T) {
	Convey("Given one instant in several representations", t, func() {
		instant := time.Date(2024, 7, 14, 13, 5, 30, 0, time.UTC)
		want := model.Epoch(instant.Unix())

		Convey("They all normalize to the same epoch", func() {
			So(Normalize(instant), ShouldEqual, want)
			So(Normalize(instant.Unix()), ShouldEqual, want)
			So(Normalize(float64(instant.Unix())), ShouldEqual, want)
			So(Normalize("1720962330"), ShouldEqual, want)
			So(Normalize("2024-07-14T13:05:30Z"), ShouldEqual, want)
			So(Normalize("2024-07-14T15:05:30+02:00"), ShouldEqual, want)
			So(Normalize("2024-07-14 13:05:30"), ShouldEqual, want)
			So(Normalize(stamped{instant}), ShouldEqual, want)
			So(Normalize(map[string]any{"timestamp": instant}), ShouldEqual, want)
			So(Normalize(map[string]any{"time": "2024-07-14T13:05:30Z"}), ShouldEqual, want)
		})

		Convey("Typed records normalize through their timestamp field", func() {
			point := model.TrackPoint{VesselID: "boat", Time: instant, Lat: 54, Lon: 10}
			So(Normalize(point), ShouldEqual, want)
			So(Normalize(&point), ShouldEqual, want)
			So(Normalize(model.WindEstimate{Time: instant, Direction: 30}), ShouldEqual, want)
			So(Normalize(struct{ Timestamp time.Time }{instant}), ShouldEqual, want)
			So(Normalize(struct{ Time string }{"2024-07-14T13:05:30Z"}), ShouldEqual, want)
			So(Normalize((*model.TrackPoint)(nil)).IsInf(), ShouldBeTrue)
		})

		Convey("Maps with any string-keyed value type normalize", func() {
			So(Normalize(map[string]string{"timestamp": "2024-07-14T13:05:30Z"}), ShouldEqual, want)
			So(Normalize(map[string]time.Time{"time": instant}), ShouldEqual, want)
			So(Normalize(map[string]int64{"timestamp": instant.Unix()}), ShouldEqual, want)
			So(Normalize(map[int]any{1: instant}).IsInf(), ShouldBeTrue)
		})

		Convey("Every numeric kind is an epoch", func() {
			So(Normalize(json.Number("1720962330")), ShouldEqual, want)
			So(Normalize(int8(12)), ShouldEqual, model.Epoch(12))
			So(Normalize(int16(-300)), ShouldEqual, model.Epoch(-300))
			So(Normalize(uint8(200)), ShouldEqual, model.Epoch(200))
			So(Normalize(uint16(60000)), ShouldEqual, model.Epoch(60000))
			type seconds int64
			So(Normalize(seconds(instant.Unix())), ShouldEqual, want)
			So(Normalize(json.Number("soon")).IsInf(), ShouldBeTrue)
		})

		Convey("A duration normalizes to its own seconds", func() {
			So(Normalize(90*time.Second), ShouldEqual, model.Epoch(90))
		})
	})

	Convey("Given unparsable values", t, func() {
		for _, v := range []any{nil, "yesterday", "", math.NaN(), struct{}{}, map[string]any{"when": 1}, time.Time{}} {
			So(Normalize(v).IsInf(), ShouldBeTrue)
		}

		Convey("They never compare as close in time", func() {
			So(math.IsInf(Normalize("garbage").Diff(Normalize(0)), 1), ShouldBeTrue)
		})
	})

	Convey("ParseTime accepts the ingest layouts", t, func() {
		ts, ok := ParseTime("2024-07-14T13:05:30.250Z")
		So(ok, ShouldBeTrue)
		So(ts.Nanosecond(), ShouldEqual, 250_000_000)

		_, ok = ParseTime("not a time")
		So(ok, ShouldBeFalse)
	})
}
