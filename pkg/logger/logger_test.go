package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	convey.Convey("Given the global logger", t, func() {
		convey.Convey("When Init is called with defaults", func() {
			err := Init()
			convey.So(err, convey.ShouldBeNil)
			convey.So(Get(), convey.ShouldNotBeNil)
			convey.So(Sync(), convey.ShouldBeNil)
		})

		convey.Convey("When Init writes JSON to a buffer", func() {
			var buf bytes.Buffer
			convey.So(Init(WithWriter(&buf), WithFormat("json")), convey.ShouldBeNil)

			Get().Info(context.Background(), "file loaded",
				String("file", "alpha.csv"),
				Int("points", 42),
				Float64("ratio", 0.5),
				Bool("downsampled", false),
				Duration("took", 15*time.Millisecond),
			)

			var entry map[string]any
			convey.So(json.Unmarshal(buf.Bytes(), &entry), convey.ShouldBeNil)
			convey.So(entry["msg"], convey.ShouldEqual, "file loaded")
			convey.So(entry["file"], convey.ShouldEqual, "alpha.csv")
			convey.So(entry["points"], convey.ShouldEqual, float64(42))
			convey.So(entry["source"], convey.ShouldContainSubstring, "logger_test.go")
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	convey.Convey("Given a text logger on a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(Init(WithWriter(&buf)), convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("Debug is suppressed at info level", func() {
			Get().Debug(ctx, "hidden")
			convey.So(buf.String(), convey.ShouldBeEmpty)
		})

		convey.Convey("Debug is emitted after SetLevelString(debug)", func() {
			convey.So(SetLevelString("debug"), convey.ShouldBeNil)
			Get().Debug(ctx, "visible")
			convey.So(buf.String(), convey.ShouldContainSubstring, "visible")
		})

		convey.Convey("Unknown levels are rejected", func() {
			convey.So(SetLevelString("verbose"), convey.ShouldNotBeNil)
		})

		convey.Convey("Named loggers tag the component", func() {
			Named("ingest").Warn(ctx, "skipped file", Error(errors.New("boom")))
			out := buf.String()
			convey.So(out, convey.ShouldContainSubstring, "component=ingest")
			convey.So(strings.Contains(out, "boom"), convey.ShouldBeTrue)
		})
	})
}

func TestNop(t *testing.T) {
	convey.Convey("Nop accepts calls and returns itself when named", t, func() {
		l := Nop()
		l.Info(context.Background(), "ignored")
		convey.So(l.Named("x"), convey.ShouldNotBeNil)
	})
}
