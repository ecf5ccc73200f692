package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sailwind/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SAILWIND_CONFIG",
	"SAILWIND_ADDR",
	"SAILWIND_LOG_LEVEL",
	"SAILWIND_INGEST__CHUNK_SIZE",
	"SAILWIND_INGEST__PARALLEL",
	"SAILWIND_STRATEGY__HORIZON",
	"SAILWIND_FUSION__DECAY_RATE",
	"SAILWIND_INGEST__DOWNSAMPLE_RATIO",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Ingest.ChunkSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.Strategy.DecayRate, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SAILWIND_ADDR", ":8080")
			_ = os.Setenv("SAILWIND_INGEST__CHUNK_SIZE", "5000")
			_ = os.Setenv("SAILWIND_INGEST__PARALLEL", "false")
			_ = os.Setenv("SAILWIND_STRATEGY__HORIZON", "45m")
			_ = os.Setenv("SAILWIND_FUSION__DECAY_RATE", "0.25")

			cfg, err := config.Load(ctx)

			convey.Convey("Then nested keys are overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Ingest.ChunkSize, convey.ShouldEqual, 5000)
				convey.So(cfg.Ingest.Parallel, convey.ShouldBeFalse)
				convey.So(cfg.Strategy.Horizon, convey.ShouldEqual, 45*time.Minute)
				convey.So(cfg.Fusion.DecayRate, convey.ShouldEqual, 0.25)
				convey.So(cfg.Ingest.MaxFiles, convey.ShouldEqual, 80)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
log_level: debug
estimator:
  tack_angle: 40
  vessel_type: laser
strategy:
  min_shift_angle: 8
  step: 10m
`
			path := filepath.Join(t.TempDir(), "sailwind.yaml")
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("SAILWIND_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values are layered over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Estimator.TackAngle, convey.ShouldEqual, 40)
				convey.So(cfg.Estimator.VesselType, convey.ShouldEqual, "laser")
				convey.So(cfg.Estimator.UseSmoothing, convey.ShouldBeTrue)
				convey.So(cfg.Strategy.MinShiftAngle, convey.ShouldEqual, 8)
				convey.So(cfg.Strategy.Step, convey.ShouldEqual, 10*time.Minute)
			})

			convey.Convey("Then env vars take precedence over the file", func() {
				_ = os.Setenv("SAILWIND_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("SAILWIND_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an env var fails validation", func() {
			_ = os.Setenv("SAILWIND_INGEST__DOWNSAMPLE_RATIO", "2")
			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
