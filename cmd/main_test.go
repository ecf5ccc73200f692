package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/sailwind/internal/app"
	"github.com/okian/sailwind/internal/config"
	"github.com/okian/sailwind/internal/simulate"
	"github.com/okian/sailwind/pkg/logger"
)

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("SAILWIND_ADDR", ":8181")
		_ = os.Setenv("SAILWIND_RUNS__CAPACITY", "7")
		defer func() {
			_ = os.Unsetenv("SAILWIND_ADDR")
			_ = os.Unsetenv("SAILWIND_RUNS__CAPACITY")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
			convey.So(cfg.Runs.Capacity, convey.ShouldEqual, 7)
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the assembled mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg := config.New()
		svc := service.New(service.WithConfig(cfg))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, cfg, svc, logger.Nop()))
		defer srv.Close()

		convey.Convey("Health, stats and docs routes answer", func() {
			for _, p := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
				resp, err := http.Get(srv.URL + p)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("A simulated fleet can be analysed and fetched back", func() {
			fleet, err := simulate.BuildFleet(simulate.FleetSpec{
				Vessels:  2,
				IDPrefix: "boat",
				Template: simulate.TrackSpec{WindDirection: 200, WindSpeed: 10},
			}, "csv", 600)
			convey.So(err, convey.ShouldBeNil)

			body, err := json.Marshal(service.Request{Sources: fleet.Sources, Course: &fleet.Course})
			convey.So(err, convey.ShouldBeNil)
			resp, err := http.Post(srv.URL+"/v1/analyses", "application/json", bytes.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

			var created service.Analysis
			convey.So(json.NewDecoder(resp.Body).Decode(&created), convey.ShouldBeNil)
			convey.So(created.Vessels, convey.ShouldHaveLength, 2)

			got, err := http.Get(srv.URL + resp.Header.Get("Location"))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = got.Body.Close() }()
			convey.So(got.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updaters return without panicking", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, service.New()) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
