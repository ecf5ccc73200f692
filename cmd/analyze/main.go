// Command analyze runs a wind and strategy analysis over track files on
// disk, without the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/sailwind/internal/adapters/ingest"
	service "github.com/okian/sailwind/internal/app"
	"github.com/okian/sailwind/internal/config"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/pkg/logger"
)

func main() {
	var (
		coursePath = flag.String("course", "", "YAML course file")
		vesselType = flag.String("type", "", "Vessel type for the polar profile")
		refTime    = flag.String("ref", "", "Reference time for fusion, RFC 3339")
		output     = flag.String("o", "", "Write the analysis JSON here instead of stdout")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] track.csv|track.gpx ...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fail("failed to load config", err)
	}
	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		fail("failed to initialize logging", err)
	}
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	req, err := buildRequest(flag.Args(), *coursePath, *vesselType, *refTime)
	if err != nil {
		fail("invalid arguments", err)
	}

	svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Named("analyze")))
	a, err := svc.Analyze(ctx, req)
	if err != nil {
		fail("analysis failed", err)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fail("failed to create output", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		fail("failed to write analysis", err)
	}
}

func buildRequest(paths []string, coursePath, vesselType, refTime string) (service.Request, error) {
	req := service.Request{VesselType: vesselType}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return req, err
		}
		name := filepath.Base(p)
		req.Sources = append(req.Sources, model.TrackSource{Name: name, Format: ingest.FormatOf(name), Content: b})
	}
	if coursePath != "" {
		b, err := os.ReadFile(coursePath)
		if err != nil {
			return req, err
		}
		var c model.Course
		if err := yaml.Unmarshal(b, &c); err != nil {
			return req, fmt.Errorf("course %s: %w", coursePath, err)
		}
		req.Course = &c
	}
	if refTime != "" {
		t, err := time.Parse(time.RFC3339, refTime)
		if err != nil {
			return req, fmt.Errorf("reference time: %w", err)
		}
		req.ReferenceTime = &t
	}
	return req, nil
}

func fail(msg string, err error) {
	os.Stderr.WriteString(msg + ": " + err.Error() + "\n")
	os.Exit(1)
}
