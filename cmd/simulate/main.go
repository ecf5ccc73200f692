package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/okian/sailwind/internal/simulate"
	"github.com/okian/sailwind/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL   = flag.String("url", simulate.DefaultBaseURL, "Base URL of the service")
		vessels   = flag.Int("vessels", simulate.DefaultVessels, "Number of vessels in the fleet")
		class     = flag.String("class", "", "Boat class, also sent as vessel_type")
		direction = flag.Float64("wind-dir", 0, "True wind direction, degrees")
		speed     = flag.Float64("wind-speed", 12, "True wind speed, knots")
		shift     = flag.Float64("wind-shift", 0, "Linear wind shift over each track, degrees")
		format    = flag.String("format", "csv", "Track format: csv or gpx")
		courseM   = flag.Float64("course", simulate.DefaultCourseM, "Beat length in metres")
		tolerance = flag.Float64("tolerance", simulate.DefaultTolerance, "Allowed mean direction error, degrees")
		timeout   = flag.Duration("timeout", simulate.DefaultTimeout, "HTTP request timeout")
		outDir    = flag.String("out", "", "Directory to write the generated tracks and course to")
		generate  = flag.Bool("generate-only", false, "Write the fleet to -out and exit without contacting the service")
		seed      = flag.Int64("seed", 1, "Noise seed")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := simulate.RunConfig{
		BaseURL:       *baseURL,
		Vessels:       *vessels,
		Class:         *class,
		WindDirection: *direction,
		WindSpeed:     *speed,
		WindShift:     *shift,
		Format:        *format,
		CourseM:       *courseM,
		Timeout:       *timeout,
		OutputDir:     *outDir,
		Tolerance:     *tolerance,
		Seed:          *seed,
		Logger:        log,
	}

	if *generate {
		fleet, err := simulate.Generate(cfg)
		if err != nil {
			log.Error(ctx, "generation failed", logger.Error(err))
			os.Exit(1)
		}
		fmt.Printf("wrote %d tracks and course.yaml to %s\n", len(fleet.Sources), *outDir)
		return
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		log.Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}
