package simulate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/pkg/logger"
)

// analysisRequest mirrors the POST /v1/analyses body.
type analysisRequest struct {
	Sources    []model.TrackSource `json:"sources"`
	Course     *model.Course       `json:"course,omitempty"`
	VesselType string              `json:"vessel_type,omitempty"`
}

// analysisResponse holds the fields of an analysis the runner checks.
type analysisResponse struct {
	ID      string `json:"id"`
	Vessels []struct {
		Summary struct {
			VesselID string `json:"vessel_id"`
			Points   int    `json:"points"`
		} `json:"summary"`
		Estimates []model.WindEstimate `json:"estimates"`
		Condition string               `json:"condition"`
	} `json:"vessels"`
	Strategy struct {
		WindShifts []model.WindShiftPoint `json:"wind_shifts"`
		Tacks      []model.TackPoint      `json:"tacks"`
		Laylines   []model.LaylinePoint   `json:"laylines"`
	} `json:"strategy"`
	Skipped  []struct{ Name, Reason string } `json:"skipped"`
	Warnings []string                        `json:"warnings"`
}

// Run generates a fleet, submits it to the service at cfg.BaseURL and
// verifies the estimated wind against the generating wind.
func Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	cfg = cfg.withDefaults()
	start := time.Now()
	log := cfg.Logger

	log.Info(ctx, "starting simulation run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("vessels", cfg.Vessels),
		logger.String("class", cfg.Class),
		logger.Float64("windDirection", cfg.WindDirection),
		logger.Float64("windSpeed", cfg.WindSpeed),
		logger.String("format", cfg.Format),
	)

	client := newHTTPClient(cfg.Timeout)

	// Step 1: Check service health
	resp, err := client.get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service: %w", err)
	}
	if err := decode(resp, http.StatusOK, nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the fleet
	fleet, err := BuildFleet(cfg.fleetSpec(), cfg.Format, cfg.CourseM)
	if err != nil {
		return nil, fmt.Errorf("fleet generation failed: %w", err)
	}
	if cfg.OutputDir != "" {
		if err := fleet.Write(cfg.OutputDir); err != nil {
			log.Warn(ctx, "failed to save fleet", logger.Error(err))
		} else {
			log.Info(ctx, "fleet saved", logger.String("dir", cfg.OutputDir))
		}
	}

	// Step 3: Submit
	resp, err = client.postJSON(ctx, cfg.BaseURL+"/v1/analyses", analysisRequest{
		Sources:    fleet.Sources,
		Course:     &fleet.Course,
		VesselType: cfg.Class,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis submission failed: %w", err)
	}
	var created analysisResponse
	if err := decode(resp, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("analysis submission failed: %w", err)
	}

	// Step 4: Read it back
	resp, err = client.get(ctx, cfg.BaseURL+"/v1/analyses/"+created.ID)
	if err != nil {
		return nil, fmt.Errorf("analysis retrieval failed: %w", err)
	}
	var stored analysisResponse
	if err := decode(resp, http.StatusOK, &stored); err != nil {
		return nil, fmt.Errorf("analysis retrieval failed: %w", err)
	}

	// Step 5: Verify
	report, err := verify(stored, cfg)
	if report != nil {
		report.Duration = time.Since(start)
		displayReport(ctx, log, report)
	}
	if err != nil {
		return report, fmt.Errorf("result verification failed: %w", err)
	}
	log.Info(ctx, "simulation run completed successfully")
	return report, nil
}

func (c RunConfig) fleetSpec() FleetSpec {
	return FleetSpec{
		Vessels:  c.Vessels,
		IDPrefix: "sim",
		Template: TrackSpec{
			Class:         c.Class,
			WindDirection: c.WindDirection,
			WindSpeed:     c.WindSpeed,
			WindShift:     c.WindShift,
			Seed:          c.Seed,
		},
	}
}

func displayReport(ctx context.Context, log logger.Logger, r *Report) {
	log.Info(ctx, "final statistics",
		logger.String("analysisID", r.AnalysisID),
		logger.Int("vessels", r.Vessels),
		logger.Int("estimates", r.Estimates),
		logger.Int("skipped", r.Skipped),
		logger.Float64("meanDirectionError", r.MeanDirectionError),
		logger.Float64("meanSpeedError", r.MeanSpeedError),
		logger.Int("windShifts", r.WindShifts),
		logger.Int("tacks", r.Tacks),
		logger.Int("laylines", r.Laylines),
		logger.Duration("duration", r.Duration),
	)
}

// Generate builds the fleet Run would submit and writes it to
// cfg.OutputDir without contacting a service.
func Generate(cfg RunConfig) (Fleet, error) {
	cfg = cfg.withDefaults()
	if cfg.OutputDir == "" {
		return Fleet{}, fmt.Errorf("generate: output directory required")
	}
	fleet, err := BuildFleet(cfg.fleetSpec(), cfg.Format, cfg.CourseM)
	if err != nil {
		return Fleet{}, fmt.Errorf("fleet generation failed: %w", err)
	}
	if err := fleet.Write(cfg.OutputDir); err != nil {
		return Fleet{}, err
	}
	return fleet, nil
}
