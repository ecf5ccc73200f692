package simulate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/sailwind/internal/domain/model"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Fleet is a generated fleet ready to be analyzed.
type Fleet struct {
	Tracks  []model.VesselTrack
	Sources []model.TrackSource
	Course  model.Course
}

// BuildFleet generates the tracks, encodes them in format and lays a course.
func BuildFleet(spec FleetSpec, format string, courseM float64) (Fleet, error) {
	f := Fleet{Tracks: GenerateFleet(spec), Course: CourseFor(spec.Template, courseM)}
	for _, t := range f.Tracks {
		var (
			content []byte
			err     error
		)
		switch model.Format(format) {
		case model.FormatCSV:
			content, err = EncodeCSV(t)
		case model.FormatGPX:
			content, err = EncodeGPX(t)
		default:
			return Fleet{}, fmt.Errorf("unsupported format %q", format)
		}
		if err != nil {
			return Fleet{}, err
		}
		f.Sources = append(f.Sources, model.TrackSource{
			Name:    t.VesselID + "." + format,
			Format:  model.Format(format),
			Content: content,
		})
	}
	return f, nil
}

// Write stores every source and course.yaml under dir.
func (f Fleet) Write(dir string) error {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	for _, s := range f.Sources {
		if err := os.WriteFile(filepath.Join(dir, s.Name), s.Content, filePermission); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.Name, err)
		}
	}
	course, err := EncodeCourse(f.Course)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "course.yaml"), course, filePermission)
}
