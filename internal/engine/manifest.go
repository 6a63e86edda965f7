package engine

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/source"
	"github.com/ivlev/procdoc/internal/timecode"
)

// ManifestName is the index file written next to extracted frames.
const ManifestName = "frames.yaml"

// Manifest lists extracted frames in ordinal order.
type Manifest struct {
	Version string          `yaml:"version"`
	Video   string          `yaml:"video,omitempty"`
	Frames  []ManifestEntry `yaml:"frames"`
}

type ManifestEntry struct {
	Ordinal int            `yaml:"ordinal"`
	File    string         `yaml:"file"`
	Seconds float64        `yaml:"seconds"` // exact offset; Moment.Time is written as M:SS
	Moment  moments.Moment `yaml:"moment"`
}

// FrameFileName is the file a frame is stored under inside a frames directory.
func FrameFileName(ordinal int) string {
	return fmt.Sprintf("frame_%03d.png", ordinal+1)
}

// WriteManifest stores frames as PNG files plus a frames.yaml index in dir.
func WriteManifest(dir, videoPath string, frames []Frame) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	m := Manifest{Version: "1.0", Video: videoPath}
	for _, fr := range frames {
		name := FrameFileName(fr.Ordinal)
		if err := WriteFramePNG(filepath.Join(dir, name), fr); err != nil {
			return err
		}
		m.Frames = append(m.Frames, ManifestEntry{
			Ordinal: fr.Ordinal,
			File:    name,
			Seconds: fr.Moment.Time.Seconds(),
			Moment:  fr.Moment,
		})
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), data, 0644)
}

// WriteFramePNG encodes fr as a PNG file at path.
func WriteFramePNG(path string, fr Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fr.Image); err != nil {
		f.Close()
		return fmt.Errorf("encode frame %d: %w", fr.Ordinal+1, err)
	}
	return f.Close()
}

// LoadManifest reads frames written by WriteManifest back in ordinal order.
func LoadManifest(dir string) ([]Frame, *Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", ManifestName, err)
	}

	frames := make([]Frame, 0, len(m.Frames))
	for i, e := range m.Frames {
		if e.Ordinal != i {
			return nil, nil, fmt.Errorf("%s: entry %d has ordinal %d", ManifestName, i, e.Ordinal)
		}
		img, err := source.ReadImage(filepath.Join(dir, e.File))
		if err != nil {
			return nil, nil, fmt.Errorf("frame %d: %w", e.Ordinal, err)
		}
		mom := e.Moment
		mom.Time = timecode.FromSeconds(e.Seconds)
		frames = append(frames, Frame{Moment: mom, Image: img, Ordinal: e.Ordinal})
	}

	return frames, &m, nil
}
