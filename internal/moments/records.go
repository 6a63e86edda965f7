package moments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/procdoc/internal/timecode"
)

// Record is the shape moments arrive in, whether produced by the key-moment
// extraction step or typed in by a user.
type Record struct {
	Timestamp      string  `yaml:"timestamp" json:"timestamp"`
	Kind           string  `yaml:"kind" json:"kind"`
	Description    string  `yaml:"description" json:"description"`
	NavigationPath *string `yaml:"navigation_path,omitempty" json:"navigation_path,omitempty"`
}

// Moment converts the record. The ID is left for the store to assign.
func (r Record) Moment() (Moment, error) {
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return Moment{}, err
	}

	tc, err := timecode.ParseStrict(r.Timestamp)
	if err != nil {
		log.Printf("[!] %v, using 0:00", err)
	}

	m := Moment{
		Time:        tc,
		Kind:        kind,
		Description: strings.TrimSpace(r.Description),
	}
	if r.NavigationPath != nil {
		m.NavigationPath = strings.TrimSpace(*r.NavigationPath)
	}
	return m, nil
}

// ToRecord is the inverse of Record.Moment.
func ToRecord(m Moment) Record {
	r := Record{
		Timestamp:   m.Time.String(),
		Kind:        string(m.Kind),
		Description: m.Description,
	}
	if m.NavigationPath != "" {
		p := m.NavigationPath
		r.NavigationPath = &p
	}
	return r
}

type recordFile struct {
	Moments []Record `yaml:"moments" json:"moments"`
}

// DecodeRecords reads a list of records, either bare or under a "moments"
// key. format is "json" or "yaml".
func DecodeRecords(r io.Reader, format string) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var list []Record
	var wrapped recordFile

	switch format {
	case "json":
		if data[0] == '[' {
			err = json.Unmarshal(data, &list)
		} else {
			err = json.Unmarshal(data, &wrapped)
			list = wrapped.Moments
		}
	case "yaml", "yml":
		// A YAML list fails to decode into the wrapper and the other way round.
		if err = yaml.Unmarshal(data, &list); err != nil {
			if werr := yaml.Unmarshal(data, &wrapped); werr == nil {
				list, err = wrapped.Moments, nil
			}
		}
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s records: %w", format, err)
	}
	return list, nil
}

// ReadRecords loads a record file, picking the format by extension.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeRecords(f, formatFor(path))
}

// WriteRecords saves records as YAML or JSON depending on the extension.
func WriteRecords(path string, records []Record) error {
	var data []byte
	var err error
	if formatFor(path) == "json" {
		data, err = json.MarshalIndent(recordFile{Moments: records}, "", "  ")
	} else {
		data, err = yaml.Marshal(recordFile{Moments: records})
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
