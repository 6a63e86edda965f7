// Package moments holds the editable set of key moments for one recording.
package moments

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/procdoc/internal/timecode"
)

var (
	ErrEmptyCommit   = errors.New("no moments to commit")
	ErrUnknownMoment = errors.New("unknown moment")
	ErrUnknownKind   = errors.New("unknown moment kind")
)

// Kind classifies what happens on screen at a moment.
type Kind string

const (
	KindNavigation Kind = "navigation"
	KindAction     Kind = "action"
	KindDataEntry  Kind = "data_entry"
	KindDecision   Kind = "decision"
	KindSubmission Kind = "submission"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindNavigation, KindAction, KindDataEntry, KindDecision, KindSubmission}

// ParseKind accepts the kind names case-insensitively; "data-entry" and
// "data entry" are read as data_entry.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, k := range Kinds {
		if string(k) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Moment is a single timestamped event slated for a screenshot.
type Moment struct {
	ID             int               `json:"id" yaml:"id"`
	Time           timecode.TimeCode `json:"time" yaml:"time"`
	Kind           Kind              `json:"kind" yaml:"kind"`
	Description    string            `json:"description" yaml:"description"`
	NavigationPath string            `json:"navigation_path,omitempty" yaml:"navigation_path,omitempty"`
}

// DisplayPath returns the navigation path only while the moment is a
// navigation. Editing the kind away keeps the stored value but hides it.
func (m Moment) DisplayPath() string {
	if m.Kind != KindNavigation {
		return ""
	}
	return m.NavigationPath
}

// Fields selects which parts of a moment Edit replaces; nil leaves a field as is.
type Fields struct {
	Time           *timecode.TimeCode
	Kind           *Kind
	Description    *string
	NavigationPath *string
}

func (f Fields) apply(m Moment) Moment {
	if f.Time != nil {
		m.Time = *f.Time
	}
	if f.Kind != nil {
		m.Kind = *f.Kind
	}
	if f.Description != nil {
		m.Description = *f.Description
	}
	if f.NavigationPath != nil {
		m.NavigationPath = *f.NavigationPath
	}
	return m
}
