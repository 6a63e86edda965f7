// Package session holds the state of one documentation run: the moment list
// being edited, the committed timeline and the frames extracted from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ivlev/procdoc/internal/document"
	"github.com/ivlev/procdoc/internal/engine"
	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/source"
)

var (
	ErrNotCommitted = errors.New("moments not committed")
	ErrNotExtracted = errors.New("frames not extracted")
	ErrNotFound     = errors.New("session not found")
)

type State string

const (
	StateEditing   State = "editing"
	StateCommitted State = "committed"
	StateExtracted State = "extracted"
)

// Session moves strictly through Editing, Committed and Extracted. Any change
// to the moment list throws away what was derived from it.
type Session struct {
	ID        string
	VideoPath string
	CreatedAt time.Time
	State     State
	Moments   *moments.Store

	// Committed is the time-ordered timeline frozen by the last Commit.
	Committed []moments.Moment
	Frames    []engine.Frame
	FramesDir string
}

func New(videoPath string) *Session {
	return &Session{
		ID:        ulid.Make().String(),
		VideoPath: videoPath,
		CreatedAt: time.Now().UTC(),
		State:     StateEditing,
		Moments:   moments.NewStore(),
	}
}

func (s *Session) Add(m moments.Moment) moments.Moment {
	s.invalidate()
	return s.Moments.Add(m)
}

func (s *Session) AddRecord(r moments.Record) (moments.Moment, error) {
	m, err := s.Moments.AddRecord(r)
	if err != nil {
		return moments.Moment{}, err
	}
	s.invalidate()
	return m, nil
}

func (s *Session) Edit(id int, f moments.Fields) (moments.Moment, error) {
	m, err := s.Moments.Edit(id, f)
	if err != nil {
		return moments.Moment{}, err
	}
	s.invalidate()
	return m, nil
}

func (s *Session) Delete(ids ...int) error {
	if err := s.Moments.Delete(ids...); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Session) Restore(ids ...int) {
	s.Moments.Restore(ids...)
	s.invalidate()
}

func (s *Session) invalidate() {
	if s.State != StateEditing {
		log.Printf("[*] Session %s: moment list changed, dropping %d frames", s.ID, len(s.Frames))
	}
	s.State = StateEditing
	s.Committed = nil
	s.Frames = nil
	s.FramesDir = ""
}

// Commit freezes the live moments into a timeline. On ErrEmptyCommit the
// session stays in Editing.
func (s *Session) Commit() ([]moments.Moment, error) {
	s.invalidate()
	list, err := s.Moments.Commit()
	if err != nil {
		return nil, err
	}
	s.Committed = list
	s.State = StateCommitted
	return list, nil
}

// Extract runs b over the committed timeline. v is closed on every path.
func (s *Session) Extract(ctx context.Context, b *engine.Batch, v source.Video) ([]engine.Frame, error) {
	if s.State == StateEditing {
		v.Close()
		return nil, fmt.Errorf("extract session %s: %w", s.ID, ErrNotCommitted)
	}

	frames, err := b.Run(ctx, v, s.Committed)
	if err != nil {
		return nil, err
	}
	s.Frames = frames
	s.State = StateExtracted
	return frames, nil
}

// RestoreFrames attaches frames extracted earlier, typically read back with
// engine.LoadManifest.
func (s *Session) RestoreFrames(frames []engine.Frame, dir string) error {
	if s.State == StateEditing {
		return fmt.Errorf("restore frames for %s: %w", s.ID, ErrNotCommitted)
	}
	s.Frames = frames
	s.FramesDir = dir
	s.State = StateExtracted
	return nil
}

// LoadFrames reads the frames stored in FramesDir.
func (s *Session) LoadFrames() error {
	if s.FramesDir == "" {
		return fmt.Errorf("session %s: %w", s.ID, ErrNotExtracted)
	}
	frames, _, err := engine.LoadManifest(s.FramesDir)
	if err != nil {
		return fmt.Errorf("load frames for %s: %w", s.ID, err)
	}
	return s.RestoreFrames(frames, s.FramesDir)
}

// Assemble binds the generated document text to the extracted frames.
func (s *Session) Assemble(text string) ([]document.ResolvedNode, error) {
	if s.State != StateExtracted {
		return nil, fmt.Errorf("assemble session %s: %w", s.ID, ErrNotExtracted)
	}
	return document.Assemble(text, s.Frames), nil
}

// OutputName is the file name of the rendered document.
func (s *Session) OutputName() string {
	return "process_documentation_" + s.ID + ".md"
}
