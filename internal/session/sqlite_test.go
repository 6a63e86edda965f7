package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ivlev/procdoc/internal/engine"
	"github.com/ivlev/procdoc/internal/moments"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoundTripWithPendingDeletes(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	s := New("rec.mp4")
	addMoments(s)
	if err := db.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(2); err != nil {
		t.Fatal(err)
	}
	if err := db.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.VideoPath != "rec.mp4" || got.State != StateEditing {
		t.Errorf("loaded %s in %s", got.VideoPath, got.State)
	}
	if ids := got.Moments.Deleted(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("deleted = %v, want [2]", ids)
	}
	if got.Moments.Len() != 2 {
		t.Errorf("live = %d, want 2", got.Moments.Len())
	}

	all := got.Moments.All()
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
	nav := all[1]
	if nav.Kind != moments.KindNavigation || nav.NavigationPath != "Finance > Invoices" || nav.Time.String() != "0:15" {
		t.Errorf("moment 2 = %+v", nav)
	}

	// Pending deletes stay reversible across a reload.
	got.Restore(2)
	if got.Moments.Len() != 3 {
		t.Errorf("restore after reload: live = %d", got.Moments.Len())
	}

	// New moments continue the id sequence.
	if m := got.Add(moments.Moment{Kind: moments.KindAction}); m.ID != 4 {
		t.Errorf("next id = %d, want 4", m.ID)
	}
}

func TestCommitPurgesDeletedRows(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	s := New("rec.mp4")
	addMoments(s)
	if err := db.Create(ctx, s); err != nil {
		t.Fatal(err)
	}
	s.Delete(1)
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := db.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := db.Load(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != StateCommitted {
		t.Errorf("state = %s, want committed", got.State)
	}
	if len(got.Moments.All()) != 2 || len(got.Moments.Deleted()) != 0 {
		t.Errorf("all=%d deleted=%v", len(got.Moments.All()), got.Moments.Deleted())
	}
	if len(got.Committed) != 2 || got.Committed[0].Time.String() != "0:15" {
		t.Errorf("committed = %v", got.Committed)
	}
}

func TestLoadNotFound(t *testing.T) {
	db := newTestStore(t)
	if _, err := db.Load(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if err := db.Save(context.Background(), New("x.mp4")); !errors.Is(err, ErrNotFound) {
		t.Errorf("save unknown: got %v", err)
	}
	if err := db.SetFramesDir(context.Background(), "missing", "dir"); !errors.Is(err, ErrNotFound) {
		t.Errorf("set frames dir: got %v", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	first := New("a.mp4")
	addMoments(first)
	first.Delete(3)
	second := New("b.mp4")

	for _, s := range []*Session{first, second} {
		if err := db.Create(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	list, err := db.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d sessions, want 2", len(list))
	}

	byID := map[string]Info{}
	for _, info := range list {
		byID[info.ID] = info
	}
	if a := byID[first.ID]; a.Moments != 2 || a.Deleted != 1 || a.VideoPath != "a.mp4" {
		t.Errorf("first = %+v", a)
	}
	if b := byID[second.ID]; b.Moments != 0 || b.State != StateEditing {
		t.Errorf("second = %+v", b)
	}
}

func TestExtractedSessionReloadsFrames(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	s := New("rec.mp4")
	addMoments(s)
	if err := db.Create(ctx, s); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	frames, err := s.Extract(ctx, testBatch(), &fakeVideo{})
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "frames")
	if err := engine.WriteManifest(dir, s.VideoPath, frames); err != nil {
		t.Fatal(err)
	}
	if err := db.SetFramesDir(ctx, s.ID, dir); err != nil {
		t.Fatal(err)
	}
	if err := db.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := db.Load(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != StateExtracted || len(got.Frames) != 3 {
		t.Fatalf("state=%s frames=%d", got.State, len(got.Frames))
	}
	if got.Frames[0].Moment.Description != "Open Finance" {
		t.Errorf("first frame moment = %+v", got.Frames[0].Moment)
	}

	// Frames that vanished from disk put the session back to committed.
	if err := db.SetFramesDir(ctx, s.ID, filepath.Join(t.TempDir(), "gone")); err != nil {
		t.Fatal(err)
	}
	got, err = db.Load(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != StateCommitted || got.Frames != nil {
		t.Errorf("state=%s frames=%d, want committed", got.State, len(got.Frames))
	}
}
