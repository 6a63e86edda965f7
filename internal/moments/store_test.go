package moments

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ivlev/procdoc/internal/timecode"
)

func add(s *Store, ts string, desc string) Moment {
	return s.Add(Moment{Time: timecode.Parse(ts), Kind: KindAction, Description: desc})
}

func times(list []Moment) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.Time.String()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCommitSortsByTime(t *testing.T) {
	s := NewStore()
	add(s, "0:05", "b")
	add(s, "0:02", "a")
	add(s, "0:08", "c")

	got, err := s.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	want := []string{"0:02", "0:05", "0:08"}
	if !equal(times(got), want) {
		t.Errorf("Commit order = %v, want %v", times(got), want)
	}
}

func TestAddAssignsOrdinalIDs(t *testing.T) {
	s := NewStore()
	a := add(s, "0:01", "a")
	b := add(s, "0:01", "b")
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}

	kept := s.Add(Moment{ID: 10, Kind: KindAction})
	next := add(s, "0:02", "c")
	if kept.ID != 10 || next.ID != 11 {
		t.Errorf("ids = %d, %d; want 10, 11", kept.ID, next.ID)
	}
}

func TestDuplicateTimestampsPreserved(t *testing.T) {
	s := NewStore()
	add(s, "0:03", "first")
	add(s, "0:01", "early")
	add(s, "0:03", "second")

	got, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d moments, want 3", len(got))
	}
	if got[1].Description != "first" || got[2].Description != "second" {
		t.Errorf("equal timestamps lost insertion order: %q, %q", got[1].Description, got[2].Description)
	}
}

func TestDeleteIsReversibleUntilCommit(t *testing.T) {
	s := NewStore()
	a := add(s, "0:01", "a")
	b := add(s, "0:02", "b")

	if err := s.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if _, ok := s.Get(a.ID); ok {
		t.Error("deleted moment still visible through Get")
	}

	s.Restore(a.ID)
	if s.Len() != 2 {
		t.Errorf("Len after restore = %d, want 2", s.Len())
	}

	if err := s.Delete(b.ID); err != nil {
		t.Fatal(err)
	}
	got, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("Commit = %+v, want only moment %d", got, a.ID)
	}
}

func TestCommitNeverResurrectsDeleted(t *testing.T) {
	s := NewStore()
	a := add(s, "0:01", "a")
	add(s, "0:02", "b")

	if err := s.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}

	// Restoring after commit has nothing to bring back.
	s.Restore(a.ID)
	add(s, "0:00", "c")

	got, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range got {
		if m.ID == a.ID {
			t.Fatalf("moment %d came back after commit", a.ID)
		}
	}
	if _, err := s.Edit(a.ID, Fields{}); !errors.Is(err, ErrUnknownMoment) {
		t.Errorf("Edit on committed-away moment: err = %v", err)
	}
	if len(s.Deleted()) != 0 {
		t.Errorf("delete-set not cleared: %v", s.Deleted())
	}
}

func TestDeleteUnknownMarksNothing(t *testing.T) {
	s := NewStore()
	a := add(s, "0:01", "a")

	err := s.Delete(a.ID, 99)
	if !errors.Is(err, ErrUnknownMoment) {
		t.Fatalf("err = %v, want ErrUnknownMoment", err)
	}
	if s.Len() != 1 {
		t.Error("partial delete applied")
	}
}

func TestEmptyCommit(t *testing.T) {
	s := NewStore()
	if _, err := s.Commit(); !errors.Is(err, ErrEmptyCommit) {
		t.Fatalf("err = %v, want ErrEmptyCommit", err)
	}

	a := add(s, "0:01", "a")
	s.Delete(a.ID)
	if _, err := s.Commit(); !errors.Is(err, ErrEmptyCommit) {
		t.Fatalf("err = %v, want ErrEmptyCommit", err)
	}

	// The failed commit leaves the delete mark in place and reversible.
	if got := s.Deleted(); len(got) != 1 || got[0] != a.ID {
		t.Errorf("deleted after failed commit = %v, want [%d]", got, a.ID)
	}
	s.Restore(a.ID)
	if got := len(s.Live()); got != 1 {
		t.Fatalf("live after restore = %d, want 1", got)
	}
	list, err := s.Commit()
	if err != nil || len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("commit after restore = %v, %v", list, err)
	}
}

func TestEditReplacesOnlySetFields(t *testing.T) {
	s := NewStore()
	m := s.Add(Moment{
		Time:           timecode.Parse("0:04"),
		Kind:           KindNavigation,
		Description:    "Open settings",
		NavigationPath: "Settings > Users",
	})

	kind := KindAction
	at := timecode.Parse("0:09")
	got, err := s.Edit(m.ID, Fields{Kind: &kind, Time: &at})
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "Open settings" {
		t.Errorf("description changed: %q", got.Description)
	}
	if got.Time.Seconds() != 9 {
		t.Errorf("time = %v", got.Time)
	}
	if got.NavigationPath != "Settings > Users" {
		t.Error("navigation path was physically removed")
	}
	if got.DisplayPath() != "" {
		t.Error("navigation path should be hidden for non-navigation kinds")
	}
}

func TestEditDeletedMoment(t *testing.T) {
	s := NewStore()
	a := add(s, "0:01", "a")
	s.Delete(a.ID)

	desc := "x"
	if _, err := s.Edit(a.ID, Fields{Description: &desc}); !errors.Is(err, ErrUnknownMoment) {
		t.Errorf("err = %v, want ErrUnknownMoment", err)
	}
}

func TestCommitOrderUnderRandomEdits(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		s := NewStore()
		var ids []int
		for i := 0; i < 20; i++ {
			m := s.Add(Moment{Time: timecode.FromSeconds(float64(r.Intn(600))), Kind: KindAction})
			ids = append(ids, m.ID)
		}
		for i := 0; i < 10; i++ {
			id := ids[r.Intn(len(ids))]
			switch r.Intn(3) {
			case 0:
				s.Delete(id)
			case 1:
				s.Restore(id)
			default:
				at := timecode.FromSeconds(float64(r.Intn(600)))
				s.Edit(id, Fields{Time: &at})
			}
		}

		got, err := s.Commit()
		if err != nil {
			continue
		}
		for i := 1; i < len(got); i++ {
			if got[i].Time.Before(got[i-1].Time) {
				t.Fatalf("round %d: commit out of order at %d: %v", round, i, times(got))
			}
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"navigation", KindNavigation, false},
		{"Action", KindAction, false},
		{"data-entry", KindDataEntry, false},
		{"data entry", KindDataEntry, false},
		{"submission", KindSubmission, false},
		{"click", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKind) {
					t.Errorf("err = %v, want ErrUnknownKind", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}
