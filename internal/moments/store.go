package moments

import (
	"fmt"
	"log"
	"sort"

	"github.com/ivlev/procdoc/internal/timecode"
)

// Store is the authoritative moment list of one session. Deletion only marks
// moments; the marks are applied when the store is committed.
// A Store is not safe for concurrent use.
type Store struct {
	moments []Moment
	deleted map[int]bool
	nextID  int
}

func NewStore() *Store {
	return &Store{
		deleted: make(map[int]bool),
		nextID:  1,
	}
}

// Add appends m. A zero ID is replaced by the next free ordinal.
func (s *Store) Add(m Moment) Moment {
	if m.ID <= 0 {
		m.ID = s.nextID
	}
	if m.ID >= s.nextID {
		s.nextID = m.ID + 1
	}
	s.moments = append(s.moments, m)
	return m
}

// AddRecord converts an external record and appends it. A malformed
// timestamp is logged and stored as 0:00.
func (s *Store) AddRecord(r Record) (Moment, error) {
	m, err := r.Moment()
	if err != nil {
		return Moment{}, err
	}
	return s.Add(m), nil
}

// Edit replaces the selected fields of a live moment.
func (s *Store) Edit(id int, f Fields) (Moment, error) {
	i := s.index(id)
	if i < 0 || s.deleted[id] {
		return Moment{}, fmt.Errorf("%w: %d", ErrUnknownMoment, id)
	}
	s.moments[i] = f.apply(s.moments[i])
	return s.moments[i], nil
}

// Delete marks moments as removed. Nothing is marked if any id is unknown.
func (s *Store) Delete(ids ...int) error {
	for _, id := range ids {
		if s.index(id) < 0 {
			return fmt.Errorf("%w: %d", ErrUnknownMoment, id)
		}
	}
	for _, id := range ids {
		s.deleted[id] = true
	}
	return nil
}

// Restore undoes Delete for moments that have not been committed away.
func (s *Store) Restore(ids ...int) {
	for _, id := range ids {
		delete(s.deleted, id)
	}
}

// Live returns every moment except the deleted ones, in insertion order.
func (s *Store) Live() []Moment {
	out := make([]Moment, 0, len(s.moments))
	for _, m := range s.moments {
		if !s.deleted[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// All returns every moment in insertion order, including those marked for
// deletion.
func (s *Store) All() []Moment {
	out := make([]Moment, len(s.moments))
	copy(out, s.moments)
	return out
}

// Deleted returns the ids currently marked for deletion, ascending.
func (s *Store) Deleted() []int {
	ids := make([]int, 0, len(s.deleted))
	for id := range s.deleted {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Store) Len() int { return len(s.moments) - len(s.deleted) }

// Get returns a live moment by id.
func (s *Store) Get(id int) (Moment, bool) {
	i := s.index(id)
	if i < 0 || s.deleted[id] {
		return Moment{}, false
	}
	return s.moments[i], true
}

// Commit drops the deleted moments for good and returns the rest sorted by
// time. Moments sharing a timestamp keep their insertion order.
// A commit that would leave nothing fails with ErrEmptyCommit and keeps the
// delete marks, so they can still be restored.
func (s *Store) Commit() ([]Moment, error) {
	live := s.Live()
	if len(live) == 0 {
		return nil, ErrEmptyCommit
	}

	s.moments = live
	s.deleted = make(map[int]bool)

	out := Sorted(s.moments)
	log.Printf("[*] Committed %d moments (%s .. %s)", len(out), out[0].Time, out[len(out)-1].Time)
	return out, nil
}

// Sorted returns a time-ordered copy of list.
func Sorted(list []Moment) []Moment {
	out := make([]Moment, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return timecode.Compare(out[i].Time, out[j].Time) < 0
	})
	return out
}

func (s *Store) index(id int) int {
	for i, m := range s.moments {
		if m.ID == id {
			return i
		}
	}
	return -1
}
