// Package store holds the authoritative vessel states.
package store

import (
	"slices"
	"sync"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// Store is written by a single goroutine through Update and read by many.
// Readers always get copies taken under the read lock, so they observe
// either all of a tick's changes or none of them.
type Store struct {
	mu      sync.RWMutex
	vessels map[string]*model.VesselState
	ids     []string
	tick    uint64
	at      time.Time
}

// New loads the initial fleet as tick 0.
func New(fleet []model.VesselState, at time.Time) *Store {
	s := &Store{
		vessels: make(map[string]*model.VesselState, len(fleet)),
		ids:     make([]string, 0, len(fleet)),
		at:      at,
	}
	for i := range fleet {
		v := fleet[i].Clone()
		if _, dup := s.vessels[v.Identifier]; dup {
			continue
		}
		s.vessels[v.Identifier] = &v
		s.ids = append(s.ids, v.Identifier)
	}
	slices.Sort(s.ids)
	return s
}

// Commit describes one applied Update.
type Commit struct {
	Tick    uint64
	At      time.Time
	Changed []model.VesselState
}

// Tx is the write view handed to Update. It must not escape the callback.
type Tx struct {
	s     *Store
	dirty map[string]struct{}
}

// Get returns a copy of the vessel.
func (tx *Tx) Get(id string) (model.VesselState, bool) {
	v, ok := tx.s.vessels[id]
	if !ok {
		return model.VesselState{}, false
	}
	return v.Clone(), true
}

// Put replaces a known vessel and records it as changed if it differs.
// Unknown identifiers are ignored and reported as false.
func (tx *Tx) Put(v model.VesselState) bool {
	cur, ok := tx.s.vessels[v.Identifier]
	if !ok {
		return false
	}
	if cur.Equal(v) {
		return true
	}
	next := v.Clone()
	tx.s.vessels[v.Identifier] = &next
	tx.dirty[v.Identifier] = struct{}{}
	return true
}

// IDs lists every identifier in sorted order.
func (tx *Tx) IDs() []string {
	return tx.s.ids
}

// Update runs fn with exclusive access and commits the result as tick.
func (s *Store) Update(tick uint64, at time.Time, fn func(tx *Tx)) Commit {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s, dirty: make(map[string]struct{})}
	fn(tx)

	s.tick, s.at = tick, at

	changed := make([]model.VesselState, 0, len(tx.dirty))
	for _, id := range s.ids {
		if _, ok := tx.dirty[id]; ok {
			changed = append(changed, s.vessels[id].Clone())
		}
	}
	return Commit{Tick: tick, At: at, Changed: changed}
}

// View is a consistent copy of the store at one tick.
type View struct {
	Tick    uint64
	At      time.Time
	Vessels []model.VesselState
}

// Summary counts the vessels of the view.
func (v View) Summary() model.FleetSnapshot {
	return model.Summarize(v.Tick, v.At, v.Vessels)
}

// Snapshot copies every vessel matching f.
func (s *Store) Snapshot(f model.Filter) View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.VesselState, 0, len(s.ids))
	for _, id := range s.ids {
		if v := s.vessels[id]; f.Matches(v) {
			out = append(out, v.Clone())
		}
	}
	return View{Tick: s.tick, At: s.at, Vessels: out}
}

// Summary counts the whole fleet without copying it.
func (s *Store) Summary() model.FleetSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Summarize(s.tick, s.at, nil)
	snap.Total = len(s.ids)
	for _, id := range s.ids {
		v := s.vessels[id]
		snap.ByStatus[v.Status]++
		snap.ByType[v.VesselType]++
		snap.BySource[v.DataSource]++
	}
	return snap
}

// Get returns a copy of one vessel.
func (s *Store) Get(id string) (model.VesselState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vessels[id]
	if !ok {
		return model.VesselState{}, false
	}
	return v.Clone(), true
}

// Committed returns the last committed tick and its time.
func (s *Store) Committed() (uint64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick, s.at
}

// Tick returns the last committed tick.
func (s *Store) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
