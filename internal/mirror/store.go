// Package mirror keeps a read model of the pool for display and accepts
// commands on behalf of callers that should not block on the pool.
package mirror

import (
	"sync"

	"araswap/internal/model"
)

// View is the read-only state consumers see.
type View struct {
	Reserves    model.Reserves
	Ratio       string
	Initialized bool
	// Syncing is true while submitted commands have not been applied yet.
	Syncing bool
	// Seq counts applied operations since the store was created.
	Seq uint64
}

// Store holds the latest View and fans it out to subscribers.
type Store struct {
	mu      sync.RWMutex
	view    View
	pending int
	applied uint64
	subs    map[int]chan View
	nextID  int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]chan View)}
}

// Snapshot returns the current view.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Subscribe returns a channel receiving every new view. A slow reader only
// misses intermediate views, never the latest one. Call cancel to stop.
func (s *Store) Subscribe() (<-chan View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan View, 1)
	ch <- s.view
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// Load replaces the view with a full pool state.
func (s *Store) Load(state model.State) {
	s.update(func(v *View) {
		v.Reserves = state.Reserves
		v.Ratio = state.Ratio()
		v.Initialized = state.Initialized
	})
}

// Apply folds an applied operation into the view. Receipts older than the
// last one applied are ignored.
func (s *Store) Apply(receipt model.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if receipt.Seq != 0 {
		if receipt.Seq <= s.applied {
			return
		}
		s.applied = receipt.Seq
	}
	s.view.Reserves = receipt.Reserves
	s.view.Ratio = receipt.Reserves.Ratio()
	s.view.Initialized = true
	s.view.Seq++
	s.publish()
}

// BeginSync marks one more command in flight.
func (s *Store) BeginSync() {
	s.update(func(v *View) {
		s.pending++
		v.Syncing = true
	})
}

// EndSync marks one in-flight command as settled. Syncing clears once none
// remain.
func (s *Store) EndSync() {
	s.update(func(v *View) {
		if s.pending > 0 {
			s.pending--
		}
		v.Syncing = s.pending > 0
	})
}

func (s *Store) update(fn func(*View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.view)
	s.publish()
}

// publish pushes the view to every subscriber. Callers hold s.mu.
func (s *Store) publish() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.view
	}
}
