package store

import "sync"

// NotifiedSet is an in-memory, monotonic set of hardware names. It is safe
// for concurrent use. There is no removal: once a name is added it stays.
//
// NotifiedSet keeps insertion order so that [NotifiedSet.Names] is stable,
// which keeps log output and tests deterministic.
type NotifiedSet struct {
	mu    sync.RWMutex
	names map[string]struct{}
	order []string
}

// NewNotifiedSet creates an empty [NotifiedSet].
func NewNotifiedSet() *NotifiedSet {
	return &NotifiedSet{
		names: make(map[string]struct{}),
	}
}

// Contains reports whether name has been added.
func (s *NotifiedSet) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.names[name]
	return ok
}

// Add marks name as notified.
func (s *NotifiedSet) Add(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[name]; ok {
		return
	}
	s.names[name] = struct{}{}
	s.order = append(s.order, name)
}

// Names returns a snapshot of all notified names in insertion order.
func (s *NotifiedSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of notified names.
func (s *NotifiedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}
