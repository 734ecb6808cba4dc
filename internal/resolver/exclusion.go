package resolver

import "sync"

// ExclusionSet holds the ICAO codes of suppressed general aviation tracks.
// It only grows and lives as long as the process.
type ExclusionSet struct {
	mu    sync.RWMutex
	codes map[string]struct{}
}

// NewExclusionSet creates an empty set
func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{codes: make(map[string]struct{})}
}

// Add records icao and reports whether it was newly added
func (s *ExclusionSet) Add(icao string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[icao]; ok {
		return false
	}
	s.codes[icao] = struct{}{}
	return true
}

// Contains reports whether icao has been excluded
func (s *ExclusionSet) Contains(icao string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.codes[icao]
	return ok
}

// Len returns the number of excluded codes
func (s *ExclusionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.codes)
}
