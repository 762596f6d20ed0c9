package testing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var errFailKey = errors.New("injected failure")

// MemoryStore is an in-memory configuration store that counts writes.
type MemoryStore struct {
	mu       sync.Mutex
	sections map[string]map[string]string
	writes   int
	Err      error
	// FailKey makes SetValues reject any batch containing this key.
	FailKey string
}

// NewMemoryStore returns a store seeded with sections.
func NewMemoryStore(sections map[string]map[string]string) *MemoryStore {
	s := &MemoryStore{sections: make(map[string]map[string]string)}
	for name, values := range sections {
		s.sections[name] = make(map[string]string, len(values))
		for k, v := range values {
			s.sections[name][k] = v
		}
	}
	return s
}

func (s *MemoryStore) GetValue(section, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sections[section][key]
	return v, ok
}

// SetValue counts the attempt and fails with Err when set.
func (s *MemoryStore) SetValue(section, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.Err != nil {
		return s.Err
	}
	if s.sections[section] == nil {
		s.sections[section] = make(map[string]string)
	}
	s.sections[section][key] = value
	return nil
}

// SetValues applies values to section as one write. It fails with Err when set,
// or when values contains FailKey, and then changes nothing.
func (s *MemoryStore) SetValues(section string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.Err != nil {
		return s.Err
	}
	if _, ok := values[s.FailKey]; ok && s.FailKey != "" {
		return fmt.Errorf("write %s.%s: %w", section, s.FailKey, errFailKey)
	}
	if s.sections[section] == nil {
		s.sections[section] = make(map[string]string)
	}
	for k, v := range values {
		s.sections[section][k] = v
	}
	return nil
}

func (s *MemoryStore) ListSections(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.sections {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Writes returns the number of SetValue and SetValues calls.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
