// Package store keeps the daemon's settings in a TOML file of named sections.
//
// Every [File.SetValue] writes the whole document back to disk, so a crash never loses a
// completed write. Values are read as strings regardless of their TOML type.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// File is a section/key/value store backed by a TOML document.
type File struct {
	mu       sync.RWMutex
	path     string
	sections map[string]map[string]any
	written  []byte
}

// Open loads the document at path. A missing file yields an empty store that is
// created on the first write.
func Open(path string) (*File, error) {
	f := &File{path: path, sections: make(map[string]map[string]any)}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Reload replaces the in-memory document with the file's current contents.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.mu.Lock()
		f.sections = make(map[string]map[string]any)
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	sections, err := decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse store %s: %w", f.path, err)
	}

	f.mu.Lock()
	f.sections = sections
	f.written = data
	f.mu.Unlock()
	return nil
}

// changed reports whether the file on disk differs from what the store last read or wrote.
func (f *File) changed() bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !bytes.Equal(data, f.written)
}

// GetValue returns the value stored under section/key rendered as a string.
func (f *File) GetValue(section, key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s, ok := f.sections[section]
	if !ok {
		return "", false
	}
	v, ok := s[key]
	if !ok {
		return "", false
	}
	return stringify(v), true
}

// SetValue stores value under section/key, creating the section if needed, and persists the document.
func (f *File) SetValue(section, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sections[section]
	if !ok {
		s = make(map[string]any)
		f.sections[section] = s
	}
	s[key] = value
	return f.write()
}

// SetValues stores several keys in one section with a single write.
func (f *File) SetValues(section string, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sections[section]
	if !ok {
		s = make(map[string]any)
		f.sections[section] = s
	}
	for k, v := range values {
		s[k] = v
	}
	return f.write()
}

// ListSections returns the sorted names of all sections starting with prefix.
func (f *File) ListSections(prefix string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.sections))
	for name := range f.sections {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Section returns a copy of one section's values.
func (f *File) Section(name string) (map[string]string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s, ok := f.sections[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = stringify(v)
	}
	return out, true
}

// write encodes the document to a temp file and renames it over the target. Callers hold mu.
func (f *File) write() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f.sections); err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("failed to set store permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	f.written = buf.Bytes()
	return nil
}

// decode parses a document whose top level holds only tables. Top-level scalars are ignored.
func decode(data []byte) (map[string]map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	sections := make(map[string]map[string]any, len(raw))
	for name, v := range raw {
		table, ok := v.(map[string]any)
		if !ok {
			continue
		}
		sections[name] = table
	}
	return sections, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
