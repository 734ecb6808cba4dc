package cache

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Category selects the subtree a key lives in
type Category string

const (
	Flights  Category = "flights"
	Aircraft Category = "aircraft"
	Airline  Category = "airline"
)

// Categories lists every category in a fixed order
var Categories = []Category{Flights, Aircraft, Airline}

// ErrInvalidKey is returned for keys that cannot be mapped to a file
var ErrInvalidKey = errors.New("invalid cache key")

// Store is a file-backed JSON document store with one file per key.
// Flight documents live directly under the flights directory, aircraft and
// airline documents under {metadataDir}/aircraft and {metadataDir}/airline.
type Store struct {
	flightsDir  string
	metadataDir string
}

// Entry describes one cached file
type Entry struct {
	Category Category
	Key      string
	Path     string
	Size     int64
	ModTime  time.Time
}

// New creates a store. Directories are created lazily on first write.
func New(flightsDir, metadataDir string) *Store {
	return &Store{
		flightsDir:  flightsDir,
		metadataDir: metadataDir,
	}
}

// Dir returns the directory holding documents of the given category
func (s *Store) Dir(category Category) string {
	if category == Flights {
		return s.flightsDir
	}
	return filepath.Join(s.metadataDir, string(category))
}

// Path maps a key to its file path
func (s *Store) Path(category Category, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	dir := s.Dir(category)
	if dir == "" {
		return "", fmt.Errorf("no directory configured for %s cache", category)
	}
	return filepath.Join(dir, key+".json"), nil
}

// Read returns the raw document for key. A missing file, an empty first
// line or content that is not valid JSON all count as a miss.
func (s *Store) Read(category Category, key string) ([]byte, bool) {
	path, err := s.Path(category, key)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	// Documents are single line JSON; a blank first line marks an empty entry
	first, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	if len(bytes.TrimSpace(first)) == 0 {
		return nil, false
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, false
	}
	return data, true
}

// ReadJSON reads key and decodes it into v, reporting a miss on any failure
func (s *Store) ReadJSON(category Category, key string, v any) bool {
	data, ok := s.Read(category, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// Write stores data under key, replacing any existing file. The file is
// written to a temporary name and renamed into place so readers never see
// a partial document.
func (s *Store) Write(category Category, key string, data []byte) error {
	path, err := s.Path(category, key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", path, err)
	}
	return nil
}

// WriteJSON encodes v and writes it under key
func (s *Store) WriteJSON(category Category, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", category, key, err)
	}
	return s.Write(category, key, data)
}

// Remove deletes a cached document. A missing file is not an error.
func (s *Store) Remove(category Category, key string) error {
	path, err := s.Path(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// List returns the entries of a category sorted by key. A missing
// directory yields no entries.
func (s *Store) List(category Category) ([]Entry, error) {
	dir := s.Dir(category)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Category: category,
			Key:      strings.TrimSuffix(name, ".json"),
			Path:     filepath.Join(dir, name),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
