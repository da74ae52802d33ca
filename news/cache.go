package news

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Cache is the persisted calendar snapshot. APIAvailable records
// whether the most recent refresh succeeded; a successful refresh
// that found nothing is a different state from a failed one, and
// user-facing surfaces present them differently.
type Cache struct {
	LastRefresh  time.Time `json:"last_refresh"`
	APIAvailable bool      `json:"api_available"`
	Events       []Event   `json:"events"`
}

// FileStore persists the cache as a JSON snapshot on disk. A missing
// or unreadable file loads as a zero-value cache; corruption is "no
// data", never fatal.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the snapshot. Never returns an error: any failure yields
// the zero-value cache (no events, API unavailable).
func (s *FileStore) Load() Cache {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("news cache unreadable, treating as empty", "path", s.path, "error", err)
		}
		return Cache{}
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("news cache corrupt, treating as empty", "path", s.path, "error", err)
		return Cache{}
	}
	sortEvents(c.Events)
	return c
}

// Save overwrites the snapshot wholesale, stamping LastRefresh with now.
func (s *FileStore) Save(events []Event, apiAvailable bool, now time.Time) error {
	sortEvents(events)
	c := Cache{
		LastRefresh:  now,
		APIAvailable: apiAvailable,
		Events:       events,
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal news cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write news cache: %w", err)
	}
	return nil
}

// Prune drops events older than now minus the retention window,
// keeping LastRefresh and APIAvailable as they are. No-op on an empty
// cache.
func (s *FileStore) Prune(retention time.Duration, now time.Time) error {
	c := s.Load()
	if len(c.Events) == 0 {
		return nil
	}

	cutoff := now.Add(-retention)
	kept := c.Events[:0]
	for _, e := range c.Events {
		if !e.Time.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(c.Events) {
		return nil
	}

	c.Events = kept
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal news cache: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write news cache: %w", err)
	}
	return nil
}
