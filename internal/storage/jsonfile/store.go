// Package jsonfile persists pool state as two JSON documents in a directory,
// token_status.json and daily_usage.json.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mandalnilabja/grokway/internal/storage/models"
)

const (
	tokenStatusFile = "token_status.json"
	dailyUsageFile  = "daily_usage.json"
)

// Store reads and writes the state documents under dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// LoadTokenStatus returns the persisted status map, or an empty one.
func (s *Store) LoadTokenStatus() (models.StatusMap, error) {
	status := models.StatusMap{}
	if err := s.read(tokenStatusFile, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// SaveTokenStatus rewrites token_status.json.
func (s *Store) SaveTokenStatus(status models.StatusMap) error {
	return s.write(tokenStatusFile, status)
}

// LoadDailyUsage returns the persisted usage counters, or an empty map.
func (s *Store) LoadDailyUsage() (models.DailyUsage, error) {
	usage := models.DailyUsage{}
	if err := s.read(dailyUsageFile, &usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// SaveDailyUsage rewrites daily_usage.json.
func (s *Store) SaveDailyUsage(usage models.DailyUsage) error {
	return s.write(dailyUsageFile, usage)
}

func (s *Store) read(name string, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// write replaces the file through a rename so readers never see a partial document.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}
