package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mandalnilabja/grokway/internal/storage/models"
)

const (
	tokenStatusKey = "token_status"
	dailyUsageKey  = "daily_usage"
)

// LoadTokenStatus returns the persisted status map, or an empty one.
func (s *Storage) LoadTokenStatus() (models.StatusMap, error) {
	status := models.StatusMap{}
	if err := s.loadDocument(tokenStatusKey, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// SaveTokenStatus replaces the persisted status map.
func (s *Storage) SaveTokenStatus(status models.StatusMap) error {
	return s.saveDocument(tokenStatusKey, status)
}

// LoadDailyUsage returns the persisted daily usage counters, or an empty map.
func (s *Storage) LoadDailyUsage() (models.DailyUsage, error) {
	usage := models.DailyUsage{}
	if err := s.loadDocument(dailyUsageKey, &usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// SaveDailyUsage replaces the persisted daily usage counters.
func (s *Storage) SaveDailyUsage(usage models.DailyUsage) error {
	return s.saveDocument(dailyUsageKey, usage)
}

func (s *Storage) loadDocument(key string, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStorageClosed
	}

	var raw string
	err := s.db.QueryRow("SELECT value FROM state_documents WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptDocument, key, err)
	}
	return nil
}

func (s *Storage) saveDocument(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err = s.db.Exec(`
		INSERT INTO state_documents (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(data))
	return err
}
