package sqlite

import "database/sql"

const adminPasswordKey = "manager_password_hash"

// GetAdminPasswordHash retrieves the stored manager password hash.
// An empty string means no password has been stored yet.
func (s *Storage) GetAdminPasswordHash() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStorageClosed
	}

	var hash string
	err := s.db.QueryRow(
		"SELECT value FROM admin_settings WHERE key = ?",
		adminPasswordKey,
	).Scan(&hash)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return hash, nil
}

// SetAdminPasswordHash stores the manager password hash
func (s *Storage) SetAdminPasswordHash(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO admin_settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, adminPasswordKey, hash)

	return err
}

