package sqlite

// migrateRequestLogs adds the tier and attempts columns to request_logs
// tables created before they existed.
func (s *Storage) migrateRequestLogs() error {
	for _, col := range []struct{ name, ddl string }{
		{"tier", "ALTER TABLE request_logs ADD COLUMN tier TEXT NOT NULL DEFAULT ''"},
		{"attempts", "ALTER TABLE request_logs ADD COLUMN attempts INTEGER DEFAULT 0"},
	} {
		var count int
		err := s.db.QueryRow(
			"SELECT COUNT(*) FROM pragma_table_info('request_logs') WHERE name = ?", col.name,
		).Scan(&count)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if _, err := s.db.Exec(col.ddl); err != nil {
			return err
		}
	}
	return nil
}
