package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/mandalnilabja/grokway/internal/storage/models"
)

// timeLayout is how created_at is stored. It sorts lexically and is
// understood by SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05.000000"

// readLayouts covers timeLayout, the CURRENT_TIMESTAMP default and rows
// written by the driver's own time encoding.
var readLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeColumn scans a created_at value into a time.Time.
type timeColumn struct{ t *time.Time }

func (c timeColumn) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*c.t = time.Time{}
		return nil
	case time.Time:
		*c.t = x.UTC()
		return nil
	case []byte:
		return c.parse(string(x))
	case string:
		return c.parse(x)
	}
	return fmt.Errorf("created_at: unsupported type %T", v)
}

func (c timeColumn) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*c.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("created_at: cannot parse %q", s)
}

// LogRequest stores a request log entry
func (s *Storage) LogRequest(log *models.RequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if log.ID == "" {
		log.ID = generateID("log")
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO request_logs (id, request_id, identity, model, tier, attempts,
			prompt_tokens, completion_tokens, total_tokens, is_streaming,
			status_code, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.RequestID, nullString(log.Identity), log.Model, log.Tier, log.Attempts,
		log.PromptTokens, log.CompletionTokens, log.TotalTokens, boolToInt(log.IsStreaming),
		log.StatusCode, log.ErrorMessage, log.DurationMs, formatTime(log.CreatedAt))

	return err
}

// GetRequestLogs retrieves request logs with filtering, newest first
func (s *Storage) GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT id, request_id, COALESCE(identity, ''), model, tier, attempts,
		prompt_tokens, completion_tokens, total_tokens, is_streaming,
		status_code, COALESCE(error_message, ''), duration_ms, created_at
		FROM request_logs WHERE 1=1`

	var args []any

	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if filter.Tier != "" {
		query += " AND tier = ?"
		args = append(args, filter.Tier)
	}
	if filter.StatusCode != nil {
		query += " AND status_code = ?"
		args = append(args, *filter.StatusCode)
	}
	if filter.StartDate != nil {
		query += " AND created_at >= ?"
		args = append(args, formatTime(*filter.StartDate))
	}
	if filter.EndDate != nil {
		query += " AND created_at <= ?"
		args = append(args, formatTime(*filter.EndDate))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.RequestLog
	for rows.Next() {
		var log models.RequestLog
		var isStreaming int

		err := rows.Scan(&log.ID, &log.RequestID, &log.Identity, &log.Model, &log.Tier, &log.Attempts,
			&log.PromptTokens, &log.CompletionTokens, &log.TotalTokens, &isStreaming,
			&log.StatusCode, &log.ErrorMessage, &log.DurationMs, timeColumn{&log.CreatedAt})
		if err != nil {
			return nil, err
		}

		log.IsStreaming = isStreaming == 1
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// DeleteRequestLogs removes logs older than the given YYYY-MM-DD date
func (s *Storage) DeleteRequestLogs(olderThan string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM request_logs WHERE created_at < ?", olderThan)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
