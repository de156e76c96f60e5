package sqlite

import "github.com/mandalnilabja/grokway/internal/storage/models"

// GetUsageStats aggregates request logs into totals and a per-model breakdown.
// A request counts as an error when its status code is not 200.
func (s *Storage) GetUsageStats(filter models.StatsFilter) (*models.UsageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	where := " WHERE 1=1"
	var args []any

	if filter.Model != "" {
		where += " AND model = ?"
		args = append(args, filter.Model)
	}
	if filter.Tier != "" {
		where += " AND tier = ?"
		args = append(args, filter.Tier)
	}
	if filter.StartDate != nil {
		where += " AND created_at >= ?"
		args = append(args, formatTime(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where += " AND created_at <= ?"
		args = append(args, formatTime(*filter.EndDate))
	}

	const columns = `COUNT(*),
		COALESCE(SUM(prompt_tokens), 0),
		COALESCE(SUM(completion_tokens), 0),
		COALESCE(SUM(total_tokens), 0),
		COALESCE(SUM(CASE WHEN status_code != 200 THEN 1 ELSE 0 END), 0)`

	stats := &models.UsageStats{
		ModelBreakdown: make(map[string]*models.ModelStats),
	}

	err := s.db.QueryRow("SELECT "+columns+" FROM request_logs"+where, args...).Scan(
		&stats.TotalRequests,
		&stats.TotalPromptTokens,
		&stats.TotalCompletionTokens,
		&stats.TotalTokens,
		&stats.ErrorCount,
	)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT model, "+columns+" FROM request_logs"+where+" GROUP BY model", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ms models.ModelStats
		err := rows.Scan(&ms.Model, &ms.RequestCount, &ms.PromptTokens,
			&ms.CompletionTokens, &ms.TotalTokens, &ms.ErrorCount)
		if err != nil {
			return nil, err
		}
		stats.ModelBreakdown[ms.Model] = &ms
	}

	return stats, rows.Err()
}
