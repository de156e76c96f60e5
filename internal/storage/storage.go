// Package storage provides the persistence interfaces and their implementations.
package storage

import (
	"fmt"

	"github.com/mandalnilabja/grokway/internal/storage/jsonfile"
	"github.com/mandalnilabja/grokway/internal/storage/models"
	"github.com/mandalnilabja/grokway/internal/storage/sqlite"
)

// Re-export types from models package for convenience
type (
	TokenStatus   = models.TokenStatus
	StatusMap     = models.StatusMap
	DailyUsage    = models.DailyUsage
	UsageSnapshot = models.UsageSnapshot
	RequestLog    = models.RequestLog
	LogFilter     = models.LogFilter
	ModelStats    = models.ModelStats
	UsageStats    = models.UsageStats
	StatsFilter   = models.StatsFilter
)

// Re-export errors from sqlite package
var (
	ErrNotFound      = sqlite.ErrNotFound
	ErrInvalidInput  = sqlite.ErrInvalidInput
	ErrStorageClosed = sqlite.ErrStorageClosed
)

// Backend names accepted by OpenState
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// StateStore persists the credential pool's reporting view and the daily
// usage ledger. Both documents are rewritten whole on every save.
type StateStore interface {
	LoadTokenStatus() (models.StatusMap, error)
	SaveTokenStatus(status models.StatusMap) error
	LoadDailyUsage() (models.DailyUsage, error)
	SaveDailyUsage(usage models.DailyUsage) error
}

// Storage defines the interface for the gateway's database
type Storage interface {
	StateStore

	// Request logging operations
	LogRequest(log *models.RequestLog) error
	GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error)
	DeleteRequestLogs(olderThan string) (int64, error)
	GetUsageStats(filter models.StatsFilter) (*models.UsageStats, error)

	// Manager password operations
	GetAdminPasswordHash() (string, error)
	SetAdminPasswordHash(hash string) error

	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}

// OpenState picks the store holding pool state. The sqlite backend reuses db;
// the json backend writes documents under dir.
func OpenState(backend, dir string, db Storage) (StateStore, error) {
	switch backend {
	case "", BackendSQLite:
		return db, nil
	case BackendJSON:
		return jsonfile.New(dir)
	default:
		return nil, fmt.Errorf("%w: unknown state backend %q", ErrInvalidInput, backend)
	}
}
