package pool

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ReapSchedule is the cron spec of the reclamation sweep.
const ReapSchedule = "@every 1h"

// Reaper runs the pool's reclamation sweep on a schedule. It is started at
// most once and stopped on shutdown.
type Reaper struct {
	pool    *Pool
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	stopped bool
}

// NewReaper creates a reaper for p. It does nothing until Start.
func NewReaper(p *Pool, logger *slog.Logger) *Reaper {
	return &Reaper{
		pool:   p,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start schedules the sweep. Calls after the first, or after Stop, are no-ops.
func (r *Reaper) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running || r.stopped {
		return
	}

	if _, err := r.cron.AddFunc(ReapSchedule, r.pool.Reap); err != nil {
		r.logger.Error("failed to schedule reclamation sweep", "error", err)
		return
	}
	r.cron.Start()
	r.running = true

	r.logger.Info("reclamation sweep scheduled", "schedule", ReapSchedule)
}

// Stop halts the schedule and waits for an in-flight sweep to return.
func (r *Reaper) Stop() {
	r.mu.Lock()
	r.stopped = true
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	ctx := r.cron.Stop()
	<-ctx.Done()

	r.logger.Info("reclamation sweep stopped")
}

// Running reports whether the schedule is active.
func (r *Reaper) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}
