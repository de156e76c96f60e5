package pool

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaperLifecycle(t *testing.T) {
	p, _, _ := newTestPool(t)
	r := NewReaper(p, slog.Default())

	assert.False(t, r.Running())

	r.Start()
	assert.True(t, r.Running())
	assert.Len(t, r.cron.Entries(), 1)

	// a second start does not add another job
	r.Start()
	assert.Len(t, r.cron.Entries(), 1)

	r.Stop()
	assert.False(t, r.Running())

	// stopped reapers cannot be restarted
	r.Start()
	assert.False(t, r.Running())

	r.Stop()
}

func TestPoolStopBeforeStart(t *testing.T) {
	p, _, _ := newTestPool(t)
	p.Stop()

	p.Add(BuildCredential("one"))
	p.Next(tierA, false)
	assert.False(t, p.Reaping(), "a stopped pool never schedules the sweep")
}

func TestPoolStartIsIdempotent(t *testing.T) {
	p, _, _ := newTestPool(t)
	assert.False(t, p.Reaping())

	p.Start()
	p.Start()
	assert.True(t, p.Reaping())
	assert.Len(t, p.reaper.cron.Entries(), 1)

	p.Stop()
	assert.False(t, p.Reaping())
}
