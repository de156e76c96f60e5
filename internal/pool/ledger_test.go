package pool

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/storage/models"
)

func TestLedgerUnmeteredTierAlwaysSucceeds(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
	l := newLedger(nil, nil, clock.Now, slog.Default())

	cfg := catalog.TierConfig{Name: tierA, RequestFrequency: 1}
	for i := 0; i < 100; i++ {
		require.True(t, l.TryRecordUse(cfg, 0))
	}
	_, used := l.Used()
	assert.Equal(t, 0, used)
}

func TestLedgerDailyCap(t *testing.T) {
	store := &memStore{}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
	l := newLedger(nil, store, clock.Now, slog.Default())
	cfg := catalog.TierConfig{Name: tierFree, RequestFrequency: 10, DailyAllowance: 2}

	assert.True(t, l.TryRecordUse(cfg, 2))
	assert.True(t, l.TryRecordUse(cfg, 2))
	assert.True(t, l.TryRecordUse(cfg, 2))
	assert.True(t, l.TryRecordUse(cfg, 2))
	assert.False(t, l.TryRecordUse(cfg, 2), "cap is active count times allowance")
	assert.Equal(t, 4, store.usage["2025-06-01"])

	// compensation lowers the counter and frees one use
	l.Release(cfg, 1)
	assert.True(t, l.TryRecordUse(cfg, 2))
	assert.False(t, l.TryRecordUse(cfg, 2))

	// date rollover starts a fresh budget
	clock.Advance(24 * time.Hour)
	assert.True(t, l.TryRecordUse(cfg, 2))
	date, used := l.Used()
	assert.Equal(t, "2025-06-02", date)
	assert.Equal(t, 1, used)
}

func TestLedgerReleaseFloorsAtZero(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
	l := newLedger(nil, nil, clock.Now, slog.Default())
	cfg := catalog.TierConfig{Name: tierFree, DailyAllowance: 5}

	l.TryRecordUse(cfg, 1)
	l.Release(cfg, 3)
	_, used := l.Used()
	assert.Equal(t, 0, used)
}

func TestLedgerPrunesOldKeys(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local)}
	usage := models.DailyUsage{
		"2025-06-01": 3, // 9 days old
		"2025-06-03": 3, // 7 days old
		"not-a-date": 1,
	}
	l := newLedger(usage, nil, clock.Now, slog.Default())

	require.True(t, l.TryRecordUse(catalog.TierConfig{DailyAllowance: 10}, 1))

	assert.NotContains(t, l.usage, "2025-06-01")
	assert.NotContains(t, l.usage, "not-a-date")
	assert.Contains(t, l.usage, "2025-06-03")
	assert.Equal(t, 1, l.usage["2025-06-10"])
}

func TestPoolMeteredTierCapacity(t *testing.T) {
	p, _, _ := newTestPool(t)
	p.Add(BuildCredential("one"))

	// per-credential frequency 10, but only 2 uses per day per credential
	assert.Equal(t, 2, p.RemainingCapacity(tierFree))

	_, ok := p.Next(tierFree, false)
	require.True(t, ok)
	_, ok = p.Next(tierFree, false)
	require.True(t, ok)
	_, ok = p.Next(tierFree, false)
	assert.False(t, ok, "daily cap reached")
	assert.Equal(t, 0, p.RemainingCapacity(tierFree))

	p.Compensate(tierFree, 1)
	assert.Equal(t, 1, p.RemainingCapacity(tierFree))

	snap, ok := p.DailyUsage()
	require.True(t, ok)
	assert.Equal(t, models.UsageSnapshot{
		Date:                  "2025-06-01",
		Used:                  1,
		Limit:                 2,
		Remaining:             1,
		ActiveCredentialCount: 1,
	}, snap)
}
