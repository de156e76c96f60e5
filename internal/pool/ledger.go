package pool

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/storage/models"
)

const (
	dateLayout    = "2006-01-02"
	retentionDays = 7
)

// Ledger caps daily usage of the metered shared tier across all of its
// credentials. Counters are keyed by local date and kept for a week.
type Ledger struct {
	mu     sync.Mutex
	usage  models.DailyUsage
	store  StateStore
	now    func() time.Time
	logger *slog.Logger
}

func newLedger(usage models.DailyUsage, store StateStore, now func() time.Time, logger *slog.Logger) *Ledger {
	if usage == nil {
		usage = models.DailyUsage{}
	}
	return &Ledger{usage: usage, store: store, now: now, logger: logger}
}

func (l *Ledger) today() string {
	return l.now().Format(dateLayout)
}

// TryRecordUse charges one use against today's budget of
// active × DailyAllowance. Tiers without an allowance always succeed.
func (l *Ledger) TryRecordUse(cfg catalog.TierConfig, active int) bool {
	if !cfg.Metered() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.today()
	limit := active * cfg.DailyAllowance
	if used := l.usage[today]; used >= limit {
		l.logger.Warn("daily limit reached", "tier", cfg.Name, "used", used, "limit", limit)
		return false
	}

	l.usage[today]++
	l.prune()
	l.persist()
	return true
}

// Release lowers today's counter by delta, floored at zero.
func (l *Ledger) Release(cfg catalog.TierConfig, delta int) {
	if !cfg.Metered() || delta <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.today()
	used, ok := l.usage[today]
	if !ok {
		return
	}
	l.usage[today] = max(0, used-delta)
	l.persist()
}

// Used returns today's date key and its counter.
func (l *Ledger) Used() (string, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.today()
	return today, l.usage[today]
}

// prune drops keys older than the retention window and keys that do not parse.
func (l *Ledger) prune() {
	now := l.now()
	for key := range l.usage {
		day, err := time.ParseInLocation(dateLayout, key, now.Location())
		if err != nil || int(now.Sub(day)/(24*time.Hour)) > retentionDays {
			delete(l.usage, key)
		}
	}
}

func (l *Ledger) persist() {
	if l.store == nil {
		return
	}
	if err := l.store.SaveDailyUsage(l.usage.Clone()); err != nil {
		l.logger.Error("failed to save daily usage", "error", err)
	}
}
