// Package pool manages the rotating set of upstream session credentials.
//
// Each tier owns an ordered bucket of entries. Dispatches always charge the
// bucket head; once a head exceeds its tier's RequestFrequency it moves to the
// expired set until the tier's ExpirationTime has passed. All mutations run
// under one mutex, and no network I/O happens while it is held.
package pool

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/storage/models"
)

// StateStore persists the status map and daily usage documents.
type StateStore interface {
	LoadTokenStatus() (models.StatusMap, error)
	SaveTokenStatus(status models.StatusMap) error
	LoadDailyUsage() (models.DailyUsage, error)
	SaveDailyUsage(usage models.DailyUsage) error
}

// Entry is one credential in one tier bucket.
type Entry struct {
	Credential    string
	RequestCount  int
	AddedTime     time.Time
	StartCallTime *time.Time
}

type expiredRecord struct {
	credential string
	tier       catalog.Tier
	expiredAt  time.Time
}

// Option configures a Pool.
type Option func(*Pool)

// WithClock replaces time.Now for every age and date computation.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// Pool is the credential pool shared by all in-flight requests.
type Pool struct {
	mu      sync.Mutex
	tiers   map[catalog.Tier]catalog.TierConfig
	order   []catalog.Tier
	buckets map[catalog.Tier][]*Entry
	expired []expiredRecord
	status  models.StatusMap
	ledger  *Ledger

	store   StateStore
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics

	reaper     *Reaper
	reaperOnce sync.Once
}

// New builds a pool for tiers, loading persisted state from store. A nil
// store keeps everything in memory.
func New(tiers []catalog.TierConfig, store StateStore, opts ...Option) (*Pool, error) {
	p := &Pool{
		tiers:   make(map[catalog.Tier]catalog.TierConfig, len(tiers)),
		buckets: make(map[catalog.Tier][]*Entry, len(tiers)),
		status:  models.StatusMap{},
		store:   store,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "pool")

	for _, t := range tiers {
		if _, ok := p.tiers[t.Name]; !ok {
			p.order = append(p.order, t.Name)
		}
		p.tiers[t.Name] = t
	}

	var usage models.DailyUsage
	if store != nil {
		status, err := store.LoadTokenStatus()
		if err != nil {
			return nil, err
		}
		if status != nil {
			p.status = status
		}
		if usage, err = store.LoadDailyUsage(); err != nil {
			return nil, err
		}
	}
	p.ledger = newLedger(usage, store, p.now, p.logger)
	p.reaper = NewReaper(p, p.logger)

	return p, nil
}

// Add registers credential into every unrestricted tier not listed in
// excludeTiers. Adding a credential already present in a tier is a no-op for
// that tier.
func (p *Pool) Add(credential string, excludeTiers ...catalog.Tier) {
	p.mu.Lock()
	defer p.mu.Unlock()

	skip := make(map[catalog.Tier]bool, len(excludeTiers))
	for _, t := range excludeTiers {
		skip[t] = true
	}

	for _, tier := range p.order {
		if p.tiers[tier].Restricted || skip[tier] {
			continue
		}
		p.insert(tier, credential)
	}
	p.save()
}

// AddRestricted registers credential into the restricted tiers only.
func (p *Pool) AddRestricted(credential string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, tier := range p.order {
		if p.tiers[tier].Restricted {
			p.insert(tier, credential)
		}
	}
	p.save()
}

func (p *Pool) insert(tier catalog.Tier, credential string) {
	if p.indexOf(tier, credential) < 0 {
		p.buckets[tier] = append(p.buckets[tier], &Entry{
			Credential: credential,
			AddedTime:  p.now(),
		})
	}

	id := Identity(credential)
	if p.status[id] == nil {
		p.status[id] = map[string]models.TokenStatus{}
	}
	if _, ok := p.status[id][string(tier)]; !ok {
		p.status[id][string(tier)] = models.TokenStatus{IsValid: true}
	}
	p.publish(tier)
}

// Remove purges credential from every bucket and the expired set, and drops
// its status. It reports whether anything was removed.
func (p *Pool) Remove(credential string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := false
	for _, tier := range p.order {
		if i := p.indexOf(tier, credential); i >= 0 {
			p.buckets[tier] = append(p.buckets[tier][:i], p.buckets[tier][i+1:]...)
			removed = true
			p.publish(tier)
		}
	}

	kept := p.expired[:0]
	for _, rec := range p.expired {
		if rec.credential == credential {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	p.expired = kept

	id := Identity(credential)
	if _, ok := p.status[id]; ok {
		delete(p.status, id)
		removed = true
	}

	if removed {
		p.metrics.RecordRemoved("deleted")
		p.save()
	}
	return removed
}

// Retire moves credential out of tier's active bucket into the expired set,
// where the reclamation sweep will pick it up after the tier's window.
func (p *Pool) Retire(tier catalog.Tier, credential string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(tier, credential)
	if i < 0 {
		return false
	}
	p.buckets[tier] = append(p.buckets[tier][:i], p.buckets[tier][i+1:]...)
	p.expire(tier, credential)
	p.metrics.RecordRemoved("retired")
	p.publish(tier)
	return true
}

// Next returns the credential to use for tier.
//
// With peek set the bucket head is returned unchanged. Otherwise the head is
// charged one request; a head pushed past RequestFrequency is expired and the
// new head returned in its place.
func (p *Pool) Next(tier catalog.Tier, peek bool) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[tier]
	if len(bucket) == 0 {
		return "", false
	}
	if peek {
		return bucket[0].Credential, true
	}
	switch p.charge(tier, 0) {
	case chargeRefused:
		return "", false
	case chargeExpired:
		if len(p.buckets[tier]) == 0 {
			return "", false
		}
		return p.buckets[tier][0].Credential, true
	}
	return bucket[0].Credential, true
}

// Charge records one request against credential in tier without rotating
// the bucket. It is used when a peeked credential completes a dispatch.
func (p *Pool) Charge(tier catalog.Tier, credential string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(tier, credential)
	if i < 0 {
		return false
	}
	return p.charge(tier, i) == charged
}

type chargeOutcome int

const (
	charged chargeOutcome = iota
	chargeRefused
	chargeExpired
)

// charge bills the entry at index i.
func (p *Pool) charge(tier catalog.Tier, i int) chargeOutcome {
	bucket := p.buckets[tier]
	entry := bucket[i]

	cfg := p.tiers[tier]
	if !p.ledger.TryRecordUse(cfg, len(bucket)) {
		return chargeRefused
	}
	p.reaperOnce.Do(p.reaper.Start)

	now := p.now()
	if entry.StartCallTime == nil {
		entry.StartCallTime = &now
	}
	entry.RequestCount++

	if entry.RequestCount > cfg.RequestFrequency {
		p.buckets[tier] = append(bucket[:i:i], bucket[i+1:]...)
		p.expire(tier, entry.Credential)
		p.logger.Info("credential exhausted for tier", "tier", tier, "credential", MaskCredential(entry.Credential))
		p.publish(tier)
		return chargeExpired
	}

	id := Identity(entry.Credential)
	if st, ok := p.status[id][string(tier)]; ok {
		if entry.RequestCount == cfg.RequestFrequency {
			ms := now.UnixMilli()
			st.IsValid = false
			st.InvalidatedTime = &ms
		}
		st.TotalRequestCount++
		p.status[id][string(tier)] = st
		p.save()
	}
	p.publish(tier)
	return charged
}

// Compensate reverses n charges on tier's bucket head. The metered tier's
// daily counter is lowered by the same amount.
func (p *Pool) Compensate(tier catalog.Tier, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[tier]
	if len(bucket) == 0 || n <= 0 {
		return
	}
	head := bucket[0]

	reduced := min(n, head.RequestCount)
	head.RequestCount -= reduced

	p.ledger.Release(p.tiers[tier], reduced)

	id := Identity(head.Credential)
	if st, ok := p.status[id][string(tier)]; ok {
		st.TotalRequestCount = max(0, st.TotalRequestCount-reduced)
		p.status[id][string(tier)] = st
		p.save()
	}

	p.metrics.RecordCompensation(string(tier))
	p.publish(tier)
}

// Reap reactivates expired credentials whose window has elapsed and resets
// the rolling window of active entries first charged at least ExpirationTime ago.
func (p *Pool) Reap() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	changed := false

	kept := p.expired[:0]
	for _, rec := range p.expired {
		cfg, ok := p.tiers[rec.tier]
		if !ok || now.Sub(rec.expiredAt) < cfg.ExpirationTime {
			kept = append(kept, rec)
			continue
		}
		if p.indexOf(rec.tier, rec.credential) < 0 {
			p.buckets[rec.tier] = append(p.buckets[rec.tier], &Entry{
				Credential: rec.credential,
				AddedTime:  now,
			})
		}
		p.resetStatus(rec.credential, rec.tier)
		p.metrics.RecordReclaimed(string(rec.tier), 1)
		changed = true
	}
	p.expired = kept

	for _, tier := range p.order {
		cfg := p.tiers[tier]
		for _, e := range p.buckets[tier] {
			if e.StartCallTime == nil || now.Sub(*e.StartCallTime) < cfg.ExpirationTime {
				continue
			}
			e.RequestCount = 0
			e.StartCallTime = nil
			p.resetStatus(e.Credential, tier)
			changed = true
		}
		p.publish(tier)
	}

	if changed {
		p.logger.Info("reclamation sweep reset credentials", "expired_remaining", len(p.expired))
		p.save()
	}
}

// RemainingCapacity returns the charged dispatches left for tier. For the
// metered tier the daily budget also applies.
func (p *Pool) RemainingCapacity(tier catalog.Tier) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.remaining(tier)
}

func (p *Pool) remaining(tier catalog.Tier) int {
	cfg := p.tiers[tier]
	bucket := p.buckets[tier]

	used := 0
	for _, e := range bucket {
		used += e.RequestCount
	}
	remaining := max(0, len(bucket)*cfg.RequestFrequency-used)

	if cfg.Metered() {
		_, today := p.ledger.Used()
		remaining = min(remaining, max(0, len(bucket)*cfg.DailyAllowance-today))
	}
	return remaining
}

// Count returns the number of active credentials in tier.
func (p *Pool) Count(tier catalog.Tier) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.buckets[tier])
}

// Capacities returns the remaining capacity of every tier.
func (p *Pool) Capacities() map[catalog.Tier]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[catalog.Tier]int, len(p.order))
	for _, tier := range p.order {
		out[tier] = p.remaining(tier)
	}
	return out
}

// Entries returns a copy of tier's active bucket, head first.
func (p *Pool) Entries(tier catalog.Tier) []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Entry, 0, len(p.buckets[tier]))
	for _, e := range p.buckets[tier] {
		cp := *e
		if e.StartCallTime != nil {
			t := *e.StartCallTime
			cp.StartCallTime = &t
		}
		out = append(out, cp)
	}
	return out
}

// ExpiredCount returns how many credentials of tier await reactivation.
func (p *Pool) ExpiredCount(tier catalog.Tier) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.expiredCount(tier)
}

func (p *Pool) expiredCount(tier catalog.Tier) int {
	n := 0
	for _, rec := range p.expired {
		if rec.tier == tier {
			n++
		}
	}
	return n
}

// Status returns a snapshot of the persisted status map.
func (p *Pool) Status() models.StatusMap {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.status.Clone()
}

// DailyUsage reports the first metered tier's daily budget. ok is false when
// no tier is metered.
func (p *Pool) DailyUsage() (models.UsageSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, tier := range p.order {
		cfg := p.tiers[tier]
		if !cfg.Metered() {
			continue
		}
		date, used := p.ledger.Used()
		active := len(p.buckets[tier])
		limit := active * cfg.DailyAllowance
		return models.UsageSnapshot{
			Date:                  date,
			Used:                  used,
			Limit:                 limit,
			Remaining:             max(0, limit-used),
			ActiveCredentialCount: active,
		}, true
	}
	return models.UsageSnapshot{}, false
}

// Start schedules the reclamation task ahead of the first charging dispatch.
func (p *Pool) Start() {
	p.reaperOnce.Do(p.reaper.Start)
}

// Stop halts the reclamation task and waits for a running sweep to finish.
func (p *Pool) Stop() {
	p.reaper.Stop()
}

// Reaping reports whether the reclamation task has been started.
func (p *Pool) Reaping() bool {
	return p.reaper.Running()
}

func (p *Pool) indexOf(tier catalog.Tier, credential string) int {
	for i, e := range p.buckets[tier] {
		if e.Credential == credential {
			return i
		}
	}
	return -1
}

func (p *Pool) expire(tier catalog.Tier, credential string) {
	for _, rec := range p.expired {
		if rec.tier == tier && rec.credential == credential {
			return
		}
	}
	p.expired = append(p.expired, expiredRecord{
		credential: credential,
		tier:       tier,
		expiredAt:  p.now(),
	})
}

func (p *Pool) resetStatus(credential string, tier catalog.Tier) {
	id := Identity(credential)
	if p.status[id] == nil {
		p.status[id] = map[string]models.TokenStatus{}
	}
	p.status[id][string(tier)] = models.TokenStatus{IsValid: true}
}

func (p *Pool) save() {
	if p.store == nil {
		return
	}
	if err := p.store.SaveTokenStatus(p.status.Clone()); err != nil {
		p.logger.Error("failed to save token status", "error", err)
	}
}

func (p *Pool) publish(tier catalog.Tier) {
	if p.metrics == nil {
		return
	}
	p.metrics.SetPoolState(string(tier), len(p.buckets[tier]), p.expiredCount(tier), p.remaining(tier))
	if p.tiers[tier].Metered() {
		_, used := p.ledger.Used()
		p.metrics.SetDailyUsed(used)
	}
}
