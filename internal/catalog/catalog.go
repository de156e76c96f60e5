// Package catalog holds the fixed set of model tiers and logical models the
// gateway serves, along with the policy for downgrading the flagship model.
package catalog

import (
	"errors"
	"time"
)

// ErrUnknownModel is returned when a requested model is not in the catalog
var ErrUnknownModel = errors.New("unknown model")

// Tier identifies a credential bucket with its own frequency limit and window.
type Tier string

const (
	TierGrok2             Tier = "grok-2"
	TierGrok3             Tier = "grok-3"
	TierGrok3DeepSearch   Tier = "grok-3-deepsearch"
	TierGrok3DeeperSearch Tier = "grok-3-deepersearch"
	TierGrok3Reasoning    Tier = "grok-3-reasoning"
	TierGrok4             Tier = "grok-4"
	TierGrok4Free         Tier = "grok-4-free"
)

// TierConfig bounds how often a single credential may be charged in a tier.
type TierConfig struct {
	Name Tier

	// RequestFrequency is the max number of charged dispatches per window
	RequestFrequency int

	// ExpirationTime is the length of the quota window
	ExpirationTime time.Duration

	// Restricted tiers only receive credentials through AddRestricted
	Restricted bool

	// DailyAllowance > 0 marks the metered-shared tier; the daily cap is
	// DailyAllowance multiplied by the number of active credentials
	DailyAllowance int
}

// Metered reports whether the tier is bounded by the daily usage ledger.
func (c TierConfig) Metered() bool {
	return c.DailyAllowance > 0
}

// Behavior selects the extraction rule applied to upstream events.
type Behavior int

const (
	BehaviorPlain Behavior = iota
	BehaviorSearch
	BehaviorDeepSearch
	BehaviorReasoning
)

func (b Behavior) String() string {
	switch b {
	case BehaviorSearch:
		return "search"
	case BehaviorDeepSearch:
		return "deepsearch"
	case BehaviorReasoning:
		return "reasoning"
	default:
		return "plain"
	}
}

// Model is a logical model identifier exposed to clients.
type Model struct {
	ID       string
	Tier     Tier
	Behavior Behavior

	// Upstream is the model name sent in the conversation payload
	Upstream string

	// SingleTurn models only see the final user turn
	SingleTurn bool

	// ImageGen models answer with a generated image
	ImageGen bool

	// DeepsearchPreset is "default" or "deeper" for deep-search models
	DeepsearchPreset string
}

// Catalog is the read-only set of tiers and models.
type Catalog struct {
	tiers  map[Tier]TierConfig
	order  []Tier
	models map[string]Model
	ids    []string
}

// New builds a catalog from tier configs and models. Models referencing a
// tier that is not configured are dropped.
func New(tiers []TierConfig, models []Model) *Catalog {
	c := &Catalog{
		tiers:  make(map[Tier]TierConfig, len(tiers)),
		models: make(map[string]Model, len(models)),
	}
	for _, t := range tiers {
		if _, ok := c.tiers[t.Name]; !ok {
			c.order = append(c.order, t.Name)
		}
		c.tiers[t.Name] = t
	}
	for _, m := range models {
		if _, ok := c.tiers[m.Tier]; !ok {
			continue
		}
		if _, ok := c.models[m.ID]; !ok {
			c.ids = append(c.ids, m.ID)
		}
		c.models[m.ID] = m
	}
	return c
}

// Default returns the catalog of the grok upstream.
func Default() *Catalog {
	return New(DefaultTiers(), DefaultModels())
}

// DefaultTiers returns the stock tier configuration.
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Name: TierGrok2, RequestFrequency: 30, ExpirationTime: time.Hour},
		{Name: TierGrok3, RequestFrequency: 20, ExpirationTime: 2 * time.Hour},
		{Name: TierGrok3DeepSearch, RequestFrequency: 10, ExpirationTime: 24 * time.Hour},
		{Name: TierGrok3DeeperSearch, RequestFrequency: 3, ExpirationTime: 24 * time.Hour},
		{Name: TierGrok3Reasoning, RequestFrequency: 10, ExpirationTime: 24 * time.Hour},
		{Name: TierGrok4, RequestFrequency: 20, ExpirationTime: 2 * time.Hour, Restricted: true},
		{Name: TierGrok4Free, RequestFrequency: 10, ExpirationTime: 24 * time.Hour, DailyAllowance: 10},
	}
}

// DefaultModels returns the stock logical models.
func DefaultModels() []Model {
	return []Model{
		{ID: "grok-2", Tier: TierGrok2, Upstream: "grok-latest"},
		{ID: "grok-2-imageGen", Tier: TierGrok2, Upstream: "grok-latest", SingleTurn: true, ImageGen: true},
		{ID: "grok-2-search", Tier: TierGrok2, Behavior: BehaviorSearch, Upstream: "grok-latest"},
		{ID: "grok-3", Tier: TierGrok3, Upstream: "grok-3"},
		{ID: "grok-3-search", Tier: TierGrok3, Behavior: BehaviorSearch, Upstream: "grok-3"},
		{ID: "grok-3-imageGen", Tier: TierGrok3, Upstream: "grok-3", SingleTurn: true, ImageGen: true},
		{ID: "grok-3-deepsearch", Tier: TierGrok3DeepSearch, Behavior: BehaviorDeepSearch, Upstream: "grok-3", SingleTurn: true, DeepsearchPreset: "default"},
		{ID: "grok-3-deepersearch", Tier: TierGrok3DeeperSearch, Behavior: BehaviorDeepSearch, Upstream: "grok-3", DeepsearchPreset: "deeper"},
		{ID: "grok-3-reasoning", Tier: TierGrok3Reasoning, Behavior: BehaviorReasoning, Upstream: "grok-3"},
		{ID: "grok-4", Tier: TierGrok4, Upstream: "grok-4"},
		{ID: "grok-4-free", Tier: TierGrok4Free, Upstream: "grok-4"},
	}
}

// Lookup returns the model registered under id.
func (c *Catalog) Lookup(id string) (Model, error) {
	m, ok := c.models[id]
	if !ok {
		return Model{}, ErrUnknownModel
	}
	return m, nil
}

// Models returns all models in registration order.
func (c *Catalog) Models() []Model {
	out := make([]Model, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.models[id])
	}
	return out
}

// Tier returns the config of a tier.
func (c *Catalog) Tier(t Tier) (TierConfig, bool) {
	cfg, ok := c.tiers[t]
	return cfg, ok
}

// Tiers returns all tier configs in registration order.
func (c *Catalog) Tiers() []TierConfig {
	out := make([]TierConfig, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.tiers[t])
	}
	return out
}
