package catalog

// FallbackRule downgrades requests for Model to the Fallback tier when the
// Restricted tier has no credential.
type FallbackRule struct {
	Model      string `toml:"model"`
	Restricted Tier   `toml:"restricted"`
	Fallback   Tier   `toml:"fallback"`
}

// DefaultFallbacks returns the stock flagship downgrade rule.
func DefaultFallbacks() []FallbackRule {
	return []FallbackRule{
		{Model: "grok-4", Restricted: TierGrok4, Fallback: TierGrok4Free},
	}
}

// Availability answers the two questions the fallback policy depends on.
type Availability interface {
	Count(tier Tier) int
	RemainingCapacity(tier Tier) int
}

// Decision is the outcome of applying fallback rules to a model.
type Decision int

const (
	// UseRequested keeps the model's own tier
	UseRequested Decision = iota
	// UseFallback downgrades to the rule's fallback tier
	UseFallback
	// Reject means neither tier can serve the request
	Reject
)

// ResolveTier applies the first rule matching model.ID. It returns the tier to
// charge and the decision taken.
func ResolveTier(rules []FallbackRule, model Model, avail Availability) (Tier, Decision) {
	for _, r := range rules {
		if r.Model != model.ID {
			continue
		}
		if avail.Count(r.Restricted) > 0 {
			return r.Restricted, UseRequested
		}
		if avail.RemainingCapacity(r.Fallback) > 0 {
			return r.Fallback, UseFallback
		}
		return model.Tier, Reject
	}
	return model.Tier, UseRequested
}
