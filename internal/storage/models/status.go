package models

// TokenStatus is the externally reported view of one credential in one tier.
type TokenStatus struct {
	IsValid bool `json:"isValid"`

	// InvalidatedTime is a unix timestamp in milliseconds
	InvalidatedTime   *int64 `json:"invalidatedTime"`
	TotalRequestCount int    `json:"totalRequestCount"`
}

// StatusMap is keyed by credential identity, then by tier name.
type StatusMap map[string]map[string]TokenStatus

// Clone returns a deep copy safe to hand out to readers.
func (m StatusMap) Clone() StatusMap {
	out := make(StatusMap, len(m))
	for identity, tiers := range m {
		inner := make(map[string]TokenStatus, len(tiers))
		for tier, st := range tiers {
			if st.InvalidatedTime != nil {
				ts := *st.InvalidatedTime
				st.InvalidatedTime = &ts
			}
			inner[tier] = st
		}
		out[identity] = inner
	}
	return out
}

// DailyUsage maps a YYYY-MM-DD date key to the metered tier's usage count.
type DailyUsage map[string]int

// Clone returns a copy of the usage map.
func (d DailyUsage) Clone() DailyUsage {
	out := make(DailyUsage, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// UsageSnapshot reports the metered tier's daily budget.
type UsageSnapshot struct {
	Date                  string `json:"date"`
	Used                  int    `json:"used"`
	Limit                 int    `json:"limit"`
	Remaining             int    `json:"remaining"`
	ActiveCredentialCount int    `json:"activeCredentialCount"`
}
