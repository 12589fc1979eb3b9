// Package tier holds subscription tiers, their rate policies and the
// capability gate that guards premium tools.
package tier

import (
	"strings"
	"time"
)

// Tier is an Alpha Vantage subscription level.
type Tier int

const (
	Free Tier = iota
	Premium
	Enterprise
)

// String returns the lowercase tier name.
func (t Tier) String() string {
	switch t {
	case Premium:
		return "premium"
	case Enterprise:
		return "enterprise"
	default:
		return "free"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Parse converts a tier name. Anything unrecognised collapses to Free.
func Parse(value string) Tier {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "premium":
		return Premium
	case "enterprise":
		return Enterprise
	default:
		return Free
	}
}

// FromFlags derives the tier from the two subscription flags. Enterprise wins.
func FromFlags(premium, enterprise bool) Tier {
	switch {
	case enterprise:
		return Enterprise
	case premium:
		return Premium
	default:
		return Free
	}
}

// Grants reports whether the tier may use tools requiring c.
func (t Tier) Grants(c Capability) bool {
	switch c {
	case CapabilityNone:
		return true
	case CapabilityPremium:
		return t == Premium || t == Enterprise
	case CapabilityEnterprise:
		return t == Enterprise
	default:
		return false
	}
}

// Policy is the request budget for a tier.
type Policy struct {
	Tier              Tier          `json:"type"`
	MinDelay          time.Duration `json:"-"`
	RequestsPerMinute int           `json:"requests_per_minute"`
	// RequestsPerDay is zero when the tier has no daily quota.
	RequestsPerDay int `json:"requests_per_day"`
}

// Unbounded reports whether the policy has no daily quota.
func (p Policy) Unbounded() bool {
	return p.RequestsPerDay <= 0
}

var policies = map[Tier]Policy{
	Free: {
		Tier:              Free,
		MinDelay:          12 * time.Second,
		RequestsPerMinute: 5,
		RequestsPerDay:    500,
	},
	Premium: {
		Tier:              Premium,
		MinDelay:          time.Second,
		RequestsPerMinute: 75,
		RequestsPerDay:    15000,
	},
	Enterprise: {
		Tier:              Enterprise,
		MinDelay:          50 * time.Millisecond,
		RequestsPerMinute: 1200,
	},
}

// PolicyFor returns the policy of t, or the Free policy for unknown values.
func PolicyFor(t Tier) Policy {
	if p, ok := policies[t]; ok {
		return p
	}
	return policies[Free]
}
