package tier

import "github.com/vantagegate/vantagegate/internal/core"

// Capability is the minimum tier a tool requires.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityPremium
	CapabilityEnterprise
)

func (c Capability) String() string {
	switch c {
	case CapabilityPremium:
		return "premium"
	case CapabilityEnterprise:
		return "enterprise"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Gate checks tool capabilities against the active tier.
type Gate struct {
	Active Tier
}

// NewGate returns a gate for the active tier.
func NewGate(active Tier) Gate {
	return Gate{Active: active}
}

// Check returns an AccessDeniedError when the active tier does not grant required.
func (g Gate) Check(feature string, required Capability) error {
	if g.Active.Grants(required) {
		return nil
	}
	return &core.AccessDeniedError{
		Feature:  feature,
		Required: requiredLabel(required),
		Active:   g.Active.String(),
	}
}

func requiredLabel(c Capability) string {
	switch c {
	case CapabilityPremium:
		return "Premium or Enterprise"
	case CapabilityEnterprise:
		return "Enterprise"
	default:
		return c.String()
	}
}
