package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/core/engine"
	"github.com/vantagegate/vantagegate/internal/core/tier"
)

// SubscriptionInfo describes the active tier and its request budget.
type SubscriptionInfo struct {
	Type         string        `json:"type"`
	IsFree       bool          `json:"isFree"`
	IsPremium    bool          `json:"isPremium"`
	IsEnterprise bool          `json:"isEnterprise"`
	Limits       Limits        `json:"limits"`
	RateLimitMs  int64         `json:"rateLimit"`
	Usage        *engine.Usage `json:"usage,omitempty"`
}

// Limits are the advertised request quotas. RequestsPerDay is nil when unbounded.
type Limits struct {
	RequestsPerMinute int  `json:"requestsPerMinute"`
	RequestsPerDay    *int `json:"requestsPerDay"`
}

// Features lists the feature families available to the active tier.
type Features struct {
	Basic      []string `json:"basic"`
	Premium    []string `json:"premium"`
	Enterprise []string `json:"enterprise"`
}

var (
	basicFeatures = []string{
		"Stock Quotes",
		"Historical Data",
		"Technical Indicators (SMA, RSI, MACD)",
		"Foreign Exchange",
		"Cryptocurrency",
		"News Sentiment",
	}
	premiumFeatures = []string{
		"Company Overview",
		"Financial Statements",
		"Earnings Data",
		"Advanced Technical Indicators",
		"Real-time Data (15-min delay)",
	}
	enterpriseFeatures = []string{
		"Options Data",
		"ETF Profiles",
		"Economic Indicators",
		"Real-time Data (no delay)",
		"Unlimited API Calls",
	}
)

// Subscription returns the subscription info for the active tier, including
// current usage when a quota tracker is configured.
func (r *Registry) Subscription(ctx context.Context) SubscriptionInfo {
	active := r.gate.Active
	policy := tier.PolicyFor(active)

	info := SubscriptionInfo{
		Type:         active.String(),
		IsFree:       active == tier.Free,
		IsPremium:    active == tier.Premium,
		IsEnterprise: active == tier.Enterprise,
		Limits:       Limits{RequestsPerMinute: policy.RequestsPerMinute},
		RateLimitMs:  policy.MinDelay.Milliseconds(),
	}
	if !policy.Unbounded() {
		perDay := policy.RequestsPerDay
		info.Limits.RequestsPerDay = &perDay
	}

	if r.quota != nil {
		usage, err := r.quota.Usage(ctx)
		if err != nil {
			r.logWarn("Usage lookup failed", zap.Error(err))
		} else {
			info.Usage = &usage
		}
	}
	return info
}

func (r *Registry) subscriptionInfo(ctx context.Context) (any, error) {
	return r.Subscription(ctx), nil
}

func (r *Registry) availableFeatures(context.Context) (any, error) {
	features := Features{
		Basic:      append([]string(nil), basicFeatures...),
		Premium:    []string{},
		Enterprise: []string{},
	}
	if r.gate.Active.Grants(tier.CapabilityPremium) {
		features.Premium = append([]string(nil), premiumFeatures...)
	}
	if r.gate.Active.Grants(tier.CapabilityEnterprise) {
		features.Enterprise = append([]string(nil), enterpriseFeatures...)
	}
	return features, nil
}
