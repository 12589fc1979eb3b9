package tier

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/core"
)

func TestPolicyFor(t *testing.T) {
	free := PolicyFor(Free)
	require.Equal(t, 12*time.Second, free.MinDelay)
	require.Equal(t, 5, free.RequestsPerMinute)
	require.Equal(t, 500, free.RequestsPerDay)
	require.False(t, free.Unbounded())

	premium := PolicyFor(Premium)
	require.Equal(t, time.Second, premium.MinDelay)
	require.Equal(t, 75, premium.RequestsPerMinute)
	require.Equal(t, 15000, premium.RequestsPerDay)

	enterprise := PolicyFor(Enterprise)
	require.Equal(t, 50*time.Millisecond, enterprise.MinDelay)
	require.Equal(t, 1200, enterprise.RequestsPerMinute)
	require.True(t, enterprise.Unbounded())
}

func TestPolicyForUnknownCollapsesToFree(t *testing.T) {
	require.Equal(t, PolicyFor(Free), PolicyFor(Tier(42)))
	require.Equal(t, Free, Parse("platinum"))
	require.Equal(t, Free, Parse(""))
	require.Equal(t, Enterprise, Parse(" Enterprise "))
}

func TestFromFlags(t *testing.T) {
	require.Equal(t, Free, FromFlags(false, false))
	require.Equal(t, Premium, FromFlags(true, false))
	require.Equal(t, Enterprise, FromFlags(false, true))
	require.Equal(t, Enterprise, FromFlags(true, true))
}

func TestGateCheck(t *testing.T) {
	cases := []struct {
		name     string
		active   Tier
		required Capability
		allowed  bool
	}{
		{"free basic", Free, CapabilityNone, true},
		{"free premium", Free, CapabilityPremium, false},
		{"free enterprise", Free, CapabilityEnterprise, false},
		{"premium premium", Premium, CapabilityPremium, true},
		{"premium enterprise", Premium, CapabilityEnterprise, false},
		{"enterprise premium", Enterprise, CapabilityPremium, true},
		{"enterprise enterprise", Enterprise, CapabilityEnterprise, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewGate(tc.active).Check("Feature", tc.required)
			if tc.allowed {
				require.NoError(t, err)
				return
			}
			var denied *core.AccessDeniedError
			require.True(t, errors.As(err, &denied))
			require.Equal(t, "Feature", denied.Feature)
			require.Equal(t, tc.active.String(), denied.Active)
			require.Equal(t, core.KindAccessDenied, core.KindOf(err))
		})
	}
}
