package engine

import (
	"context"
	"sync"
	"time"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/tier"
	"github.com/vantagegate/vantagegate/internal/metrics"
)

// DefaultUsageKey is the quota key for the Alpha Vantage credential.
const DefaultUsageKey = "alphavantage"

// UsageStore stores request accounting state.
type UsageStore interface {
	GetUsage(ctx context.Context, key string) (*core.UsageState, error)
	UpdateUsage(ctx context.Context, key string, state *core.UsageState) error
}

// QuotaTracker counts dispatched requests against the tier's per-minute and
// per-day quotas. It never blocks a request; spacing is enforced by the Scheduler.
type QuotaTracker struct {
	Store  UsageStore
	Policy tier.Policy
	Key    string
	Clock  func() time.Time

	mu sync.Mutex
}

// Usage is a point-in-time view of quota consumption.
type Usage struct {
	Key             string     `json:"key"`
	Tier            string     `json:"tier"`
	MinuteCount     int        `json:"minute_count"`
	MinuteLimit     int        `json:"minute_limit"`
	MinuteStart     time.Time  `json:"minute_start"`
	DayCount        int        `json:"day_count"`
	DayLimit        int        `json:"day_limit,omitempty"`
	DayStart        time.Time  `json:"day_start"`
	LastThrottledAt *time.Time `json:"last_throttled_at,omitempty"`
}

// MinuteRemaining returns the requests left in the current minute window.
func (u Usage) MinuteRemaining() int {
	return remaining(u.MinuteLimit, u.MinuteCount)
}

// DayRemaining returns the requests left today, or -1 when unbounded.
func (u Usage) DayRemaining() int {
	if u.DayLimit <= 0 {
		return -1
	}
	return remaining(u.DayLimit, u.DayCount)
}

// Exhausted reports whether either window has no requests left.
func (u Usage) Exhausted() bool {
	return u.MinuteRemaining() == 0 || u.DayRemaining() == 0
}

// Record counts one dispatched request.
func (q *QuotaTracker) Record(ctx context.Context) error {
	if q == nil || q.Store == nil {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	state, err := q.load(ctx)
	if err != nil {
		return err
	}

	state.MinuteCount++
	state.DayCount++

	if err := q.Store.UpdateUsage(ctx, q.key(), state); err != nil {
		return err
	}

	metrics.SetUsage("minute", state.MinuteCount)
	metrics.SetUsage("day", state.DayCount)
	return nil
}

// RecordThrottled notes a provider throttling signal.
func (q *QuotaTracker) RecordThrottled(ctx context.Context) error {
	if q == nil || q.Store == nil {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	state, err := q.load(ctx)
	if err != nil {
		return err
	}

	now := q.now()
	state.LastThrottledAt = &now

	return q.Store.UpdateUsage(ctx, q.key(), state)
}

// Usage returns the current consumption with expired windows rolled over.
func (q *QuotaTracker) Usage(ctx context.Context) (Usage, error) {
	if q == nil {
		return Usage{}, nil
	}

	usage := Usage{
		Key:         q.key(),
		Tier:        q.Policy.Tier.String(),
		MinuteLimit: q.Policy.RequestsPerMinute,
		DayLimit:    q.Policy.RequestsPerDay,
	}
	if q.Store == nil {
		return usage, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	state, err := q.load(ctx)
	if err != nil {
		return usage, err
	}

	usage.MinuteCount = state.MinuteCount
	usage.MinuteStart = state.MinuteStart
	usage.DayCount = state.DayCount
	usage.DayStart = state.DayStart
	usage.LastThrottledAt = state.LastThrottledAt
	return usage, nil
}

// load fetches state and resets windows that have elapsed.
func (q *QuotaTracker) load(ctx context.Context) (*core.UsageState, error) {
	state, err := q.Store.GetUsage(ctx, q.key())
	if err != nil {
		return nil, err
	}

	now := q.now()
	if state == nil {
		state = &core.UsageState{}
	}

	if state.MinuteStart.IsZero() || !now.Before(state.MinuteStart.Add(time.Minute)) {
		state.MinuteCount = 0
		state.MinuteStart = now
	}

	day := startOfDay(now)
	if !state.DayStart.Equal(day) {
		state.DayCount = 0
		state.DayStart = day
	}

	return state, nil
}

func (q *QuotaTracker) key() string {
	if q == nil || q.Key == "" {
		return DefaultUsageKey
	}
	return q.Key
}

func (q *QuotaTracker) now() time.Time {
	if q != nil && q.Clock != nil {
		return q.Clock().UTC()
	}
	return time.Now().UTC()
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func remaining(limit, count int) int {
	if limit <= 0 {
		return -1
	}
	if count >= limit {
		return 0
	}
	return limit - count
}

// MemoryUsageStore keeps usage state in process memory.
type MemoryUsageStore struct {
	mu    sync.Mutex
	state map[string]core.UsageState
}

// NewMemoryUsageStore returns an empty in-memory store.
func NewMemoryUsageStore() *MemoryUsageStore {
	return &MemoryUsageStore{state: make(map[string]core.UsageState)}
}

func (m *MemoryUsageStore) GetUsage(ctx context.Context, key string) (*core.UsageState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil, nil
	}
	val, ok := m.state[key]
	if !ok {
		return nil, nil
	}
	return &val, nil
}

func (m *MemoryUsageStore) UpdateUsage(ctx context.Context, key string, state *core.UsageState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		m.state = make(map[string]core.UsageState)
	}
	if state == nil {
		delete(m.state, key)
		return nil
	}
	m.state[key] = *state
	return nil
}
