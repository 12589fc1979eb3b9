// Package registry exposes the Alpha Vantage operations as named tools with
// declared input schemas.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/engine"
	"github.com/vantagegate/vantagegate/internal/core/normalize"
	"github.com/vantagegate/vantagegate/internal/core/tier"
	"github.com/vantagegate/vantagegate/internal/metrics"
)

// Descriptor declares one tool.
type Descriptor struct {
	Name        string
	Description string
	Schema      Schema
	Capability  tier.Capability
	// Feature names the tool in access denied errors.
	Feature string
	// Request builds the provider params from validated args.
	Request func(Args) core.Params
	// Normalize selects the payload normalizer for validated args.
	Normalize func(Args) normalize.Func
	// Local answers the tool without a provider request.
	Local func(context.Context) (any, error)
}

// ToolInfo is the public listing of a tool.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Capability  tier.Capability `json:"capability"`
	InputSchema map[string]any  `json:"inputSchema"`
}

// Registry validates, gates and dispatches tool invocations.
type Registry struct {
	exec   engine.Executor
	gate   tier.Gate
	quota  *engine.QuotaTracker
	logger *logging.Logger

	tools []Descriptor
	index map[string]int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the invocation logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithQuota attaches the usage tracker reported by get_subscription_info.
func WithQuota(quota *engine.QuotaTracker) Option {
	return func(r *Registry) {
		r.quota = quota
	}
}

// New builds the registry for the active tier. The tool set is fixed afterwards.
func New(exec engine.Executor, active tier.Tier, opts ...Option) *Registry {
	r := &Registry{
		exec: exec,
		gate: tier.NewGate(active),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.tools = r.catalog()
	r.index = make(map[string]int, len(r.tools))
	for i, d := range r.tools {
		if _, dup := r.index[d.Name]; dup {
			panic(fmt.Sprintf("registry: duplicate tool %q", d.Name))
		}
		r.index[d.Name] = i
	}
	return r
}

// Tier returns the active tier.
func (r *Registry) Tier() tier.Tier {
	return r.gate.Active
}

// List returns every tool in registration order.
func (r *Registry) List() []ToolInfo {
	out := make([]ToolInfo, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, ToolInfo{
			Name:        d.Name,
			Description: d.Description,
			Capability:  d.Capability,
			InputSchema: d.Schema.JSONSchema(),
		})
	}
	return out
}

// Describe returns the descriptor registered under name.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.tools[i], true
}

// Invoke validates args, checks the tool's capability and returns the
// normalized result.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (result any, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	invocationID := core.InvocationID(ctx)
	if invocationID == "" {
		invocationID = uuid.NewString()
		ctx = core.WithInvocationID(ctx, invocationID)
	}

	desc, ok := r.Describe(name)
	label := name
	if !ok {
		label = "unknown"
	}

	defer func() {
		duration := time.Since(start)
		status := "success"
		if err != nil {
			status = string(core.KindOf(err))
			if status == "" {
				status = "error"
			}
		}
		metrics.RecordToolInvocation(label, status, duration)

		fields := []zap.Field{
			zap.String("tool", name),
			zap.String("invocation_id", invocationID),
			zap.String("status", status),
			zap.Duration("duration", duration),
		}
		if err != nil {
			r.logInfo("Tool invocation failed", append(fields, zap.Error(err))...)
			return
		}
		r.logDebug("Tool invocation completed", fields...)
	}()

	if !ok {
		return nil, &core.UnknownToolError{Name: name}
	}

	validated, err := desc.Schema.Validate(desc.Name, args)
	if err != nil {
		return nil, err
	}

	if err := r.gate.Check(desc.Feature, desc.Capability); err != nil {
		return nil, err
	}

	if desc.Local != nil {
		return desc.Local(ctx)
	}

	if r.exec == nil {
		return nil, &core.TransportError{Function: desc.Name, Err: errors.New("no executor configured")}
	}
	payload, err := r.exec.Execute(ctx, desc.Request(validated))
	if err != nil {
		return nil, err
	}

	return normalizePayload(desc, validated, payload)
}

func normalizePayload(desc Descriptor, args Args, payload core.Payload) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &core.NormalizationError{Tool: desc.Name, Err: fmt.Errorf("normalizer panic: %v", rec)}
		}
	}()

	if desc.Normalize == nil {
		return normalize.PassThrough(payload)
	}

	out, err := desc.Normalize(args)(payload)
	if err != nil {
		var norm *core.NormalizationError
		if errors.As(err, &norm) && norm.Tool == "" {
			norm.Tool = desc.Name
		}
		return nil, err
	}
	return out, nil
}

func (r *Registry) logDebug(msg string, fields ...zap.Field) {
	if r.logger != nil {
		r.logger.Debug(msg, fields...)
	}
}

func (r *Registry) logInfo(msg string, fields ...zap.Field) {
	if r.logger != nil {
		r.logger.Info(msg, fields...)
	}
}

func (r *Registry) logWarn(msg string, fields ...zap.Field) {
	if r.logger != nil {
		r.logger.Warn(msg, fields...)
	}
}
