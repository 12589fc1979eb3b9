package core

import "context"

type invocationIDKey struct{}

// WithInvocationID tags ctx with the ID that registry logs and error
// envelopes report for the call. HTTP requests use their X-Request-ID.
func WithInvocationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationID returns the ID set by WithInvocationID, or "".
func InvocationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(invocationIDKey{}).(string)
	return id
}
