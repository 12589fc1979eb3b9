package registry

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Call is one tool invocation in a batch.
type Call struct {
	Tool string         `json:"tool" yaml:"tool"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
}

// Outcome is the result of one batched call. Exactly one of Result or Err is set.
type Outcome struct {
	Call   Call
	Result any
	Err    error
}

// InvokeAll runs calls with at most concurrency in flight and returns the
// outcomes in call order. A failed call does not stop the others; provider
// requests are still spaced by the executor.
func (r *Registry) InvokeAll(ctx context.Context, calls []Call, concurrency int) []Outcome {
	if concurrency < 1 {
		concurrency = 1
	}

	outcomes := make([]Outcome, len(calls))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, call := range calls {
		g.Go(func() error {
			outcomes[i].Call = call
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result, outcomes[i].Err = r.Invoke(ctx, call.Tool, call.Args)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
