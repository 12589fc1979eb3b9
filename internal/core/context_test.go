package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvocationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, InvocationID(ctx))
	assert.Equal(t, ctx, WithInvocationID(ctx, ""))

	tagged := WithInvocationID(ctx, "req-42")
	assert.Equal(t, "req-42", InvocationID(tagged))
	assert.Equal(t, "req-43", InvocationID(WithInvocationID(tagged, "req-43")))
}
