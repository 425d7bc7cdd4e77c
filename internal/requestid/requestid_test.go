package requestid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RoundTrip(t *testing.T) {
	ctx, id := New(context.Background())
	require.NotEmpty(t, id)

	_, err := uuid.Parse(id)
	assert.NoError(t, err, "request IDs are UUIDs")
	assert.Equal(t, id, FromContext(ctx))
}

func TestNew_UniquePerCall(t *testing.T) {
	_, a := New(context.Background())
	_, b := New(context.Background())
	assert.NotEqual(t, a, b)
}

func TestFromContext_GeneratesWhenAbsent(t *testing.T) {
	id := FromContext(context.Background())
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestWithRequestID_OverridesExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-first")
	ctx = WithRequestID(ctx, "req-second")
	assert.Equal(t, "req-second", FromContext(ctx))
}

func TestWithRequestID_EmptyFallsThrough(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	id := FromContext(ctx)
	assert.NotEmpty(t, id, "empty stored ID is treated as absent")
}
