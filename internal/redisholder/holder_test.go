package redisholder

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderSwapReturnsPrevious(t *testing.T) {
	mr := miniredis.RunT(t)
	first := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	second := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := NewHolder(first)
	assert.Same(t, first, h.Get())

	old := h.swap(second)
	assert.Same(t, first, old)
	assert.Same(t, second, h.Get())

	require.NoError(t, old.Close())
	require.NoError(t, h.Close())
}

func TestHolderCloseReleasesClient(t *testing.T) {
	mr := miniredis.RunT(t)
	h := NewHolder(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	require.NoError(t, h.Get().Ping(context.Background()).Err())
	require.NoError(t, h.Close())

	assert.Nil(t, h.Get())
	assert.NoError(t, h.Close(), "closing twice is safe")
}
