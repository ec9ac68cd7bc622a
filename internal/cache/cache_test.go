package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(mr.Addr(), "", 0), mr
}

func TestClient_GetSetDel(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	val, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	n, err := c.Del(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Del(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClient_Incr(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	first, err := c.Incr(ctx, "seq")
	require.NoError(t, err)
	second, err := c.Incr(ctx, "seq")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestClient_ErrorsWhenUnavailable(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	_, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}
