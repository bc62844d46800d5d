package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ScalarRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_HashOps(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.HSet(ctx, "h", map[string]string{"a": "1", "b": "2"}, time.Minute))
	fields, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, fields)

	require.NoError(t, s.HDel(ctx, "h", "a"))
	fields, err = s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "2"}, fields)
}

func TestMemoryStore_Incr(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryStore_PubSub(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ch, cancel, err := s.Subscribe(ctx, "chan")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, s.Publish(ctx, "chan", "hello"))

	select {
	case msg := <-ch:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestMemoryStore_PipelineAtomicity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p := s.Pipeline()
	p.Set("a", "1", time.Minute)
	p.HSet("b", map[string]string{"x": "y"}, time.Minute)
	p.Incr("c")
	require.NoError(t, p.Exec(ctx))

	val, ok, _ := s.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", val)

	fields, _ := s.HGetAll(ctx, "b")
	assert.Equal(t, map[string]string{"x": "y"}, fields)

	cVal, _, _ := s.Get(ctx, "c")
	assert.Equal(t, "1", cVal)
}

func TestMemoryStore_Del(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, s.Del(ctx, "k"))

	_, ok, _ := s.Get(ctx, "k")
	assert.False(t, ok)
}
