package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) KV[string] {
	t.Helper()
	kv, err := NewBadgerKV[string](t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, kv.Close())
	})
	return kv
}

func TestBadgerKV_GetSet(t *testing.T) {
	kv := newTestKV(t)

	_, found, err := kv.Get("missing")
	assert.NoError(t, err)
	assert.False(t, found)

	err = kv.Set("a", "one")
	assert.NoError(t, err)

	val, found, err := kv.Get("a")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "one", val)

	// Overwrite
	err = kv.Set("a", "two")
	assert.NoError(t, err)
	val, _, _ = kv.Get("a")
	assert.Equal(t, "two", val)
}

func TestBadgerKV_SetIfAbsent(t *testing.T) {
	kv := newTestKV(t)

	written, err := kv.SetIfAbsent("k", "first")
	assert.NoError(t, err)
	assert.True(t, written)

	written, err = kv.SetIfAbsent("k", "second")
	assert.NoError(t, err)
	assert.False(t, written)

	val, found, err := kv.Get("k")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "first", val)
}

func TestBadgerKV_HasAndDelete(t *testing.T) {
	kv := newTestKV(t)

	found, err := kv.Has("k")
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set("k", "v"))

	found, err = kv.Has("k")
	assert.NoError(t, err)
	assert.True(t, found)

	assert.NoError(t, kv.Delete("k"))
	found, _ = kv.Has("k")
	assert.False(t, found)

	// Deleting an absent key is not an error
	assert.NoError(t, kv.Delete("k"))
}

func TestBadgerKV_ForEach(t *testing.T) {
	kv := newTestKV(t)

	require.NoError(t, kv.Set("a", "1"))
	require.NoError(t, kv.Set("b", "2"))

	seen := map[string]string{}
	err := kv.ForEach(func(key, value string) error {
		seen[key] = value
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, seen)
}
