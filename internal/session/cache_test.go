package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndGet(t *testing.T) {
	store := NewStore(time.Hour)
	store.Init("user-1", "building-7", "resident")

	entry, ok := store.Get("user-1")
	require.True(t, ok)
	assert.Equal(t, "building-7", entry.BuildingID)
	assert.Equal(t, "resident", entry.Role)
}

func TestInitResetsExistingState(t *testing.T) {
	store := NewStore(time.Hour)
	first := store.Init("user-1", "building-7", "resident")
	first.Set("directory", []string{"stale"})

	store.Init("user-1", "building-7", "resident")
	entry, ok := store.Get("user-1")
	require.True(t, ok)
	_, found := entry.Get("directory")
	assert.False(t, found, "login must not inherit cached state")
}

func TestClear(t *testing.T) {
	store := NewStore(time.Hour)
	store.Init("user-1", "building-7", "resident")
	store.Clear("user-1")

	_, ok := store.Get("user-1")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	store := NewStore(time.Minute)
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Init("user-1", "building-7", "resident")

	current = current.Add(2 * time.Minute)
	_, ok := store.Get("user-1")
	assert.False(t, ok)
}

func TestSweep(t *testing.T) {
	store := NewStore(time.Minute)
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Init("user-1", "building-7", "resident")
	store.Init("user-2", "building-7", "manager")

	current = current.Add(30 * time.Second)
	_, ok := store.Get("user-2") // refreshes last-seen
	require.True(t, ok)

	current = current.Add(45 * time.Second)
	assert.Equal(t, 1, store.Sweep())

	_, ok = store.Get("user-2")
	assert.True(t, ok)
}

func TestEntryValues(t *testing.T) {
	store := NewStore(0)
	entry := store.Init("user-1", "building-7", "resident")

	entry.Set("unread", 3)
	value, ok := entry.Get("unread")
	require.True(t, ok)
	assert.Equal(t, 3, value)
}
