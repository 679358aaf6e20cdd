package registry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func makeClient(name string) ClientState {
	return ClientState{ID: uuid.New(), Name: name, ConnectionState: Discovered}
}

func TestRegistryStartsEmpty(t *testing.T) {
	r := New()
	defer r.Stop()
	require.Empty(t, r.All())
}

func TestUpsertAddsClient(t *testing.T) {
	r := New()
	defer r.Stop()
	c := makeClient("dev-linux")
	r.Upsert(c)
	got, ok := r.Get(c.ID)
	require.True(t, ok)
	require.Equal(t, "dev-linux", got.Name)
}

func TestUpsertUpdatesExistingClient(t *testing.T) {
	r := New()
	defer r.Stop()
	c := makeClient("dev-linux")
	r.Upsert(c)

	c.Name = "dev-linux-updated"
	c.ConnectionState = Connected
	r.Upsert(c)

	got, ok := r.Get(c.ID)
	require.True(t, ok)
	require.Equal(t, "dev-linux-updated", got.Name)
	require.Equal(t, Connected, got.ConnectionState)
}

func TestSetStateUpdatesConnectionState(t *testing.T) {
	r := New()
	defer r.Stop()
	c := makeClient("test")
	r.Upsert(c)
	r.SetState(c.ID, Connected)
	got, _ := r.Get(c.ID)
	require.Equal(t, Connected, got.ConnectionState)
}

func TestRemoveDeletesClient(t *testing.T) {
	r := New()
	defer r.Stop()
	c := makeClient("test")
	r.Upsert(c)
	r.Remove(c.ID)
	_, ok := r.Get(c.ID)
	require.False(t, ok)
}

func TestUpdateLatencyChangesLatencyValue(t *testing.T) {
	r := New()
	defer r.Stop()
	c := makeClient("test")
	r.Upsert(c)
	r.UpdateLatency(c.ID, 3.7)
	got, _ := r.Get(c.ID)
	require.InDelta(t, 3.7, got.LatencyMillis, 0.001)
}

func TestSetStateDisconnectedStartsGracePeriod(t *testing.T) {
	r := NewWithGracePeriod(time.Hour)
	defer r.Stop()
	c := makeClient("test")
	r.Upsert(c)
	r.SetState(c.ID, Disconnected)

	remaining, ok := r.InGracePeriod(c.ID)
	require.True(t, ok)
	require.Greater(t, remaining, 59*time.Minute)
}

func TestReconnectClearsGracePeriod(t *testing.T) {
	r := NewWithGracePeriod(time.Hour)
	defer r.Stop()
	c := makeClient("test")
	r.Upsert(c)
	r.SetState(c.ID, Disconnected)
	r.SetState(c.ID, Connecting)

	_, ok := r.InGracePeriod(c.ID)
	require.False(t, ok)
}

func TestEvictExpiredRemovesStaleDisconnectedEntries(t *testing.T) {
	r := NewWithGracePeriod(10 * time.Millisecond)
	defer r.Stop()
	c := makeClient("test")
	r.Upsert(c)
	r.SetState(c.ID, Disconnected)

	// Eviction happens on the cleanup loop's tick, so allow for a full
	// cleanupInterval to pass.
	require.Eventually(t, func() bool {
		_, ok := r.Get(c.ID)
		return !ok
	}, 2*cleanupInterval, 5*time.Millisecond)
}

func TestConnectionStateString(t *testing.T) {
	require.Equal(t, "paired", Paired.String())
	require.Equal(t, "disconnected", Disconnected.String())
}
