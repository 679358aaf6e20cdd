// Package registry is the master's in-memory database of every client it
// has discovered, paired with, or is currently routing input to. It tracks
// connection lifecycle state and tolerates brief network drops by holding a
// disconnected client's entry in a grace period rather than deleting it
// immediately. The retained entry does not spare a reconnecting client the
// master's PIN flow, which runs on every new connection.
package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
)

// ConnectionState is where a client sits in its connection lifecycle:
//
//	Discovered -> Connecting -> Pairing -> Paired -> Connected
//	                                                      |
//	                                               Disconnected
type ConnectionState uint8

const (
	// Discovered means a UDP Announce was received; no TCP connection yet.
	Discovered ConnectionState = iota
	// Connecting means the TCP control channel handshake is in progress.
	Connecting
	// Pairing means a PIN exchange is in progress.
	Pairing
	// Paired means the PIN was verified and the relationship is stored.
	Paired
	// Connected means the TCP channel is open and input events are flowing.
	Connected
	// Disconnected means the TCP channel closed; the entry is kept for the
	// duration of the reconnect grace period.
	Disconnected
)

func (s ConnectionState) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Connecting:
		return "connecting"
	case Pairing:
		return "pairing"
	case Paired:
		return "paired"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// DefaultGracePeriod is how long a disconnected client's entry is kept
// before the registry considers it gone for good.
const DefaultGracePeriod = 30 * time.Second

const cleanupInterval = 5 * time.Second

// ClientState is the runtime state the master tracks for one client.
type ClientState struct {
	ID                 uuid.UUID
	Name               string
	ConnectionState    ConnectionState
	LatencyMillis      float32
	EventsPerSecond    uint32
	disconnectedAt     time.Time
	hasDisconnectedAt  bool
}

// StateChangeNotifier is notified whenever SetState actually changes a
// tracked client's ConnectionState. Implemented by pkg/eventbus's Bus via
// its PublishClientStateChanged method.
type StateChangeNotifier interface {
	PublishClientStateChanged(clientID, previous, current string) error
}

// Registry is the concurrent client registry. Zero value is not usable;
// construct with New.
type Registry struct {
	clients     *xsync.MapOf[uuid.UUID, ClientState]
	gracePeriod time.Duration
	stopCh      chan struct{}
	notifier    StateChangeNotifier
}

// New creates a Registry with the default reconnect grace period.
func New() *Registry {
	return NewWithGracePeriod(DefaultGracePeriod)
}

// NewWithGracePeriod creates a Registry with a custom reconnect grace
// period and starts its background cleanup loop.
func NewWithGracePeriod(gracePeriod time.Duration) *Registry {
	r := &Registry{
		clients:     xsync.NewMapOf[uuid.UUID, ClientState](),
		gracePeriod: gracePeriod,
		stopCh:      make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// SetNotifier attaches a StateChangeNotifier that is called (best-effort,
// errors are swallowed by the caller's own logging) every time SetState
// changes a client's ConnectionState. Passing nil disables notification.
func (r *Registry) SetNotifier(n StateChangeNotifier) {
	r.notifier = n
}

// Stop terminates the background cleanup loop. Safe to call once.
func (r *Registry) Stop() {
	close(r.stopCh)
}

func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.evictExpired()
		}
	}
}

func (r *Registry) evictExpired() {
	now := time.Now()
	var expired []uuid.UUID
	r.clients.Range(func(id uuid.UUID, c ClientState) bool {
		if c.hasDisconnectedAt && now.Sub(c.disconnectedAt) > r.gracePeriod {
			expired = append(expired, id)
		}
		return true
	})
	for _, id := range expired {
		r.clients.Delete(id)
	}
}

// Upsert registers a new client or overwrites an existing entry's fields.
func (r *Registry) Upsert(state ClientState) {
	r.clients.Store(state.ID, state)
}

// Get returns the tracked state for id, if any.
func (r *Registry) Get(id uuid.UUID) (ClientState, bool) {
	return r.clients.Load(id)
}

// All returns a snapshot of every tracked client.
func (r *Registry) All() []ClientState {
	out := make([]ClientState, 0, r.clients.Size())
	r.clients.Range(func(_ uuid.UUID, c ClientState) bool {
		out = append(out, c)
		return true
	})
	return out
}

// SetState updates a client's connection state. Transitioning into
// Disconnected starts its reconnect grace period; transitioning out of it
// (e.g. back to Connecting on reconnect) clears the grace-period clock.
func (r *Registry) SetState(id uuid.UUID, state ConnectionState) {
	c, ok := r.clients.Load(id)
	if !ok {
		return
	}
	previous := c.ConnectionState
	c.ConnectionState = state
	if state == Disconnected {
		c.disconnectedAt = time.Now()
		c.hasDisconnectedAt = true
	} else {
		c.hasDisconnectedAt = false
	}
	r.clients.Store(id, c)

	if r.notifier != nil && previous != state {
		if err := r.notifier.PublishClientStateChanged(id.String(), previous.String(), state.String()); err != nil {
			log.Debug().Err(err).Str("client_id", id.String()).Msg("registry: failed to publish state change")
		}
	}
}

// InGracePeriod reports whether id is disconnected but still within its
// reconnect grace period, and the remaining duration if so.
func (r *Registry) InGracePeriod(id uuid.UUID) (time.Duration, bool) {
	c, ok := r.clients.Load(id)
	if !ok || !c.hasDisconnectedAt {
		return 0, false
	}
	remaining := r.gracePeriod - time.Since(c.disconnectedAt)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// UpdateLatency records a fresh latency sample for id.
func (r *Registry) UpdateLatency(id uuid.UUID, latencyMillis float32) {
	c, ok := r.clients.Load(id)
	if !ok {
		return
	}
	c.LatencyMillis = latencyMillis
	r.clients.Store(id, c)
}

// Remove deletes a client immediately, bypassing the grace period. Use this
// for explicit user-initiated disconnects, not transient network drops.
func (r *Registry) Remove(id uuid.UUID) {
	r.clients.Delete(id)
}
