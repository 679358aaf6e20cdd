// Package eventbus is the master process's internal publish/subscribe bus.
// The registry and the pairing manager can announce state changes (a
// client's connection state flipped, a pairing attempt resolved) on it
// through their notifier hooks, and any in-process observer can Subscribe
// to a topic. The master command registers no subscriber, and the WebSocket
// bridge, a separate process, does not read the bus. It is backed by an embedded
// NATS server, the same pattern the teacher's pkg/pubsub uses for its
// in-process broker, scoped down to what this repo's fan-out actually
// needs: no JetStream, no queue groups, just topic publish/subscribe.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Topics this repo's components publish and subscribe to.
const (
	// TopicClientStateChanged carries a ClientStateChangedEvent whenever the
	// registry's ConnectionState for a client changes.
	TopicClientStateChanged = "kvm.client.state_changed"
	// TopicPairingOutcome carries a PairingOutcomeEvent after every
	// verify-PIN attempt, success or failure.
	TopicPairingOutcome = "kvm.pairing.outcome"
)

// ClientStateChangedEvent is published by the registry on every SetState
// transition.
type ClientStateChangedEvent struct {
	ClientID string `json:"client_id"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// PairingOutcomeEvent is published by the pairing manager after a
// VerifyPairingPin call resolves.
type PairingOutcomeEvent struct {
	ClientID string `json:"client_id,omitempty"`
	SourceIP string `json:"source_ip"`
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
}

// Bus wraps an embedded NATS server and a client connection to it. The zero
// value is not usable; construct with New.
type Bus struct {
	embedded *server.Server
	conn     *nats.Conn
}

// Subscription is a live subscription that can be cancelled.
type Subscription interface {
	Unsubscribe() error
}

// New starts an embedded, in-process NATS server (no TCP listener exposed
// to the network — ports are ephemeral and loopback-only) and connects a
// client to it. Callers should Close the returned Bus on shutdown.
func New() (*Bus, error) {
	opts := &server.Options{
		Host:           "127.0.0.1",
		Port:           server.RANDOM_PORT,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("eventbus: start embedded nats: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("eventbus: embedded nats did not become ready")
	}

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("eventbus: connect to embedded nats: %w", err)
	}

	return &Bus{embedded: ns, conn: nc}, nil
}

// Close closes the client connection (without draining pending messages)
// and shuts down the embedded server.
func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
}

// Publish JSON-encodes payload and publishes it to topic.
func (b *Bus) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("eventbus: marshal payload for %q: %w", topic, err)
	}
	if err := b.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("eventbus: publish %q: %w", topic, err)
	}
	return nil
}

// Subscribe calls handler with the raw JSON payload for every message
// published to topic. Unmarshal errors inside handler are the caller's
// responsibility; the bus itself moves only bytes.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler func([]byte)) (Subscription, error) {
	sub, err := b.conn.Subscribe(topic, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("eventbus: subscribe %q: %w", topic, err)
	}
	go func() {
		<-ctx.Done()
		if uerr := sub.Unsubscribe(); uerr != nil {
			log.Debug().Err(uerr).Str("topic", topic).Msg("eventbus: unsubscribe on context done")
		}
	}()
	return sub, nil
}

// PublishClientStateChanged is a typed convenience wrapper around Publish
// for TopicClientStateChanged.
func (b *Bus) PublishClientStateChanged(clientID, previous, current string) error {
	return b.Publish(TopicClientStateChanged, ClientStateChangedEvent{
		ClientID: clientID,
		Previous: previous,
		Current:  current,
	})
}

// PublishPairingOutcome is a typed convenience wrapper around Publish for
// TopicPairingOutcome.
func (b *Bus) PublishPairingOutcome(ev PairingOutcomeEvent) error {
	return b.Publish(TopicPairingOutcome, ev)
}
