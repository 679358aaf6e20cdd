package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
)

func testConfig() Config {
	return Config{
		PingInterval:      20 * time.Millisecond,
		PingTimeout:       200 * time.Millisecond,
		ReconnectInterval: 10 * time.Millisecond,
	}
}

func TestPeerSendAndReceiveRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	peerA := NewPeer(a, testConfig())
	peerB := NewPeer(b, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go peerA.Run(ctx)
	go peerB.Run(ctx)

	require.NoError(t, peerA.Send(protocol.Message{Type: protocol.MsgHelloAck, HelloAck: &protocol.HelloAckMessage{
		Accepted: true,
	}}))

	select {
	case msg := <-peerB.Inbound():
		require.Equal(t, protocol.MsgHelloAck, msg.Type)
		require.True(t, msg.HelloAck.Accepted)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPeerAutoRepliesToPing(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	peerA := NewPeer(a, testConfig())
	peerB := NewPeer(b, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go peerA.Run(ctx)
	go peerB.Run(ctx)

	var gotPing bool
	peerB.OnPing(func(token uint64) {
		gotPing = true
		require.Equal(t, uint64(77), token)
	})

	require.NoError(t, peerA.Send(protocol.Message{Type: protocol.MsgPing, PingToken: 77}))

	// Drain peerB's inbound (it should see the Ping surfaced to it too).
	select {
	case msg := <-peerB.Inbound():
		require.Equal(t, protocol.MsgPing, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ping on peerB")
	}
	require.True(t, gotPing)

	// peerA should receive the auto-replied Pong.
	select {
	case msg := <-peerA.Inbound():
		require.Equal(t, protocol.MsgPong, msg.Type)
		require.Equal(t, uint64(77), msg.PongToken)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pong on peerA")
	}
}

func TestPeerCloseUnblocksRun(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	peer := NewPeer(a, testConfig())
	done := make(chan error, 1)
	go func() { done <- peer.Run(context.Background()) }()

	require.NoError(t, peer.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestClientRunCallsOnConnectAfterDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client := NewClient(ln.Addr().String(), testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connected := make(chan struct{})
	go func() {
		_ = client.Run(ctx, func(ctx context.Context, peer *Peer) error {
			close(connected)
			return peer.Run(ctx)
		})
	}()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}

	select {
	case conn := <-accepted:
		conn.Close()
	case <-time.After(time.Second):
		t.Fatal("server never accepted a connection")
	}

	client.Stop()
}
