package bridge

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/transport"
)

// fakeWSConn is an in-memory wsConn double driven by channels, so session
// tests don't need a real network listener or a real browser.
type fakeWSConn struct {
	incoming chan []byte
	outgoing chan []byte
	closed   chan struct{}
}

func newFakeWSConn() *fakeWSConn {
	return &fakeWSConn{
		incoming: make(chan []byte, 16),
		outgoing: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeWSConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.incoming:
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, net.ErrClosed
	}
}

func (f *fakeWSConn) WriteMessage(_ int, data []byte) error {
	select {
	case f.outgoing <- data:
		return nil
	case <-f.closed:
		return net.ErrClosed
	}
}

func (f *fakeWSConn) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

// loopbackPeerPair returns two transport.Peers wired to opposite ends of an
// in-memory net.Pipe, so tests can exercise Session without a real TCP
// listener or a real master process.
func loopbackPeerPair() (*transport.Peer, *transport.Peer) {
	a, b := net.Pipe()
	cfg := transport.Config{PingInterval: time.Hour, PingTimeout: time.Hour, ReconnectInterval: time.Hour}
	return transport.NewPeer(a, cfg), transport.NewPeer(b, cfg)
}

func TestSessionForwardsMasterMessageToBrowser(t *testing.T) {
	sessionPeer, masterPeer := loopbackPeerPair()
	ws := newFakeWSConn()
	session := NewSession(ws, sessionPeer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)
	go masterPeer.Run(ctx)

	sessID := uuid.New()
	require.NoError(t, masterPeer.Send(protocol.Message{
		Type:           protocol.MsgPairingRequest,
		PairingRequest: &protocol.PairingRequestMessage{PairingSessionID: sessID, ExpiresAtSecs: 60},
	}))

	select {
	case data := <-ws.outgoing:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, "pairing_request", msg.Type)
		require.Equal(t, sessID.String(), msg.PairingRequest.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for browser message")
	}
}

func TestSessionDropsUnforwardableMasterMessage(t *testing.T) {
	sessionPeer, masterPeer := loopbackPeerPair()
	ws := newFakeWSConn()
	session := NewSession(ws, sessionPeer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)
	go masterPeer.Run(ctx)

	require.NoError(t, masterPeer.Send(protocol.Message{Type: protocol.MsgHello, Hello: &protocol.HelloMessage{
		ClientID:        uuid.New(),
		ProtocolVersion: protocol.ProtocolVersion,
		PlatformID:      protocol.PlatformLinux,
	}}))
	// Follow it with something that does forward, to confirm the Hello was
	// silently skipped rather than jamming the pipeline.
	require.NoError(t, masterPeer.Send(protocol.Message{Type: protocol.MsgDisconnect, DisconnectReason: protocol.DisconnectServerShutdown}))

	select {
	case data := <-ws.outgoing:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, "disconnect", msg.Type)
		require.Equal(t, "shutdown", msg.Disconnect.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for browser message")
	}
}

func TestSessionForwardsBrowserMessageToMaster(t *testing.T) {
	sessionPeer, masterPeer := loopbackPeerPair()
	ws := newFakeWSConn()
	session := NewSession(ws, sessionPeer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)
	go masterPeer.Run(ctx)

	data, err := json.Marshal(Message{
		Type:      "mouse_move",
		MouseMove: &MouseMoveFields{X: 42, Y: 7},
	})
	require.NoError(t, err)
	ws.incoming <- data

	select {
	case wireMsg := <-masterPeer.Inbound():
		require.Equal(t, protocol.MsgMouseMove, wireMsg.Type)
		require.EqualValues(t, 42, wireMsg.MouseMove.X)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for master message")
	}
}
