package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/transport"
)

// PingInterval is how often the bridge's own keepalive Ping is sent to the
// master on a session's TCP connection, independent of the browser.
const PingInterval = 5 * time.Second

// wsConn is the subset of *websocket.Conn a Session needs, so tests can
// exercise the translation/forwarding logic with a fake.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session owns one browser WebSocket connection and its dedicated TCP
// connection to the master. It runs three concurrent forwarders, matching
// the teacher's per-connection goroutine shape in
// api/pkg/desktop/ws_input.go generalized to two directions plus a
// keepalive: master -> browser, browser -> master, and a bridge-owned
// keepalive ping that is never itself forwarded to the browser.
type Session struct {
	ws   wsConn
	peer *transport.Peer
}

// NewSession wraps an already-upgraded WebSocket connection and an already-
// dialed (but not yet Run) Peer to the master.
func NewSession(ws wsConn, peer *transport.Peer) *Session {
	return &Session{ws: ws, peer: peer}
}

// Run starts the peer's read/keepalive loop and the three forwarders, and
// blocks until any of them stops (browser disconnects, master connection
// drops, or ctx is cancelled). It closes the WebSocket before returning and
// cancels the context the peer runs under, which makes the peer close the
// TCP connection.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.ws.Close()

	errCh := make(chan error, 3)

	go func() { errCh <- s.peer.Run(ctx) }()
	go func() { errCh <- s.masterToBrowser(ctx) }()
	go func() { errCh <- s.browserToMaster(ctx) }()
	go func() { errCh <- s.keepalive(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// masterToBrowser reads decoded wire messages from the peer's inbound
// channel, translates each to JSON, and writes it as a WebSocket text
// frame. Messages that translate to nothing (see TranslateKVMToBrowser) are
// silently dropped.
func (s *Session) masterToBrowser(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-s.peer.Inbound():
			if !ok {
				return errors.New("bridge: master connection closed")
			}
			browserMsg, forward, err := TranslateKVMToBrowser(msg)
			if err != nil {
				log.Warn().Err(err).Msg("bridge: dropping untranslatable master message")
				continue
			}
			if !forward {
				continue
			}
			data, err := json.Marshal(browserMsg)
			if err != nil {
				return fmt.Errorf("bridge: marshal browser message: %w", err)
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("bridge: write to browser: %w", err)
			}
		}
	}
}

// browserToMaster reads JSON text frames from the browser, translates each
// to a wire message, and sends it to the master over the peer.
func (s *Session) browserToMaster(ctx context.Context) error {
	type readResult struct {
		msgType int
		data    []byte
		err     error
	}

	for {
		resultCh := make(chan readResult, 1)
		go func() {
			mt, data, err := s.ws.ReadMessage()
			resultCh <- readResult{mt, data, err}
		}()

		var res readResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res = <-resultCh:
		}

		if res.err != nil {
			return fmt.Errorf("bridge: read from browser: %w", res.err)
		}
		if res.msgType != websocket.TextMessage {
			continue
		}

		var browserMsg Message
		if err := json.Unmarshal(res.data, &browserMsg); err != nil {
			log.Warn().Err(err).Msg("bridge: dropping malformed browser JSON")
			continue
		}

		wireMsg, err := TranslateBrowserToKVM(browserMsg)
		if err != nil {
			log.Warn().Err(err).Str("type", browserMsg.Type).Msg("bridge: dropping untranslatable browser message")
			continue
		}

		if err := s.peer.Send(wireMsg); err != nil {
			return fmt.Errorf("bridge: send to master: %w", err)
		}
	}
}

// keepalive sends a Ping to the master every PingInterval. The matching
// Pong arrives on the peer's Inbound like any other message, where
// masterToBrowser drops it (TranslateKVMToBrowser does not forward MsgPong),
// so this task has nothing further to do with it.
func (s *Session) keepalive(ctx context.Context) error {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()
	var token uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			token++
			if err := s.peer.Send(protocol.Message{Type: protocol.MsgPing, PingToken: token}); err != nil {
				return fmt.Errorf("bridge: keepalive ping: %w", err)
			}
		}
	}
}

// DialMaster opens a fresh TCP connection to addr and wraps it in an
// unstarted transport.Peer, for use as the second half of a new Session.
func DialMaster(ctx context.Context, addr string, cfg transport.Config) (*transport.Peer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial master %s: %w", addr, err)
	}
	return transport.NewPeer(conn, cfg), nil
}
