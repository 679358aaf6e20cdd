// Package transport runs the framed TCP connection to a single peer: one
// instance per client on the master side, one instance (to the master) on
// the client side. Each Peer owns three concurrent activities on its
// connection — a framed read loop, a mutex-serialized writer, and a
// keepalive ping/pong loop — matching the per-peer connection model the
// wire protocol is designed around.
package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
)

// Config tunes a Peer's keepalive and reconnect behavior.
type Config struct {
	// PingInterval is how often a keepalive Ping is sent.
	PingInterval time.Duration
	// PingTimeout is how long to wait for the matching Pong before the
	// connection is considered dead and closed.
	PingTimeout time.Duration
	// ReconnectInterval is how long a Client waits between dial attempts.
	ReconnectInterval time.Duration
}

// DefaultConfig matches the reference deployment's tuning.
func DefaultConfig() Config {
	return Config{
		PingInterval:      5 * time.Second,
		PingTimeout:       15 * time.Second,
		ReconnectInterval: 5 * time.Second,
	}
}

var (
	ErrClosed = errors.New("transport: peer closed")
)

// Peer wraps one TCP connection to a remote endpoint, framing reads and
// writes around the wire protocol's codec.
type Peer struct {
	conn    net.Conn
	cfg     Config
	seq     protocol.SequenceCounter
	inbound chan protocol.Message

	writeMu sync.Mutex

	mu                sync.Mutex
	havePendingPing   bool
	pendingPingSentAt time.Time
	nextPingToken     uint64
	onPing            func(token uint64)

	closeOnce sync.Once
	done      chan struct{}
}

// NewPeer wraps conn. The returned Peer does not start reading or sending
// keepalives until Run is called.
func NewPeer(conn net.Conn, cfg Config) *Peer {
	return &Peer{
		conn:    conn,
		cfg:     cfg,
		inbound: make(chan protocol.Message, 64),
		done:    make(chan struct{}),
	}
}

// Inbound delivers every decoded message read from the connection,
// including Ping messages (surfaced here as well as auto-replied to, so
// application logic can estimate round-trip latency). The channel is closed
// when the read loop exits, so a `for range` over Inbound terminates on
// disconnect.
func (p *Peer) Inbound() <-chan protocol.Message {
	return p.inbound
}

// OnPing registers a callback invoked whenever a Ping is received, with the
// token carried on the wire — useful for latency estimation.
func (p *Peer) OnPing(fn func(token uint64)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onPing = fn
}

// Send encodes and writes msg, serialized against concurrent writers.
func (p *Peer) Send(msg protocol.Message) error {
	encoded, err := protocol.Encode(msg, p.seq.Next(), uint64(time.Now().UnixMicro()))
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err = p.conn.Write(encoded)
	return err
}

// Run starts the read loop and keepalive loop and blocks until the
// connection is closed, ctx is cancelled, or an unrecoverable read/write
// error occurs. It always closes the underlying connection before
// returning.
func (p *Peer) Run(ctx context.Context) error {
	defer p.Close()

	readErrCh := make(chan error, 1)
	go func() { readErrCh <- p.readLoop() }()

	keepaliveErrCh := make(chan error, 1)
	go func() { keepaliveErrCh <- p.keepaliveLoop() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-readErrCh:
		return err
	case err := <-keepaliveErrCh:
		return err
	case <-p.done:
		return ErrClosed
	}
}

// readLoop implements the framed read discipline: read exactly the 24-byte
// header, parse the declared payload length, read that many bytes, then
// decode. A malformed payload is logged and the frame is skipped; any other
// read error is fatal and closes the connection.
func (p *Peer) readLoop() error {
	defer close(p.inbound)
	header := make([]byte, protocol.HeaderSize)
	for {
		if _, err := io.ReadFull(p.conn, header); err != nil {
			return err
		}
		payloadLength := binary.BigEndian.Uint32(header[4:8])

		frame := make([]byte, protocol.HeaderSize+int(payloadLength))
		copy(frame, header)
		if payloadLength > 0 {
			if _, err := io.ReadFull(p.conn, frame[protocol.HeaderSize:]); err != nil {
				return err
			}
		}

		msg, _, err := protocol.Decode(frame)
		if err != nil {
			if errors.Is(err, protocol.ErrMalformedPayload) {
				log.Warn().Err(err).Msg("transport: skipping malformed frame")
				continue
			}
			return err
		}

		if msg.Type == protocol.MsgPing {
			p.mu.Lock()
			onPing := p.onPing
			p.mu.Unlock()
			if onPing != nil {
				onPing(msg.PingToken)
			}
			if err := p.Send(protocol.Message{Type: protocol.MsgPong, PongToken: msg.PingToken}); err != nil {
				return err
			}
		}
		if msg.Type == protocol.MsgPong {
			p.mu.Lock()
			p.havePendingPing = false
			p.mu.Unlock()
		}

		select {
		case p.inbound <- msg:
		case <-p.done:
			return ErrClosed
		}
	}
}

// keepaliveLoop sends a Ping every PingInterval and closes the connection if
// the previous Ping's Pong never arrived within PingTimeout.
func (p *Peer) keepaliveLoop() error {
	ticker := time.NewTicker(p.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return ErrClosed
		case <-ticker.C:
			p.mu.Lock()
			if p.havePendingPing && time.Since(p.pendingPingSentAt) > p.cfg.PingTimeout {
				p.mu.Unlock()
				return errors.New("transport: keepalive timeout")
			}
			p.nextPingToken++
			token := p.nextPingToken
			p.havePendingPing = true
			p.pendingPingSentAt = time.Now()
			p.mu.Unlock()

			if err := p.Send(protocol.Message{Type: protocol.MsgPing, PingToken: token}); err != nil {
				return err
			}
		}
	}
}

// Close releases the connection and unblocks Run. Safe to call more than
// once and from any goroutine; a suspended read or write always releases
// its lock on error, so closing never deadlocks a concurrent Send.
func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.conn.Close()
	})
	return err
}

// Client manages the reconnect loop used on the client side: it redials the
// master at ReconnectInterval while Running, and on each successful connect
// calls onConnect to let the caller send its Hello and process inbound
// messages before Run blocks on the connection's lifetime.
type Client struct {
	addr    string
	cfg     Config
	dial    func(ctx context.Context, addr string) (net.Conn, error)
	running chan struct{}
	stopped chan struct{}
}

// NewClient creates a reconnecting Client targeting addr.
func NewClient(addr string, cfg Config) *Client {
	return &Client{
		addr: addr,
		cfg:  cfg,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
		running: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run redials until ctx is cancelled or Stop is called. onConnect is
// invoked with a fresh, unstarted Peer for each successful connection; it
// should send the Hello handshake message and spawn any inbound-message
// consumers before returning. Run then blocks on Peer.Run and, once that
// returns, waits ReconnectInterval before dialing again.
func (c *Client) Run(ctx context.Context, onConnect func(ctx context.Context, peer *Peer) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopped:
			return nil
		default:
		}

		conn, err := c.dial(ctx, c.addr)
		if err != nil {
			log.Warn().Err(err).Str("addr", c.addr).Msg("transport: dial failed, retrying")
			if !c.sleep(ctx, c.cfg.ReconnectInterval) {
				return ctx.Err()
			}
			continue
		}

		peer := NewPeer(conn, c.cfg)
		if err := onConnect(ctx, peer); err != nil {
			log.Warn().Err(err).Msg("transport: onConnect failed")
			_ = peer.Close()
			if !c.sleep(ctx, c.cfg.ReconnectInterval) {
				return ctx.Err()
			}
			continue
		}

		if err := peer.Run(ctx); err != nil {
			log.Info().Err(err).Msg("transport: connection lost, reconnecting")
		}

		if !c.sleep(ctx, c.cfg.ReconnectInterval) {
			return ctx.Err()
		}
	}
}

// Stop terminates the reconnect loop after the current attempt finishes.
func (c *Client) Stop() {
	select {
	case <-c.stopped:
	default:
		close(c.stopped)
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.stopped:
		return false
	case <-time.After(d):
		return true
	}
}
