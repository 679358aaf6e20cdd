package kvm

import (
	"context"
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/config"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/eventbus"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/layout"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/pairing"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/registry"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/router"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/transport"
)

func newMasterCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "master",
		Short: "Run the master: the machine whose keyboard and mouse are shared",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaster(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "kvm.toml", "path to the master TOML configuration file")
	return cmd
}

func runMaster(ctx context.Context, configPath string) error {
	cfg, err := config.LoadMasterConfig(configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("master: no config file, using defaults")
		cfg = config.MasterConfig{Network: config.DefaultNetworkSection()}
	}

	bus, err := eventbus.New()
	if err != nil {
		return fmt.Errorf("master: start event bus: %w", err)
	}
	defer bus.Close()

	reg := registry.New()
	defer reg.Stop()
	reg.SetNotifier(bus)

	pairingMgr := pairing.New()
	pairingMgr.SetNotifier(&pairingNotifierAdapter{bus: bus})

	masterWidth, masterHeight := cfg.Layout.MasterScreenWidth, cfg.Layout.MasterScreenHeight
	if masterWidth == 0 || masterHeight == 0 {
		masterWidth, masterHeight = 1920, 1080
	}

	clients := newClientPeers()
	hotkeyVK := uint8(0x91) // VK_SCROLL, the reference deployment's default hotkey
	r := router.New(masterWidth, masterHeight, clients, noopCursorController{}, hotkeyVK)

	for _, entry := range cfg.Layout.Clients {
		clientID, err := uuid.Parse(entry.ClientID)
		if err != nil {
			log.Warn().Err(err).Str("client_id", entry.ClientID).Msg("master: skipping unparsable saved client")
			continue
		}
		if err := r.Layout().AddClient(layout.ClientScreen{
			ClientID: clientID,
			Name:     entry.Name,
			Region: layout.Region{
				VirtualX: entry.XOffset,
				VirtualY: entry.YOffset,
				Width:    entry.Width,
				Height:   entry.Height,
			},
		}); err != nil {
			log.Warn().Err(err).Str("client_id", entry.ClientID).Msg("master: could not restore saved layout entry")
		}
	}

	controlPort := cfg.Network.ControlPort
	if controlPort == 0 {
		controlPort = 24800
	}
	bindAddr := cfg.Network.BindAddress
	if bindAddr == "" {
		bindAddr = "0.0.0.0"
	}
	listenAddr := fmt.Sprintf("%s:%d", bindAddr, controlPort)

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("master: listen on %s: %w", listenAddr, err)
	}
	defer listener.Close()
	log.Info().Str("addr", listenAddr).Msg("master: control channel listening")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &masterServer{
		reg:     reg,
		pairing: pairingMgr,
		router:  r,
		clients: clients,
		cfg:     transport.DefaultConfig(),
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	return srv.acceptLoop(ctx, listener)
}

// masterServer accepts client TCP connections and runs the Hello/pairing
// handshake on each before handing the resulting Peer to the client
// registry and the router's Transmitter.
type masterServer struct {
	reg     *registry.Registry
	pairing *pairing.Manager
	router  *router.Router
	clients *clientPeers
	cfg     transport.Config
}

func (s *masterServer) acceptLoop(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Warn().Err(err).Msg("master: accept failed")
				continue
			}
		}
		go s.handleConnection(ctx, conn)
	}
}

func (s *masterServer) handleConnection(ctx context.Context, conn net.Conn) {
	peer := transport.NewPeer(conn, s.cfg)
	sourceIP := remoteIP(conn)

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- peer.Run(ctx) }()

	clientID, accepted := s.handshake(ctx, peer, sourceIP)
	if accepted {
		defer s.clients.remove(clientID)
		defer s.reg.SetState(clientID, registry.Disconnected)
		s.drainInbound(peer)
	}

	_ = peer.Close()
	if err := <-runErrCh; err != nil {
		log.Info().Err(err).Msg("master: client connection closed")
	}
}

// handshake drives a freshly accepted connection through Hello, the PIN
// pairing exchange, and HelloAck, registering the client in s.reg and
// s.clients along the way. It returns the client id and whether the
// handshake ended with an accepted HelloAck; on any failure it has already
// sent a rejecting HelloAck (where the protocol got far enough to send one)
// and the caller should close the connection without entering the steady
// state.
func (s *masterServer) handshake(ctx context.Context, peer *transport.Peer, sourceIP string) (uuid.UUID, bool) {
	hello, ok := s.waitForMessage(ctx, peer, protocol.MsgHello)
	if !ok || hello.Hello == nil {
		log.Warn().Msg("master: connection did not open with Hello, closing")
		return uuid.Nil, false
	}

	clientID := hello.Hello.ClientID
	s.reg.Upsert(registry.ClientState{ID: clientID, Name: hello.Hello.ClientName, ConnectionState: registry.Connecting})
	s.clients.set(clientID, peer)

	sessionID, pin, err := s.pairing.InitiatePairing(clientID, sourceIP)
	if err != nil {
		log.Warn().Err(err).Str("client_id", clientID.String()).Msg("master: pairing initiation refused")
		s.sendRejection(peer, protocol.ErrCodePairingRequired)
		s.clients.remove(clientID)
		s.reg.Remove(clientID)
		return uuid.Nil, false
	}

	s.reg.SetState(clientID, registry.Pairing)
	log.Info().Str("client_id", clientID.String()).Str("pin", pin).Msg("master: pairing PIN generated, display to user out-of-band")

	if err := peer.Send(protocol.Message{
		Type: protocol.MsgPairingRequest,
		PairingRequest: &protocol.PairingRequestMessage{
			PairingSessionID: sessionID,
			ExpiresAtSecs:    uint64(pairing.SessionLifetime.Seconds()),
		},
	}); err != nil {
		log.Warn().Err(err).Msg("master: failed to send PairingRequest")
		s.clients.remove(clientID)
		s.reg.Remove(clientID)
		return uuid.Nil, false
	}

	for {
		resp, ok := s.waitForMessage(ctx, peer, protocol.MsgPairingResponse)
		if !ok || resp.PairingResponse == nil {
			s.clients.remove(clientID)
			s.reg.Remove(clientID)
			return uuid.Nil, false
		}
		if resp.PairingResponse.PairingSessionID != sessionID {
			// Stray response for an abandoned earlier session; keep waiting.
			continue
		}

		_, err := s.pairing.VerifyPairingPin(sessionID, resp.PairingResponse.PinHash, sourceIP)
		if err == nil {
			break
		}

		var wrongPin *pairing.WrongPINError
		if errors.As(err, &wrongPin) && wrongPin.AttemptsRemaining > 0 {
			log.Info().Err(err).Str("client_id", clientID.String()).Msg("master: wrong pairing pin, retrying")
			continue
		}

		log.Warn().Err(err).Str("client_id", clientID.String()).Msg("master: pairing failed")
		s.sendRejection(peer, protocol.ErrCodePairingFailed)
		s.clients.remove(clientID)
		s.reg.Remove(clientID)
		return uuid.Nil, false
	}

	s.reg.SetState(clientID, registry.Paired)

	var sessionToken [32]byte
	if _, err := fillRandom(sessionToken[:]); err != nil {
		log.Warn().Err(err).Msg("master: failed to generate session token")
	}
	if err := peer.Send(protocol.Message{
		Type: protocol.MsgHelloAck,
		HelloAck: &protocol.HelloAckMessage{
			SessionToken:  sessionToken,
			ServerVersion: protocol.ProtocolVersion,
			Accepted:      true,
		},
	}); err != nil {
		log.Warn().Err(err).Msg("master: failed to send HelloAck")
		s.clients.remove(clientID)
		s.reg.Remove(clientID)
		return uuid.Nil, false
	}

	s.reg.SetState(clientID, registry.Connected)
	log.Info().Str("client_id", clientID.String()).Str("name", hello.Hello.ClientName).Msg("master: client connected")
	return clientID, true
}

// sendRejection sends a HelloAck with Accepted=false, best-effort; the
// connection is being torn down regardless of whether this write succeeds.
func (s *masterServer) sendRejection(peer *transport.Peer, reason protocol.ErrorCode) {
	_ = peer.Send(protocol.Message{
		Type: protocol.MsgHelloAck,
		HelloAck: &protocol.HelloAckMessage{
			ServerVersion: protocol.ProtocolVersion,
			Accepted:      false,
			RejectReason:  uint8(reason),
		},
	})
}

// waitForMessage blocks until a message of type want arrives, the pairing
// session lifetime elapses, ctx is cancelled, or the connection's inbound
// channel closes. Messages of other types (Ping/Pong, already handled by
// the Peer itself) are skipped rather than treated as out-of-order errors.
func (s *masterServer) waitForMessage(ctx context.Context, peer *transport.Peer, want protocol.MessageType) (protocol.Message, bool) {
	timeout := time.NewTimer(pairing.SessionLifetime)
	defer timeout.Stop()
	for {
		select {
		case msg, ok := <-peer.Inbound():
			if !ok {
				return protocol.Message{}, false
			}
			if msg.Type == want {
				return msg, true
			}
		case <-timeout.C:
			return protocol.Message{}, false
		case <-ctx.Done():
			return protocol.Message{}, false
		}
	}
}

func (s *masterServer) drainInbound(peer *transport.Peer) {
	for range peer.Inbound() {
		// Pings are auto-replied to by the Peer itself; any other message
		// arriving after the handshake (clipboard data, config updates) would
		// be dispatched to the relevant component here in a full server
		// implementation — out of this core's protocol/routing scope.
	}
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

// clientPeers is a concurrency-safe map from client id to its connected
// Peer, and implements router.Transmitter by looking up the right Peer for
// each outgoing message.
type clientPeers struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*transport.Peer
}

func newClientPeers() *clientPeers {
	return &clientPeers{byID: make(map[uuid.UUID]*transport.Peer)}
}

func (c *clientPeers) set(id uuid.UUID, peer *transport.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[id] = peer
}

func (c *clientPeers) remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
}

func (c *clientPeers) get(id uuid.UUID) (*transport.Peer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

func (c *clientPeers) send(id uuid.UUID, msg protocol.Message) error {
	peer, ok := c.get(id)
	if !ok {
		return fmt.Errorf("master: no connected peer for client %s", id)
	}
	return peer.Send(msg)
}

func (c *clientPeers) SendKeyEvent(_ context.Context, clientID layout.ClientID, event protocol.KeyEventMessage) error {
	return c.send(clientID, protocol.Message{Type: protocol.MsgKeyEvent, KeyEvent: &event})
}

func (c *clientPeers) SendMouseMove(_ context.Context, clientID layout.ClientID, event protocol.MouseMoveMessage) error {
	return c.send(clientID, protocol.Message{Type: protocol.MsgMouseMove, MouseMove: &event})
}

func (c *clientPeers) SendMouseButton(_ context.Context, clientID layout.ClientID, event protocol.MouseButtonMessage) error {
	return c.send(clientID, protocol.Message{Type: protocol.MsgMouseButton, MouseButton: &event})
}

func (c *clientPeers) SendMouseScroll(_ context.Context, clientID layout.ClientID, event protocol.MouseScrollMessage) error {
	return c.send(clientID, protocol.Message{Type: protocol.MsgMouseScroll, MouseScroll: &event})
}

// noopCursorController stands in for the OS-specific cursor controller
// (Windows SendInput, X11 XTest, macOS CoreGraphics) named as an external
// collaborator out of this core's scope.
type noopCursorController struct{}

func (noopCursorController) TeleportCursor(x, y int32) {
	log.Debug().Int32("x", x).Int32("y", y).Msg("cursor: teleport (no-op backend)")
}

func (noopCursorController) GetCursorPos() (int32, int32) { return 0, 0 }

// pairingNotifierAdapter copies pairing.OutcomeEvent into the eventbus's
// identically-shaped PairingOutcomeEvent, keeping pkg/pairing free of an
// import on pkg/eventbus.
type pairingNotifierAdapter struct {
	bus *eventbus.Bus
}

func (a *pairingNotifierAdapter) PublishPairingOutcome(ev pairing.OutcomeEvent) error {
	return a.bus.PublishPairingOutcome(eventbus.PairingOutcomeEvent{
		ClientID: ev.ClientID,
		SourceIP: ev.SourceIP,
		Success:  ev.Success,
		Reason:   ev.Reason,
	})
}

func fillRandom(b []byte) (int, error) {
	return cryptorand.Read(b)
}
