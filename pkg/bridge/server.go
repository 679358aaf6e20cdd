package bridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts browser WebSocket connections and bridges each to its own
// TCP connection to a fixed master address.
type Server struct {
	masterAddr    string
	transportCfg  transport.Config

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewServer creates a Server that dials masterAddr for every incoming
// browser connection.
func NewServer(masterAddr string) *Server {
	return &Server{
		masterAddr:   masterAddr,
		transportCfg: transport.DefaultConfig(),
		sessions:     make(map[*Session]struct{}),
	}
}

// ServeHTTP upgrades the incoming request to a WebSocket, dials the master,
// and runs the resulting Session until either side disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("bridge: websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	peer, err := DialMaster(ctx, s.masterAddr, s.transportCfg)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("addr", s.masterAddr).Msg("bridge: failed to dial master")
		_ = conn.Close()
		return
	}

	session := NewSession(conn, peer)
	s.track(session)
	defer s.untrack(session)

	log.Info().Str("remote", r.RemoteAddr).Msg("bridge: browser session starting")
	if err := session.Run(r.Context()); err != nil {
		log.Info().Err(err).Msg("bridge: browser session ended")
	}
}

func (s *Server) track(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session] = struct{}{}
}

func (s *Server) untrack(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
}

// ActiveSessions returns the number of currently running browser sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
