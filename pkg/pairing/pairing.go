// Package pairing implements the master's PIN-based pairing flow: a fresh
// 6-digit PIN is generated per pairing attempt, hashed together with a
// session UUID so the hash cannot be replayed against a different session,
// and verified against the client's submission with a bounded number of
// attempts. Source IPs that exhaust their attempts are locked out for a
// cooldown window, and the lockout is checked before a new session is even
// allowed to start so an attacker cannot dodge it by opening fresh sessions.
package pairing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionLifetime is how long a pairing session accepts a PIN submission
// before it expires and must be restarted.
const SessionLifetime = 60 * time.Second

// MaxAttempts is the number of wrong-PIN submissions tolerated before the
// session is dropped and the source IP is locked out.
const MaxAttempts = 3

// LockoutDuration is how long a source IP is refused new pairing attempts
// after exhausting MaxAttempts.
const LockoutDuration = 60 * time.Second

var (
	// ErrLockedOut is returned with the remaining lockout duration attached
	// via LockedOutError.
	ErrLockedOut      = errors.New("pairing: source is locked out")
	ErrSessionNotFound = errors.New("pairing: session not found")
	ErrExpired         = errors.New("pairing: session expired")
	ErrWrongPIN        = errors.New("pairing: incorrect pin")
)

// LockedOutError carries how much longer the lockout has to run.
type LockedOutError struct {
	SecondsRemaining int64
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("pairing: locked out for %d more seconds", e.SecondsRemaining)
}

func (e *LockedOutError) Unwrap() error { return ErrLockedOut }

// WrongPINError carries how many attempts remain before lockout.
type WrongPINError struct {
	AttemptsRemaining int
}

func (e *WrongPINError) Error() string {
	return fmt.Sprintf("pairing: wrong pin, %d attempts remaining", e.AttemptsRemaining)
}

func (e *WrongPINError) Unwrap() error { return ErrWrongPIN }

type session struct {
	clientID  uuid.UUID
	pin       string
	pinHash   string
	createdAt time.Time
	attempts  int
}

type lockout struct {
	lockedUntil    time.Time
	failedAttempts int
}

// OutcomeNotifier is notified after every VerifyPairingPin attempt resolves,
// success or failure. Implemented by pkg/eventbus's Bus via its
// PublishPairingOutcome method.
type OutcomeNotifier interface {
	PublishPairingOutcome(ev OutcomeEvent) error
}

// OutcomeEvent mirrors eventbus.PairingOutcomeEvent's shape without this
// package importing eventbus; the bridge between the two is a field-for-
// field copy at the call site that wires a Manager to a Bus.
type OutcomeEvent struct {
	ClientID string
	SourceIP string
	Success  bool
	Reason   string
}

// Manager runs pairing sessions and the per-source-IP lockout table. The
// zero value is not usable; construct with New.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	lockouts map[string]*lockout
	notifier OutcomeNotifier
}

// New creates an empty pairing Manager.
func New() *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*session),
		lockouts: make(map[string]*lockout),
	}
}

// SetNotifier attaches an OutcomeNotifier that observes every pairing
// attempt's outcome. Passing nil disables notification.
func (m *Manager) SetNotifier(n OutcomeNotifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

func (m *Manager) notify(ev OutcomeEvent) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.PublishPairingOutcome(ev); err != nil {
		log.Debug().Err(err).Str("source_ip", ev.SourceIP).Msg("pairing: failed to publish outcome")
	}
}

// InitiatePairing starts a new pairing session for clientID, generating a
// fresh 6-digit PIN and session id. Returns the session id and the PIN to
// display to the master's user out-of-band; the session's pin hash (see
// PinHash) is what gets compared against the client's submission. Fails if
// sourceIP is currently locked out.
func (m *Manager) InitiatePairing(clientID uuid.UUID, sourceIP string) (sessionID uuid.UUID, pin string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lo, locked := m.lockouts[sourceIP]; locked {
		if remaining := time.Until(lo.lockedUntil); remaining > 0 {
			return uuid.Nil, "", &LockedOutError{SecondsRemaining: int64(remaining.Seconds()) + 1}
		}
		delete(m.lockouts, sourceIP)
	}

	sessionID = uuid.New()
	pin, err = generatePIN()
	if err != nil {
		return uuid.Nil, "", err
	}

	m.sessions[sessionID] = &session{
		clientID:  clientID,
		pin:       pin,
		pinHash:   hashPIN(pin, sessionID),
		createdAt: time.Now(),
	}
	return sessionID, pin, nil
}

// PinHash returns the hash the client is expected to submit back, for
// sessionID. The wire PairingRequest carries only the session id and expiry,
// not this hash.
func (m *Manager) PinHash(sessionID uuid.UUID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return "", false
	}
	return s.pinHash, true
}

// VerifyPairingPin checks a client's PIN submission against the session.
// sourceIP is the address the submission arrived from *now*, which is
// checked against (and, on repeated failure, added to) the lockout table —
// not whatever address InitiatePairing originally saw for this session, so
// a client that legitimately changes address between the two calls (DHCP
// renewal, NAT) is judged by where it is, not where it was.
// On success it returns the paired client id and drops the session. On
// failure it returns one of ErrSessionNotFound, ErrExpired, *WrongPINError,
// or *LockedOutError.
func (m *Manager) VerifyPairingPin(sessionID uuid.UUID, submittedPinHash string, sourceIP string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lo, locked := m.lockouts[sourceIP]; locked {
		if remaining := time.Until(lo.lockedUntil); remaining > 0 {
			delete(m.sessions, sessionID)
			m.notify(OutcomeEvent{SourceIP: sourceIP, Success: false, Reason: "locked_out"})
			return uuid.Nil, &LockedOutError{SecondsRemaining: int64(remaining.Seconds()) + 1}
		}
		delete(m.lockouts, sourceIP)
	}

	s, ok := m.sessions[sessionID]
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}

	if time.Since(s.createdAt) > SessionLifetime {
		delete(m.sessions, sessionID)
		m.notify(OutcomeEvent{ClientID: s.clientID.String(), SourceIP: sourceIP, Success: false, Reason: "expired"})
		return uuid.Nil, ErrExpired
	}

	if submittedPinHash != s.pinHash {
		s.attempts++
		if s.attempts >= MaxAttempts {
			m.lockouts[sourceIP] = &lockout{
				lockedUntil:    time.Now().Add(LockoutDuration),
				failedAttempts: s.attempts,
			}
			delete(m.sessions, sessionID)
			m.notify(OutcomeEvent{ClientID: s.clientID.String(), SourceIP: sourceIP, Success: false, Reason: "wrong_pin_lockout"})
			return uuid.Nil, &WrongPINError{AttemptsRemaining: 0}
		}
		m.notify(OutcomeEvent{ClientID: s.clientID.String(), SourceIP: sourceIP, Success: false, Reason: "wrong_pin"})
		return uuid.Nil, &WrongPINError{AttemptsRemaining: MaxAttempts - s.attempts}
	}

	clientID := s.clientID
	delete(m.sessions, sessionID)
	m.notify(OutcomeEvent{ClientID: clientID.String(), SourceIP: sourceIP, Success: true})
	return clientID, nil
}

// generatePIN produces a cryptographically random 6-digit PIN string,
// zero-padded (e.g. "004217").
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// hashPIN binds the PIN to its session id so the same hash can never be
// replayed to verify a different session.
func hashPIN(pin string, sessionID uuid.UUID) string {
	sum := sha256.Sum256([]byte(pin + sessionID.String()))
	return hex.EncodeToString(sum[:])
}
