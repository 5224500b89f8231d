// Package session is the connection/session manager behind the client: it
// owns the current TCP socket, derives the client's source AMS address,
// and exposes the session-lock guard callers use to pin a session across a
// sequence of requests.
package session

import (
	"context"
	"net"
	"sync"

	"github.com/mrpasztoradam/goads/ams"
)

// Dialer opens a fresh connection to the ADS router.
type Dialer func(ctx context.Context) (net.Conn, error)

// Manager owns the client's current connection and session id. Reconnect
// takes an exclusive lock that Lock holders block; this is what lets a
// caller pin the session id across a sequence of requests via LockSession.
type Manager struct {
	mu          sync.RWMutex
	conn        net.Conn
	sourceNetID ams.NetID
	sourcePort  uint16
	sessionID   uint32
	dial        Dialer
}

// NewManager creates a Manager that dials with dial on Connect/Reconnect.
func NewManager(dial Dialer, sourcePort uint16) *Manager {
	return &Manager{dial: dial, sourcePort: sourcePort}
}

// Connect opens the first connection.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, err := m.dial(ctx)
	if err != nil {
		return err
	}
	m.conn = conn
	m.sessionID++
	if netID, err := ams.LocalNetIDFromConn(conn.LocalAddr()); err == nil {
		m.sourceNetID = netID
	}
	return nil
}

// Reconnect closes the current connection (if any) and dials a fresh one,
// bumping the session id. It blocks until every outstanding LockSession
// guard has been released.
func (m *Manager) Reconnect(ctx context.Context) (net.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		m.conn.Close()
	}
	conn, err := m.dial(ctx)
	if err != nil {
		return nil, err
	}
	m.conn = conn
	m.sessionID++
	if netID, err := ams.LocalNetIDFromConn(conn.LocalAddr()); err == nil {
		m.sourceNetID = netID
	}
	return conn, nil
}

// Conn returns the current connection, or nil before Connect / after Close.
func (m *Manager) Conn() net.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

// SessionID returns a value that increments on every (re)connect.
func (m *Manager) SessionID() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// SourceAddr returns the client's own AMS address for the given local port.
func (m *Manager) SourceAddr(port uint16) ams.Addr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ams.Addr{NetID: m.sourceNetID, Port: port}
}

// Close closes the current connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

// Lock pins the session so a concurrent Reconnect blocks until Release.
type Lock struct {
	mu *sync.RWMutex
}

// Release unpins the session.
func (l *Lock) Release() {
	l.mu.RUnlock()
}

// LockSession pins the current session for the lifetime of the returned
// Lock: a caller can run a sequence of requests knowing the session id
// will not change underneath it.
func (m *Manager) LockSession() *Lock {
	m.mu.RLock()
	return &Lock{mu: &m.mu}
}
