// Package symbol implements the symbol-handle cache and the mapping layer
// that ties a cached handle, a reusable buffer, and a user (de)serializer
// into a read/write port over a named PLC symbol.
package symbol

import (
	"context"
	"sync"
)

// Resolver resolves a symbol name to its numeric (index group, index
// offset) location. It is specified only by this interface; a concrete
// implementation (walking a TwinCAT symbol table, say) is an external
// collaborator this package does not provide.
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (indexGroup, indexOffset uint32, err error)
}

// Device is the subset of the client's device facade the handle cache and
// mapping layer depend on.
type Device interface {
	// SessionID returns a value that changes whenever the underlying
	// connection has been re-established, invalidating prior handles.
	SessionID() uint32
	// HandleByName resolves symbol to a numeric handle valid for the
	// current session.
	HandleByName(ctx context.Context, symbol string) (uint32, error)
	Read(ctx context.Context, indexGroup, indexOffset uint32, buf []byte) (int, error)
	Write(ctx context.Context, indexGroup, indexOffset uint32, data []byte) error
}

// Cache holds a single symbol's handle, valid only while the device's
// session id matches the id recorded when the handle was acquired.
type Cache struct {
	mu        sync.Mutex
	sessionID uint32
	handle    uint32
	valid     bool
}

// Get returns the cached handle for symbol, re-resolving it if the cache
// is empty or the session has rotated since the handle was acquired.
func (c *Cache) Get(ctx context.Context, dev Device, symbol string) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sid := dev.SessionID()
	if c.valid && c.sessionID == sid {
		return c.handle, nil
	}

	handle, err := dev.HandleByName(ctx, symbol)
	if err != nil {
		return 0, err
	}
	c.sessionID = sid
	c.handle = handle
	c.valid = true
	return handle, nil
}

// Invalidate discards the cached handle, forcing re-resolution on next Get.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
