package symbol

import (
	"context"
	"fmt"

	"github.com/mrpasztoradam/goads/ams"
)

// Mapping is a reusable read/write port over a single named symbol. It
// holds one buffer of bufSize bytes and a session-aware handle cache so
// repeated reads/writes avoid per-call allocation and re-resolution.
type Mapping struct {
	dev    Device
	symbol string
	buf    []byte
	cache  Cache
}

// NewMapping creates a Mapping backed by dev for symbol, with a reusable
// buffer of bufSize bytes.
func NewMapping(dev Device, symbol string, bufSize int) *Mapping {
	return &Mapping{dev: dev, symbol: symbol, buf: make([]byte, bufSize)}
}

// Read resolves the handle (re-resolving on session change), issues a
// handle-based read into the mapping's buffer, and invokes decode on the
// bytes the server actually returned.
func (m *Mapping) Read(ctx context.Context, decode func([]byte) error) error {
	handle, err := m.cache.Get(ctx, m.dev, m.symbol)
	if err != nil {
		return err
	}
	n, err := m.dev.Read(ctx, ams.IdxReadWriteSymValueByHandle, handle, m.buf)
	if err != nil {
		return err
	}
	if n > len(m.buf) {
		return fmt.Errorf("symbol: %s: server returned %d bytes, buffer is %d", m.symbol, n, len(m.buf))
	}
	return decode(m.buf[:n])
}

// Write resolves the handle, lets encode fill the mapping's buffer and
// report how many bytes it produced, then issues a handle-based write of
// exactly that many bytes.
func (m *Mapping) Write(ctx context.Context, encode func([]byte) (int, error)) error {
	handle, err := m.cache.Get(ctx, m.dev, m.symbol)
	if err != nil {
		return err
	}
	n, err := encode(m.buf)
	if err != nil {
		return err
	}
	if n < 0 || n > len(m.buf) {
		return fmt.Errorf("symbol: %s: encoder produced %d bytes, buffer is %d", m.symbol, n, len(m.buf))
	}
	return m.dev.Write(ctx, ams.IdxReadWriteSymValueByHandle, handle, m.buf[:n])
}

// Invalidate drops the cached handle, forcing re-resolution on next use.
func (m *Mapping) Invalidate() {
	m.cache.Invalidate()
}
