package notif

import "sync"

// Beacon is a single-slot broadcast of reader-restart events. It is not a
// channel: a Go channel delivers each value to exactly one receiver, while
// every Beacon subscriber observes at least the most recent restart since
// it started watching, no matter how many restarts happened in between.
type Beacon struct {
	mu      sync.Mutex
	cond    *sync.Cond
	version uint64
	closed  bool
}

// NewBeacon returns a ready-to-use Beacon.
func NewBeacon() *Beacon {
	b := &Beacon{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Emit records a restart and wakes every current waiter.
func (b *Beacon) Emit() {
	b.mu.Lock()
	b.version++
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Close wakes every waiter permanently without recording a restart.
func (b *Beacon) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Version returns the most recent restart count observed so far.
func (b *Beacon) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// WaitFrom blocks until the beacon has advanced past last, then returns the
// current version. ok is false only if the beacon was closed without an
// intervening restart.
func (b *Beacon) WaitFrom(last uint64) (version uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.version <= last && !b.closed {
		b.cond.Wait()
	}
	return b.version, b.version > last
}
