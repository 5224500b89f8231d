// Package goads implements a Beckhoff ADS/AMS client: a single TCP
// connection to an ADS router, shared by many concurrent callers through
// an invoke-id-correlated request engine, plus a dedicated reader task
// that demultiplexes replies and fans out device notifications.
package goads

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrpasztoradam/goads/ams"
	"github.com/mrpasztoradam/goads/internal/bufpool"
	"github.com/mrpasztoradam/goads/internal/session"
	"github.com/mrpasztoradam/goads/notif"
)

// amsHeaderSize and amsTotalHeaderSize are the fixed sizes of the AMS
// header and the combined AMS/TCP+AMS header, matching ams.AMSHeader's
// wire layout.
const (
	amsHeaderSize      = 32
	amsTotalHeaderSize = 6 + amsHeaderSize
)

// Client owns one TCP connection to an ADS router. It is safe for
// concurrent use by many goroutines, each issuing independent requests
// that are correlated by invoke id.
type Client struct {
	opts options
	sess *session.Manager
	port uint16

	writeMu sync.Mutex

	nextInvokeID uint32

	registryMu sync.Mutex
	registry   map[uint32]chan []byte

	bufPool *bufpool.Pool
	notifCh chan *notif.Frame
	beacon  *notif.Beacon

	handlesMu sync.Mutex
	handles   map[ams.Addr]map[uint32]struct{}

	closed     atomic.Bool
	closeCh    chan struct{}
	readerDone chan struct{}
}

// Connect dials addr (host:port; the caller supplies the ADS TCP port,
// 0xBF02 by default) and starts the reader task.
func Connect(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	port := o.sourcePort
	if port == 0 {
		port = ams.DefaultSourcePort
	}

	dial := func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}

	c := &Client{
		opts:       o,
		sess:       session.NewManager(dial, port),
		port:       port,
		registry:   make(map[uint32]chan []byte),
		bufPool:    bufpool.New(o.bufPoolCapacity),
		notifCh:    make(chan *notif.Frame, o.notifChanCapacity),
		beacon:     notif.NewBeacon(),
		handles:    make(map[ams.Addr]map[uint32]struct{}),
		closeCh:    make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	if err := c.sess.Connect(ctx); err != nil {
		return nil, ioErr("connect", err)
	}

	go c.runReader()

	return c, nil
}

// SessionID returns a value that increments on every (re)connect. Cached
// symbol handles and notification handles tied to an older session id are
// no longer valid.
func (c *Client) SessionID() uint32 { return c.sess.SessionID() }

func (c *Client) source() ams.Addr { return c.sess.SourceAddr(c.port) }

// Notifications returns the channel device notifications are delivered
// on. The channel is bounded; under sustained backpressure, samples are
// dropped rather than blocking the reader task.
func (c *Client) Notifications() <-chan *notif.Frame { return c.notifCh }

// RestartBeacon returns the single-slot broadcast of reader-restart
// events. Subscribers should treat every restart as a potential session
// rotation and re-subscribe/re-resolve accordingly.
func (c *Client) RestartBeacon() *notif.Beacon { return c.beacon }

// SessionLock pins the current session id for the lifetime of the guard,
// so a sequence of requests can assume the session will not rotate
// underneath it.
type SessionLock struct{ inner *session.Lock }

// Release unpins the session.
func (l *SessionLock) Release() { l.inner.Release() }

// LockSession pins the current session.
func (c *Client) LockSession() *SessionLock {
	return &SessionLock{inner: c.sess.LockSession()}
}

// Device returns a facade for target. If target's NetID is ams.LocalAlias,
// it is substituted once here with the client's own resolved source NetID.
func (c *Client) Device(target ams.Addr) *Device {
	if target.IsLocalAlias() {
		target.NetID = c.source().NetID
	}
	return &Device{c: c, target: target}
}

// Purge drops the set of notification handles this client is tracking for
// cleanup, without issuing DeleteNotification for any of them. Use this
// after an unclean restart where the router has already discarded the
// handles and a best-effort delete would just return an error for each.
func (c *Client) Purge() {
	c.handlesMu.Lock()
	c.handles = make(map[ams.Addr]map[uint32]struct{})
	c.handlesMu.Unlock()
}

// Shutdown issues a best-effort DeleteNotification for every tracked
// handle, then closes the connection and stops the reader task.
func (c *Client) Shutdown(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.handlesMu.Lock()
	handles := c.handles
	c.handles = nil
	c.handlesMu.Unlock()

	for target, set := range handles {
		dev := &Device{c: c, target: target}
		for handle := range set {
			_ = dev.DeleteNotification(ctx, handle)
		}
	}

	close(c.closeCh)
	c.beacon.Close()
	return c.sess.Close()
}

func (c *Client) trackHandle(target ams.Addr, handle uint32) {
	c.handlesMu.Lock()
	defer c.handlesMu.Unlock()
	if c.handles == nil {
		return
	}
	set, ok := c.handles[target]
	if !ok {
		set = make(map[uint32]struct{})
		c.handles[target] = set
	}
	set[handle] = struct{}{}
}

func (c *Client) untrackHandle(target ams.Addr, handle uint32) {
	c.handlesMu.Lock()
	defer c.handlesMu.Unlock()
	if set, ok := c.handles[target]; ok {
		delete(set, handle)
	}
}

func (c *Client) dropSlot(invokeID uint32) {
	c.registryMu.Lock()
	delete(c.registry, invokeID)
	c.registryMu.Unlock()
}

// send writes frame (a complete, already-encoded AMS/TCP+AMS packet with
// invokeID already stamped in) and waits for the correlated reply,
// validating it against cmd/target/invokeID before returning the raw
// bytes. The caller owns the returned buffer and must return it to
// c.bufPool once done decoding it.
func (c *Client) send(ctx context.Context, op string, cmd uint16, target ams.Addr, frame []byte, invokeID uint32) ([]byte, error) {
	slot := make(chan []byte, 1)
	c.registryMu.Lock()
	c.registry[invokeID] = slot
	c.registryMu.Unlock()

	conn := c.sess.Conn()
	if conn == nil {
		c.dropSlot(invokeID)
		return nil, ioErr(op, errNotConnected)
	}

	c.writeMu.Lock()
	_, err := conn.Write(frame)
	c.writeMu.Unlock()
	if err != nil {
		c.dropSlot(invokeID)
		return nil, ioErr(op, err)
	}

	var raw []byte
	if c.opts.readTimeout > 0 {
		timer := time.NewTimer(c.opts.readTimeout)
		defer timer.Stop()
		select {
		case raw = <-slot:
		case <-timer.C:
			c.dropSlot(invokeID)
			return nil, ioErr(op, ErrTimeout)
		case <-ctx.Done():
			c.dropSlot(invokeID)
			return nil, ioErr(op, ctx.Err())
		}
	} else {
		select {
		case raw = <-slot:
		case <-ctx.Done():
			c.dropSlot(invokeID)
			return nil, ioErr(op, ctx.Err())
		}
	}

	if len(raw) < amsTotalHeaderSize {
		c.bufPool.Put(raw)
		return nil, ioErr(op, errReplyTooShort)
	}

	var hdr ams.Header
	if err := hdr.Decode(ams.NewBuffer(raw)); err != nil {
		c.bufPool.Put(raw)
		return nil, ioErr(op, err)
	}
	if hdr.AMSHeader.Sender != target {
		c.bufPool.Put(raw)
		return nil, ioErr(op, errUnexpectedSource)
	}
	if hdr.AMSHeader.CmdID != cmd {
		c.bufPool.Put(raw)
		return nil, ioErr(op, errCommandMismatch)
	}
	if hdr.AMSHeader.StateFlags != ams.StateADSCommand|ams.StateResponse {
		c.bufPool.Put(raw)
		return nil, ioErr(op, errBadStateFlags)
	}
	if hdr.AMSHeader.InvokeID != invokeID {
		c.bufPool.Put(raw)
		return nil, ioErr(op, errInvokeIDMismatch)
	}
	if hdr.AMSHeader.ErrorCode != ams.NoError {
		code := hdr.AMSHeader.ErrorCode
		c.bufPool.Put(raw)
		return nil, adsDomainErr(op, code)
	}

	return raw, nil
}

// roundTrip stamps an invoke id on req, encodes and sends it, and returns
// the raw reply bytes for the caller to decode with the matching typed
// Response. The caller must return raw to c.bufPool once done.
func (c *Client) roundTrip(ctx context.Context, op string, req ams.Request) ([]byte, error) {
	invokeID := atomic.AddUint32(&c.nextInvokeID, 1)
	req.Header().InvokeID = invokeID

	var b ams.Buffer
	if err := req.Encode(&b); err != nil {
		return nil, invalidDataErr(op, err)
	}

	return c.send(ctx, op, req.Header().CmdID, req.Header().Target, b.Bytes(), invokeID)
}

// communicate is the low-level request engine used by operations whose
// payload shape doesn't already have a typed ams.Request/Response pair
// (plain reads/writes and every sum-up variant): it frames cmd with
// dataIn concatenated as the payload, and on a successful reply copies
// the payload (after its leading 4-byte result code) into dataOut's
// buffers in order, each capped to its own length, stopping once the
// reply is exhausted. It returns the total number of bytes copied.
func (c *Client) communicate(ctx context.Context, op string, cmd uint16, target ams.Addr, dataIn [][]byte, dataOut [][]byte) (int, error) {
	dataInLen := 0
	for _, d := range dataIn {
		dataInLen += len(d)
	}
	if dataInLen > math.MaxUint32 {
		return 0, invalidDataErr(op, fmt.Errorf("payload too large: %d bytes", dataInLen))
	}

	invokeID := atomic.AddUint32(&c.nextInvokeID, 1)
	source := c.source()

	tcpHdr := ams.TCPHeader{Command: ams.TCPCmdData, Length: uint32(amsHeaderSize + dataInLen)}
	amsHdr := ams.AMSHeader{
		Target:     target,
		Sender:     source,
		CmdID:      cmd,
		StateFlags: ams.StateADSCommand,
		Length:     uint32(dataInLen),
		InvokeID:   invokeID,
	}

	var b ams.Buffer
	b.WriteStruct(&tcpHdr)
	b.WriteStruct(&amsHdr)
	for _, d := range dataIn {
		b.Write(d)
	}
	if err := b.Err(); err != nil {
		return 0, invalidDataErr(op, err)
	}

	raw, err := c.send(ctx, op, cmd, target, b.Bytes(), invokeID)
	if err != nil {
		return 0, err
	}
	defer c.bufPool.Put(raw)

	payload := raw[amsTotalHeaderSize:]
	if len(payload) < 4 {
		return 0, ioErr(op, errReplyTooShort)
	}
	result := binary.LittleEndian.Uint32(payload[:4])
	if result != ams.NoError {
		return 0, adsDomainErr(op, result)
	}
	payload = payload[4:]

	if len(dataOut) == 0 {
		return 0, nil
	}
	if len(payload) < len(dataOut[0]) {
		return 0, ioErr(op, errShortData)
	}

	remaining := len(payload)
	off, n := 0, 0
	for _, dst := range dataOut {
		if remaining <= 0 {
			break
		}
		want := len(dst)
		if want > remaining {
			want = remaining
		}
		copy(dst[:want], payload[off:off+want])
		off += want
		remaining -= want
		n += want
	}
	return n, nil
}
