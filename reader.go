package goads

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/mrpasztoradam/goads/ams"
	"github.com/mrpasztoradam/goads/internal/logger"
	"github.com/mrpasztoradam/goads/notif"
)

// runReader owns the client's socket for its whole lifetime: it reads
// every incoming frame, dispatches replies to waiting callers by invoke
// id, parses and forwards device notifications, and reconnects whenever
// the connection drops.
func (c *Client) runReader() {
	defer close(c.readerDone)

	first := true
	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		conn := c.sess.Conn()
		if conn == nil {
			return
		}

		c.beacon.Emit()
		if !first {
			c.opts.logger.Info("reader restarted", logger.KeySessionID, c.SessionID())
		}
		first = false

		c.readLoop(conn)

		select {
		case <-c.closeCh:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := c.sess.Reconnect(ctx)
		cancel()
		if err != nil {
			c.opts.logger.Error("reconnect failed", "error", err)
			return
		}
	}
}

// readLoop runs the per-socket receive loop until conn errors out, at
// which point it returns so runReader can reconnect.
func (c *Client) readLoop(conn net.Conn) {
	source := c.source()
	hdrBuf := make([]byte, 6)

	for {
		if _, err := io.ReadFull(conn, hdrBuf); err != nil {
			return
		}

		tcpCmd := binary.LittleEndian.Uint16(hdrBuf[0:2])
		packetLength := binary.LittleEndian.Uint32(hdrBuf[2:6])

		buf := c.bufPool.Get(6 + int(packetLength))
		copy(buf[:6], hdrBuf)
		if _, err := io.ReadFull(conn, buf[6:]); err != nil {
			c.opts.logger.Error("reader: short read", "error", err)
			return
		}

		if tcpCmd != ams.TCPCmdData {
			c.bufPool.Put(buf)
			if !ams.IsRouterControl(tcpCmd) {
				c.opts.logger.Error("reader: unknown ams/tcp command", "command", tcpCmd)
				return
			}
			continue
		}

		if len(buf) < amsTotalHeaderSize {
			c.opts.logger.Error("reader: frame shorter than ams header")
			return
		}

		var hdr ams.Header
		if err := hdr.Decode(ams.NewBuffer(buf)); err != nil {
			c.opts.logger.Error("reader: header decode failed", "error", err)
			return
		}

		if packetLength < amsHeaderSize || hdr.AMSHeader.Length != packetLength-amsHeaderSize {
			c.opts.logger.Error("reader: declared length mismatch")
			return
		}

		if hdr.AMSHeader.Target != source {
			c.bufPool.Put(buf)
			continue
		}

		if hdr.AMSHeader.CmdID != ams.CmdADSDeviceNotification {
			c.dispatchReply(hdr.AMSHeader.InvokeID, buf)
			continue
		}

		c.dispatchNotification(hdr, buf)
	}
}

func (c *Client) dispatchReply(invokeID uint32, buf []byte) {
	c.registryMu.Lock()
	slot, ok := c.registry[invokeID]
	if ok {
		delete(c.registry, invokeID)
	}
	c.registryMu.Unlock()

	if !ok {
		c.bufPool.Put(buf)
		return
	}
	select {
	case slot <- buf:
	default:
		// The waiter already gave up (timeout/ctx cancellation); drop.
		c.bufPool.Put(buf)
	}
}

func (c *Client) dispatchNotification(hdr ams.Header, buf []byte) {
	defer c.bufPool.Put(buf)

	if hdr.AMSHeader.StateFlags != ams.StateADSCommand || hdr.AMSHeader.ErrorCode != ams.NoError {
		return
	}

	frame, err := notif.Parse(buf)
	if err != nil {
		c.opts.logger.Error("reader: malformed notification frame", "error", err)
		return
	}

	select {
	case c.notifCh <- frame:
	default:
		// Subscriber too slow; drop rather than block the reader.
	}
}
