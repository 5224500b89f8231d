package goads

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/mrpasztoradam/goads/ams"
)

// fakeRouter accepts a single connection and lets the test drive replies
// frame-by-frame, the way a real ADS router would.
type fakeRouter struct {
	ln   net.Listener
	conn net.Conn
}

func startFakeRouter(t *testing.T) *fakeRouter {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return &fakeRouter{ln: ln}
}

func (r *fakeRouter) accept(t *testing.T) net.Conn {
	t.Helper()
	if r.conn != nil {
		return r.conn
	}
	conn, err := r.ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	r.conn = conn
	return conn
}

func (r *fakeRouter) readRequest(t *testing.T) (ams.Header, []byte) {
	t.Helper()
	hdrBuf := make([]byte, 6)
	if _, err := readFull(r.conn, hdrBuf); err != nil {
		t.Fatalf("read tcp header: %v", err)
	}
	packetLength := leUint32(hdrBuf[2:6])
	rest := make([]byte, packetLength)
	if _, err := readFull(r.conn, rest); err != nil {
		t.Fatalf("read ams payload: %v", err)
	}
	full := append(hdrBuf, rest...)
	var hdr ams.Header
	if err := hdr.Decode(ams.NewBuffer(full)); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	return hdr, full
}

func (r *fakeRouter) send(t *testing.T, resp ams.Response) {
	t.Helper()
	var b ams.Buffer
	if err := resp.Encode(&b); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
	if _, err := r.conn.Write(b.Bytes()); err != nil {
		t.Fatalf("write reply: %v", err)
	}
}

func (r *fakeRouter) close() {
	if r.conn != nil {
		r.conn.Close()
	}
	r.ln.Close()
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestClientGetInfo(t *testing.T) {
	router := startFakeRouter(t)
	defer router.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, router.ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	target := ams.Addr{NetID: ams.NetID{1, 2, 3, 4, 5, 6}, Port: 851}
	dev := client.Device(target)

	done := make(chan *DeviceInfo, 1)
	errCh := make(chan error, 1)
	go func() {
		info, err := dev.GetInfo(ctx)
		if err != nil {
			errCh <- err
			return
		}
		done <- info
	}()

	router.accept(t)
	hdr, _ := router.readRequest(t)
	if hdr.AMSHeader.CmdID != ams.CmdADSReadDeviceInfo {
		t.Fatalf("CmdID = %d, want %d", hdr.AMSHeader.CmdID, ams.CmdADSReadDeviceInfo)
	}
	resp := ams.NewReadDeviceInfoResponse(hdr.AMSHeader.Sender, hdr.AMSHeader.Target, ams.NoError, 3, 1, 4020, "TC3 PLC")
	resp.Header().InvokeID = hdr.AMSHeader.InvokeID
	router.send(t, resp)

	select {
	case info := <-done:
		if info.Name != "TC3 PLC" || info.Major != 3 || info.Minor != 1 || info.Build != 4020 {
			t.Errorf("GetInfo() = %+v, want Name=TC3 PLC Major=3 Minor=1 Build=4020", info)
		}
	case err := <-errCh:
		t.Fatalf("GetInfo: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("GetInfo did not return")
	}
}

func TestClientReadRejectsErrorReply(t *testing.T) {
	router := startFakeRouter(t)
	defer router.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, router.ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	target := ams.Addr{NetID: ams.NetID{1, 2, 3, 4, 5, 6}, Port: 851}
	dev := client.Device(target)

	buf := make([]byte, 4)
	errCh := make(chan error, 1)
	go func() {
		_, err := dev.Read(ctx, 0x4020, 0, buf)
		errCh <- err
	}()

	router.accept(t)
	hdr, _ := router.readRequest(t)
	resp := ams.NewReadResponse(hdr.AMSHeader.Sender, hdr.AMSHeader.Target, 0x0006, nil) // target port not found
	resp.Header().InvokeID = hdr.AMSHeader.InvokeID
	router.send(t, resp)

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected an error for an ADS error-code reply")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return")
	}
}

func TestClientReadReturnsData(t *testing.T) {
	router := startFakeRouter(t)
	defer router.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, router.ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	target := ams.Addr{NetID: ams.NetID{1, 2, 3, 4, 5, 6}, Port: 851}
	dev := client.Device(target)

	buf := make([]byte, 4)
	done := make(chan int, 1)
	errCh := make(chan error, 1)
	go func() {
		n, err := dev.Read(ctx, 0x4020, 0x10, buf)
		if err != nil {
			errCh <- err
			return
		}
		done <- n
	}()

	router.accept(t)
	hdr, _ := router.readRequest(t)
	resp := ams.NewReadResponse(hdr.AMSHeader.Sender, hdr.AMSHeader.Target, ams.NoError, []byte{0x01, 0x02, 0x03, 0x04})
	resp.Header().InvokeID = hdr.AMSHeader.InvokeID
	router.send(t, resp)

	select {
	case n := <-done:
		if n != 4 {
			t.Errorf("Read() n = %d, want 4", n)
		}
		want := []byte{0x01, 0x02, 0x03, 0x04}
		if !bytes.Equal(buf, want) {
			t.Errorf("buf = % X, want % X (the reply's length field must not leak into the data)", buf, want)
		}
	case err := <-errCh:
		t.Fatalf("Read: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return")
	}
}

func TestClientWriteReadReturnsData(t *testing.T) {
	router := startFakeRouter(t)
	defer router.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, router.ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	target := ams.Addr{NetID: ams.NetID{1, 2, 3, 4, 5, 6}, Port: 851}
	dev := client.Device(target)

	readBuf := make([]byte, 4)
	done := make(chan int, 1)
	errCh := make(chan error, 1)
	go func() {
		n, err := dev.WriteRead(ctx, ams.IdxGetSymHandleByName, 0, []byte("MAIN.foo\x00"), readBuf)
		if err != nil {
			errCh <- err
			return
		}
		done <- n
	}()

	router.accept(t)
	hdr, _ := router.readRequest(t)
	resp := ams.NewReadWriteResponse(hdr.AMSHeader.Sender, hdr.AMSHeader.Target, ams.NoError, []byte{0x2A, 0x00, 0x00, 0x00})
	resp.Header().InvokeID = hdr.AMSHeader.InvokeID
	router.send(t, resp)

	select {
	case n := <-done:
		if n != 4 {
			t.Errorf("WriteRead() n = %d, want 4", n)
		}
		if got := binary.LittleEndian.Uint32(readBuf); got != 42 {
			t.Errorf("readBuf = %d, want 42 (the reply's length field must not leak into the data)", got)
		}
	case err := <-errCh:
		t.Fatalf("WriteRead: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("WriteRead did not return")
	}
}

func TestClientReadMultiReturnsData(t *testing.T) {
	router := startFakeRouter(t)
	defer router.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, router.ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	target := ams.Addr{NetID: ams.NetID{1, 2, 3, 4, 5, 6}, Port: 851}
	dev := client.Device(target)

	specs := []ReadSpec{{IndexGroup: 0x4020, IndexOffset: 0}, {IndexGroup: 0x4020, IndexOffset: 4}}
	buffers := [][]byte{make([]byte, 4), make([]byte, 4)}

	type multiResult struct {
		results []uint32
		err     error
	}
	done := make(chan multiResult, 1)
	go func() {
		results, err := dev.ReadMulti(ctx, specs, buffers)
		done <- multiResult{results, err}
	}()

	router.accept(t)
	hdr, _ := router.readRequest(t)

	// [result(4)][length(4)][result0(4)][length0(4)][result1(4)][length1(4)][data0(4)][data1(4)]
	var payload ams.Buffer
	payload.WriteUint32(ams.NoError)
	payload.WriteUint32(16 + 8) // result table + packed data
	payload.WriteUint32(ams.NoError)
	payload.WriteUint32(4)
	payload.WriteUint32(ams.NoError)
	payload.WriteUint32(4)
	payload.WriteN([]byte{0xAA, 0xBB, 0xCC, 0xDD}, 4)
	payload.WriteN([]byte{0x11, 0x22, 0x33, 0x44}, 4)
	if err := payload.Err(); err != nil {
		t.Fatalf("encode read-multi payload: %v", err)
	}

	amsHdr := ams.AMSHeader{
		Target:     hdr.AMSHeader.Sender,
		Sender:     hdr.AMSHeader.Target,
		CmdID:      ams.CmdADSReadWrite,
		StateFlags: ams.StateADSCommand | ams.StateResponse,
		Length:     uint32(payload.Len()),
		InvokeID:   hdr.AMSHeader.InvokeID,
	}
	tcpHdr := ams.TCPHeader{Command: ams.TCPCmdData, Length: amsHeaderSize + uint32(payload.Len())}
	var frame ams.Buffer
	frame.WriteStruct(&tcpHdr)
	frame.WriteStruct(&amsHdr)
	frame.Write(payload.Bytes())
	if _, err := router.conn.Write(frame.Bytes()); err != nil {
		t.Fatalf("write read-multi reply: %v", err)
	}

	select {
	case got := <-done:
		if got.err != nil {
			t.Fatalf("ReadMulti: %v", got.err)
		}
		if !bytes.Equal(buffers[0], []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
			t.Errorf("buffers[0] = % X, want AA BB CC DD (the reply's length field must not shift the result table)", buffers[0])
		}
		if !bytes.Equal(buffers[1], []byte{0x11, 0x22, 0x33, 0x44}) {
			t.Errorf("buffers[1] = % X, want 11 22 33 44", buffers[1])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadMulti did not return")
	}
}

func TestClientNotificationFanOut(t *testing.T) {
	router := startFakeRouter(t)
	defer router.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, router.ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	conn := router.accept(t)

	source := client.source()
	target := ams.Addr{NetID: ams.NetID{1, 2, 3, 4, 5, 6}, Port: 851}

	var payload ams.Buffer
	payload.WriteUint32(0)
	payload.WriteUint32(1) // one stamp
	payload.WriteUint32(0)
	payload.WriteUint32(0)
	payload.WriteUint32(1) // one sample
	payload.WriteUint32(55)
	payload.WriteUint32(2)
	payload.WriteN([]byte{9, 8}, 2)
	if err := payload.Err(); err != nil {
		t.Fatalf("encode notification payload: %v", err)
	}

	amsHdr := ams.AMSHeader{
		Target:     source,
		Sender:     target,
		CmdID:      ams.CmdADSDeviceNotification,
		StateFlags: ams.StateADSCommand,
		Length:     uint32(payload.Len()),
		ErrorCode:  ams.NoError,
	}
	tcpHdr := ams.TCPHeader{Command: ams.TCPCmdData, Length: amsHeaderSize + uint32(payload.Len())}
	var frame ams.Buffer
	frame.WriteStruct(&tcpHdr)
	frame.WriteStruct(&amsHdr)
	frame.Write(payload.Bytes())
	if _, err := conn.Write(frame.Bytes()); err != nil {
		t.Fatalf("write notification: %v", err)
	}

	select {
	case got := <-client.Notifications():
		samples := got.Samples()
		if len(samples) != 1 || samples[0].Handle != 55 {
			t.Errorf("Samples() = %+v, want one sample with handle 55", samples)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}
}

func TestClientSessionLockKeepsSessionID(t *testing.T) {
	router := startFakeRouter(t)
	defer router.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, router.ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	router.accept(t)

	lock := client.LockSession()
	sid := client.SessionID()
	lock.Release()

	if client.SessionID() != sid {
		t.Errorf("SessionID() = %d, want %d unchanged", client.SessionID(), sid)
	}
}

func TestReaderRestartEmitsBeaconAndBumpsSession(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connCh := make(chan net.Conn, 2)
	go func() {
		for i := 0; i < 2; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			connCh <- conn
		}
	}()

	client, err := Connect(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Shutdown(ctx)

	first := <-connCh
	beacon := client.RestartBeacon()
	v0 := beacon.Version()
	sid0 := client.SessionID()

	first.Close()

	v1, ok := beacon.WaitFrom(v0)
	if !ok {
		t.Fatal("beacon closed unexpectedly")
	}
	if v1 <= v0 {
		t.Errorf("beacon version = %d, want greater than %d", v1, v0)
	}

	select {
	case second := <-connCh:
		defer second.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}

	if client.SessionID() <= sid0 {
		t.Errorf("SessionID() = %d, want greater than %d after reconnect", client.SessionID(), sid0)
	}
}
