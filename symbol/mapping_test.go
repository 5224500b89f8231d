package symbol

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mrpasztoradam/goads/ams"
)

type recordingDevice struct {
	sessionID  uint32
	handle     uint32
	readData   []byte
	writeGroup uint32
	writeOff   uint32
	written    []byte
	readGroup  uint32
	readOff    uint32
}

func (d *recordingDevice) SessionID() uint32 { return d.sessionID }

func (d *recordingDevice) HandleByName(ctx context.Context, symbol string) (uint32, error) {
	return d.handle, nil
}

func (d *recordingDevice) Read(ctx context.Context, indexGroup, indexOffset uint32, buf []byte) (int, error) {
	d.readGroup, d.readOff = indexGroup, indexOffset
	n := copy(buf, d.readData)
	return n, nil
}

func (d *recordingDevice) Write(ctx context.Context, indexGroup, indexOffset uint32, data []byte) error {
	d.writeGroup, d.writeOff = indexGroup, indexOffset
	d.written = append([]byte(nil), data...)
	return nil
}

func TestMappingRead(t *testing.T) {
	dev := &recordingDevice{sessionID: 1, handle: 7, readData: []byte{1, 2, 3, 4}}
	m := NewMapping(dev, "MAIN.counter", 4)

	var got []byte
	err := m.Read(context.Background(), func(b []byte) error {
		got = append([]byte(nil), b...)
		return nil
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("decoded = %v, want [1 2 3 4]", got)
	}
	if dev.readGroup != ams.IdxReadWriteSymValueByHandle || dev.readOff != 7 {
		t.Errorf("read(group=%d, offset=%d), want (group=%d, offset=7)", dev.readGroup, dev.readOff, ams.IdxReadWriteSymValueByHandle)
	}
}

func TestMappingWrite(t *testing.T) {
	dev := &recordingDevice{sessionID: 1, handle: 7}
	m := NewMapping(dev, "MAIN.counter", 4)

	err := m.Write(context.Background(), func(b []byte) (int, error) {
		return copy(b, []byte{9, 9, 9}), nil
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(dev.written, []byte{9, 9, 9}) {
		t.Errorf("written = %v, want [9 9 9]", dev.written)
	}
	if dev.writeGroup != ams.IdxReadWriteSymValueByHandle || dev.writeOff != 7 {
		t.Errorf("write(group=%d, offset=%d), want (group=%d, offset=7)", dev.writeGroup, dev.writeOff, ams.IdxReadWriteSymValueByHandle)
	}
}

func TestMappingWriteRejectsOversizedEncode(t *testing.T) {
	dev := &recordingDevice{sessionID: 1, handle: 7}
	m := NewMapping(dev, "MAIN.counter", 2)

	err := m.Write(context.Background(), func(b []byte) (int, error) {
		return len(b) + 1, nil
	})
	if err == nil {
		t.Error("expected an error when the encoder overruns the buffer")
	}
}

func TestMappingReadPropagatesDecodeError(t *testing.T) {
	dev := &recordingDevice{sessionID: 1, handle: 7, readData: []byte{1}}
	m := NewMapping(dev, "MAIN.flag", 1)

	wantErr := errors.New("bad value")
	err := m.Read(context.Background(), func(b []byte) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Read error = %v, want %v", err, wantErr)
	}
}

func TestMappingInvalidate(t *testing.T) {
	dev := &recordingDevice{sessionID: 1, handle: 7, readData: []byte{0}}
	m := NewMapping(dev, "MAIN.flag", 1)

	_ = m.Read(context.Background(), func(b []byte) error { return nil })
	m.Invalidate()
	dev.handle = 42
	dev.sessionID = 1 // unchanged, but Invalidate alone must force re-resolution
	_ = m.Read(context.Background(), func(b []byte) error { return nil })
	if dev.readOff != 42 {
		t.Errorf("readOff = %d, want 42 after Invalidate", dev.readOff)
	}
}
