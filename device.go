package goads

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/mrpasztoradam/goads/ams"
	"github.com/mrpasztoradam/goads/symbol"
)

// Device is a facade for one target AMS address, reached through the
// client's shared connection. Many Devices can share a single Client.
type Device struct {
	c      *Client
	target ams.Addr
}

// Target returns the device's resolved AMS address (local-alias already
// substituted).
func (d *Device) Target() ams.Addr { return d.target }

// SessionID satisfies symbol.Device.
func (d *Device) SessionID() uint32 { return d.c.SessionID() }

// DeviceInfo is the reply to GetInfo.
type DeviceInfo struct {
	Major, Minor uint8
	Build        uint16
	Name         string
}

// GetInfo reads the target's name and version.
func (d *Device) GetInfo(ctx context.Context) (*DeviceInfo, error) {
	req := ams.NewReadDeviceInfoRequest(d.target, d.c.source())
	raw, err := d.c.roundTrip(ctx, "read device info", req)
	if err != nil {
		return nil, err
	}
	defer d.c.bufPool.Put(raw)

	var resp ams.ReadDeviceInfoResponse
	if err := resp.Decode(ams.NewBuffer(raw)); err != nil {
		return nil, ioErr("read device info", err)
	}
	if resp.Result != ams.NoError {
		return nil, adsDomainErr("read device info", resp.Result)
	}
	return &DeviceInfo{
		Major: resp.MajorVersion,
		Minor: resp.MinorVersion,
		Build: resp.BuildVersion,
		Name:  resp.GetDeviceName(),
	}, nil
}

// Read issues an ADS Read into buf, returning the number of bytes the
// target actually returned (which may be less than len(buf)).
func (d *Device) Read(ctx context.Context, indexGroup, indexOffset uint32, buf []byte) (int, error) {
	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:4], indexGroup)
	binary.LittleEndian.PutUint32(header[4:8], indexOffset)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(buf)))

	// The ADS Read reply is [result][length][data]; communicate only
	// strips result, so absorb length into its own buffer ahead of buf
	// instead of letting it land in the caller's data.
	var readLen [4]byte
	if _, err := d.c.communicate(ctx, "read data", ams.CmdADSRead, d.target, [][]byte{header[:]}, [][]byte{readLen[:], buf}); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(readLen[:])), nil
}

// ReadExact is Read, but fails if the target returned fewer bytes than
// len(buf).
func (d *Device) ReadExact(ctx context.Context, indexGroup, indexOffset uint32, buf []byte) error {
	n, err := d.Read(ctx, indexGroup, indexOffset, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return ioErr("read data", errShortData)
	}
	return nil
}

// Write issues an ADS Write of data.
func (d *Device) Write(ctx context.Context, indexGroup, indexOffset uint32, data []byte) error {
	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:4], indexGroup)
	binary.LittleEndian.PutUint32(header[4:8], indexOffset)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(data)))
	_, err := d.c.communicate(ctx, "write data", ams.CmdADSWrite, d.target, [][]byte{header[:], data}, nil)
	return err
}

// WriteRead issues an ADS ReadWrite, writing writeData and reading into
// readBuf, returning the number of bytes actually returned.
func (d *Device) WriteRead(ctx context.Context, indexGroup, indexOffset uint32, writeData, readBuf []byte) (int, error) {
	var header [16]byte
	binary.LittleEndian.PutUint32(header[0:4], indexGroup)
	binary.LittleEndian.PutUint32(header[4:8], indexOffset)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(readBuf)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(writeData)))

	// Same leading-length reply shape as Read: absorb it ahead of readBuf.
	var readLen [4]byte
	if _, err := d.c.communicate(ctx, "write/read data", ams.CmdADSReadWrite, d.target, [][]byte{header[:], writeData}, [][]byte{readLen[:], readBuf}); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(readLen[:])), nil
}

// WriteReadExact is WriteRead, but fails if the target returned fewer
// bytes than len(readBuf).
func (d *Device) WriteReadExact(ctx context.Context, indexGroup, indexOffset uint32, writeData, readBuf []byte) error {
	n, err := d.WriteRead(ctx, indexGroup, indexOffset, writeData, readBuf)
	if err != nil {
		return err
	}
	if n != len(readBuf) {
		return ioErr("write/read data", errShortData)
	}
	return nil
}

// GetState reads the target's ADS and device state.
func (d *Device) GetState(ctx context.Context) (ams.AdsState, uint16, error) {
	req := ams.NewReadStateRequest(d.target, d.c.source())
	raw, err := d.c.roundTrip(ctx, "read state", req)
	if err != nil {
		return 0, 0, err
	}
	defer d.c.bufPool.Put(raw)

	var resp ams.ReadStateResponse
	if err := resp.Decode(ams.NewBuffer(raw)); err != nil {
		return 0, 0, ioErr("read state", err)
	}
	if resp.Result != ams.NoError {
		return 0, 0, adsDomainErr("read state", resp.Result)
	}
	state, err := ams.ParseAdsState(resp.ADSState)
	if err != nil {
		return 0, resp.DeviceState, invalidDataErr("read state", err)
	}
	return state, resp.DeviceState, nil
}

// WriteControl requests a device state transition.
func (d *Device) WriteControl(ctx context.Context, state ams.AdsState, deviceState uint16, data []byte) error {
	req := ams.NewWriteControlRequest(d.target, d.c.source(), uint16(state), deviceState, data)
	raw, err := d.c.roundTrip(ctx, "write control", req)
	if err != nil {
		return err
	}
	defer d.c.bufPool.Put(raw)

	var resp ams.WriteControlResponse
	if err := resp.Decode(ams.NewBuffer(raw)); err != nil {
		return ioErr("write control", err)
	}
	if resp.Result != ams.NoError {
		return adsDomainErr("write control", resp.Result)
	}
	return nil
}

// WaitRunning polls GetState until the target reaches ADSStateRun or
// timeout elapses.
func (d *Device) WaitRunning(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		state, _, err := d.GetState(ctx)
		if err == nil && state == ams.ADSStateRun {
			return nil
		}
		if time.Now().After(deadline) {
			return ioErr("wait running", ErrTimeout)
		}
		select {
		case <-ctx.Done():
			return ioErr("wait running", ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// AddNotification subscribes to changes of the given variable, returning
// the handle used to correlate incoming notif.Frame samples and to later
// call DeleteNotification. maxDelay and cycleTime are sent in whole
// milliseconds.
func (d *Device) AddNotification(ctx context.Context, indexGroup, indexOffset, length uint32, transMode uint32, maxDelay, cycleTime time.Duration) (uint32, error) {
	req := ams.NewAddDeviceNotificationRequest(
		d.target, d.c.source(),
		indexGroup, indexOffset, length, transMode,
		uint32(maxDelay/time.Millisecond),
		uint32(cycleTime/time.Millisecond),
	)
	raw, err := d.c.roundTrip(ctx, "add notification", req)
	if err != nil {
		return 0, err
	}
	defer d.c.bufPool.Put(raw)

	var resp ams.AddDeviceNotificationResponse
	if err := resp.Decode(ams.NewBuffer(raw)); err != nil {
		return 0, ioErr("add notification", err)
	}
	if resp.Result != ams.NoError {
		return 0, adsDomainErr("add notification", resp.Result)
	}
	d.c.trackHandle(d.target, resp.NotificationHandle)
	return resp.NotificationHandle, nil
}

// DeleteNotification cancels a subscription previously created with
// AddNotification.
func (d *Device) DeleteNotification(ctx context.Context, handle uint32) error {
	req := ams.NewDeleteDeviceNotificationRequest(d.target, d.c.source(), handle)
	raw, err := d.c.roundTrip(ctx, "delete notification", req)
	if err != nil {
		return err
	}
	defer d.c.bufPool.Put(raw)

	var resp ams.DeleteDeviceNotificationResponse
	if err := resp.Decode(ams.NewBuffer(raw)); err != nil {
		return ioErr("delete notification", err)
	}
	d.c.untrackHandle(d.target, handle)
	if resp.Result != ams.NoError {
		return adsDomainErr("delete notification", resp.Result)
	}
	return nil
}

// HandleByName resolves a symbol name to a numeric handle, satisfying
// symbol.Device.
func (d *Device) HandleByName(ctx context.Context, name string) (uint32, error) {
	write := append([]byte(name), 0)
	var readBuf [4]byte
	if err := d.WriteReadExact(ctx, ams.IdxGetSymHandleByName, 0, write, readBuf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(readBuf[:]), nil
}

// Mapping returns a reusable read/write port over name, backed by this
// device's handle cache.
func (d *Device) Mapping(name string, bufSize int) *symbol.Mapping {
	return symbol.NewMapping(d, name, bufSize)
}

// ReadInto reads the handle's value and hands the raw bytes to decode,
// a thin convenience over Mapping for one-off typed reads.
func (d *Device) ReadInto(ctx context.Context, handle uint32, buf []byte, decode func([]byte) error) error {
	n, err := d.Read(ctx, ams.IdxReadWriteSymValueByHandle, handle, buf)
	if err != nil {
		return err
	}
	return decode(buf[:n])
}

// WriteFrom lets encode fill buf and report how many bytes it produced,
// then writes exactly that many bytes to the handle.
func (d *Device) WriteFrom(ctx context.Context, handle uint32, buf []byte, encode func([]byte) (int, error)) error {
	n, err := encode(buf)
	if err != nil {
		return err
	}
	return d.Write(ctx, ams.IdxReadWriteSymValueByHandle, handle, buf[:n])
}
