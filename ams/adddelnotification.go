// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

// AddDeviceNotificationRequest is the packet for an ADS AddDeviceNotification
// command: subscribe to changes of length bytes at indexGroup/indexOffset.
type AddDeviceNotificationRequest struct {
	tcpHeader  TCPHeader
	amsHeader  AMSHeader
	IndexGroup uint32
	IndexOff   uint32
	Length     uint32
	TransMode  uint32
	MaxDelay   uint32 // milliseconds
	CycleTime  uint32 // milliseconds
	Reserved   [16]byte
}

func NewAddDeviceNotificationRequest(target, sender Addr, indexGroup, indexOffset, length, transMode, maxDelay, cycleTime uint32) *AddDeviceNotificationRequest {
	return &AddDeviceNotificationRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSAddDeviceNotification,
			StateFlags: StateADSCommand,
		},
		IndexGroup: indexGroup,
		IndexOff:   indexOffset,
		Length:     length,
		TransMode:  transMode,
		MaxDelay:   maxDelay,
		CycleTime:  cycleTime,
	}
}

func (r *AddDeviceNotificationRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *AddDeviceNotificationRequest) Encode(b *Buffer) error {
	r.amsHeader.Length = 40
	r.tcpHeader.Length = amsHeaderLen + 40
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.IndexGroup)
	b.WriteUint32(r.IndexOff)
	b.WriteUint32(r.Length)
	b.WriteUint32(r.TransMode)
	b.WriteUint32(r.MaxDelay)
	b.WriteUint32(r.CycleTime)
	b.WriteN(r.Reserved[:], 16)
	return b.Err()
}

func (r *AddDeviceNotificationRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.IndexGroup = b.ReadUint32()
	r.IndexOff = b.ReadUint32()
	r.Length = b.ReadUint32()
	r.TransMode = b.ReadUint32()
	r.MaxDelay = b.ReadUint32()
	r.CycleTime = b.ReadUint32()
	copy(r.Reserved[:], b.ReadN(16))
	return b.Err()
}

func IsAddDeviceNotificationRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSAddDeviceNotification && !HasState(h, StateResponse)
}

// AddDeviceNotificationResponse is the reply to AddDeviceNotification,
// carrying the handle later passed to DeleteDeviceNotification and matched
// against NotificationSample.Handle in the notification stream.
type AddDeviceNotificationResponse struct {
	tcpHeader          TCPHeader
	amsHeader          AMSHeader
	Result             uint32
	NotificationHandle uint32
}

func NewAddDeviceNotificationResponse(target, sender Addr, result, handle uint32) *AddDeviceNotificationResponse {
	return &AddDeviceNotificationResponse{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSAddDeviceNotification,
			StateFlags: StateADSCommand | StateResponse,
		},
		Result:             result,
		NotificationHandle: handle,
	}
}

func (r *AddDeviceNotificationResponse) Header() *AMSHeader { return &r.amsHeader }

func (r *AddDeviceNotificationResponse) Encode(b *Buffer) error {
	r.amsHeader.Length = 8
	r.tcpHeader.Length = amsHeaderLen + 8
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Result)
	b.WriteUint32(r.NotificationHandle)
	return b.Err()
}

func (r *AddDeviceNotificationResponse) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Result = b.ReadUint32()
	r.NotificationHandle = b.ReadUint32()
	return b.Err()
}

func IsAddDeviceNotificationResponse(h AMSHeader) bool {
	return h.CmdID == CmdADSAddDeviceNotification && HasState(h, StateResponse)
}

// DeleteDeviceNotificationRequest is the packet for an ADS
// DeleteDeviceNotification command, cancelling a prior subscription by its
// handle.
type DeleteDeviceNotificationRequest struct {
	tcpHeader          TCPHeader
	amsHeader          AMSHeader
	NotificationHandle uint32
}

func NewDeleteDeviceNotificationRequest(target, sender Addr, handle uint32) *DeleteDeviceNotificationRequest {
	return &DeleteDeviceNotificationRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSDeleteDeviceNotification,
			StateFlags: StateADSCommand,
		},
		NotificationHandle: handle,
	}
}

func (r *DeleteDeviceNotificationRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *DeleteDeviceNotificationRequest) Encode(b *Buffer) error {
	r.amsHeader.Length = 4
	r.tcpHeader.Length = amsHeaderLen + 4
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.NotificationHandle)
	return b.Err()
}

func (r *DeleteDeviceNotificationRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.NotificationHandle = b.ReadUint32()
	return b.Err()
}

func IsDeleteDeviceNotificationRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSDeleteDeviceNotification && !HasState(h, StateResponse)
}

// DeleteDeviceNotificationResponse is the reply to DeleteDeviceNotification.
type DeleteDeviceNotificationResponse struct {
	tcpHeader TCPHeader
	amsHeader AMSHeader
	Result    uint32
}

func NewDeleteDeviceNotificationResponse(target, sender Addr, result uint32) *DeleteDeviceNotificationResponse {
	return &DeleteDeviceNotificationResponse{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSDeleteDeviceNotification,
			StateFlags: StateADSCommand | StateResponse,
		},
		Result: result,
	}
}

func (r *DeleteDeviceNotificationResponse) Header() *AMSHeader { return &r.amsHeader }

func (r *DeleteDeviceNotificationResponse) Encode(b *Buffer) error {
	r.amsHeader.Length = 4
	r.tcpHeader.Length = amsHeaderLen + 4
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Result)
	return b.Err()
}

func (r *DeleteDeviceNotificationResponse) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Result = b.ReadUint32()
	return b.Err()
}

func IsDeleteDeviceNotificationResponse(h AMSHeader) bool {
	return h.CmdID == CmdADSDeleteDeviceNotification && HasState(h, StateResponse)
}
