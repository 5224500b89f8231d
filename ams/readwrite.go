// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

// ReadRequest is the packet for an ADS Read command.
type ReadRequest struct {
	tcpHeader  TCPHeader
	amsHeader  AMSHeader
	IndexGroup uint32
	IndexOff   uint32
	Length     uint32
}

func NewReadRequest(target, sender Addr, indexGroup, indexOffset, length uint32) *ReadRequest {
	return &ReadRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSRead,
			StateFlags: StateADSCommand,
		},
		IndexGroup: indexGroup,
		IndexOff:   indexOffset,
		Length:     length,
	}
}

func (r *ReadRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *ReadRequest) Encode(b *Buffer) error {
	r.amsHeader.Length = 12
	r.tcpHeader.Length = amsHeaderLen + 12
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.IndexGroup)
	b.WriteUint32(r.IndexOff)
	b.WriteUint32(r.Length)
	return b.Err()
}

func (r *ReadRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.IndexGroup = b.ReadUint32()
	r.IndexOff = b.ReadUint32()
	r.Length = b.ReadUint32()
	return b.Err()
}

func IsReadRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSRead && !HasState(h, StateResponse)
}

// ReadResponse is the reply to an ADS Read command.
type ReadResponse struct {
	tcpHeader TCPHeader
	amsHeader AMSHeader
	Result    uint32
	Data      []byte
}

func NewReadResponse(target, sender Addr, result uint32, data []byte) *ReadResponse {
	return &ReadResponse{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSRead,
			StateFlags: StateADSCommand | StateResponse,
		},
		Result: result,
		Data:   data,
	}
}

func (r *ReadResponse) Header() *AMSHeader { return &r.amsHeader }

func (r *ReadResponse) Encode(b *Buffer) error {
	r.amsHeader.Length = uint32(8 + len(r.Data))
	r.tcpHeader.Length = amsHeaderLen + r.amsHeader.Length
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Result)
	b.WriteUint32(uint32(len(r.Data)))
	b.Write(r.Data)
	return b.Err()
}

func (r *ReadResponse) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Result = b.ReadUint32()
	n := b.ReadUint32()
	r.Data = b.ReadN(int(n))
	return b.Err()
}

func IsReadResponse(h AMSHeader) bool {
	return h.CmdID == CmdADSRead && HasState(h, StateResponse)
}

// WriteRequest is the packet for an ADS Write command.
type WriteRequest struct {
	tcpHeader  TCPHeader
	amsHeader  AMSHeader
	IndexGroup uint32
	IndexOff   uint32
	Data       []byte
}

func NewWriteRequest(target, sender Addr, indexGroup, indexOffset uint32, data []byte) *WriteRequest {
	return &WriteRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSWrite,
			StateFlags: StateADSCommand,
		},
		IndexGroup: indexGroup,
		IndexOff:   indexOffset,
		Data:       data,
	}
}

func (r *WriteRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *WriteRequest) Encode(b *Buffer) error {
	r.amsHeader.Length = uint32(12 + len(r.Data))
	r.tcpHeader.Length = amsHeaderLen + r.amsHeader.Length
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.IndexGroup)
	b.WriteUint32(r.IndexOff)
	b.WriteUint32(uint32(len(r.Data)))
	b.Write(r.Data)
	return b.Err()
}

func (r *WriteRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.IndexGroup = b.ReadUint32()
	r.IndexOff = b.ReadUint32()
	n := b.ReadUint32()
	r.Data = b.ReadN(int(n))
	return b.Err()
}

func IsWriteRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSWrite && !HasState(h, StateResponse)
}

// WriteResponse is the reply to an ADS Write command.
type WriteResponse struct {
	tcpHeader TCPHeader
	amsHeader AMSHeader
	Result    uint32
}

func NewWriteResponse(target, sender Addr, result uint32) *WriteResponse {
	return &WriteResponse{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSWrite,
			StateFlags: StateADSCommand | StateResponse,
		},
		Result: result,
	}
}

func (r *WriteResponse) Header() *AMSHeader { return &r.amsHeader }

func (r *WriteResponse) Encode(b *Buffer) error {
	r.amsHeader.Length = 4
	r.tcpHeader.Length = amsHeaderLen + 4
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Result)
	return b.Err()
}

func (r *WriteResponse) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Result = b.ReadUint32()
	return b.Err()
}

func IsWriteResponse(h AMSHeader) bool {
	return h.CmdID == CmdADSWrite && HasState(h, StateResponse)
}

// ReadWriteRequest is the packet for an ADS ReadWrite command, also used to
// carry every sum-up ("multi") request variant.
type ReadWriteRequest struct {
	tcpHeader   TCPHeader
	amsHeader   AMSHeader
	IndexGroup  uint32
	IndexOff    uint32
	ReadLength  uint32
	WriteData   []byte
}

func NewReadWriteRequest(target, sender Addr, indexGroup, indexOffset, readLength uint32, writeData []byte) *ReadWriteRequest {
	return &ReadWriteRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSReadWrite,
			StateFlags: StateADSCommand,
		},
		IndexGroup: indexGroup,
		IndexOff:   indexOffset,
		ReadLength: readLength,
		WriteData:  writeData,
	}
}

func (r *ReadWriteRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *ReadWriteRequest) Encode(b *Buffer) error {
	r.amsHeader.Length = uint32(16 + len(r.WriteData))
	r.tcpHeader.Length = amsHeaderLen + r.amsHeader.Length
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.IndexGroup)
	b.WriteUint32(r.IndexOff)
	b.WriteUint32(r.ReadLength)
	b.WriteUint32(uint32(len(r.WriteData)))
	b.Write(r.WriteData)
	return b.Err()
}

func (r *ReadWriteRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.IndexGroup = b.ReadUint32()
	r.IndexOff = b.ReadUint32()
	r.ReadLength = b.ReadUint32()
	n := b.ReadUint32()
	r.WriteData = b.ReadN(int(n))
	return b.Err()
}

func IsReadWriteRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSReadWrite && !HasState(h, StateResponse)
}

// ReadWriteResponse is the reply to an ADS ReadWrite command.
type ReadWriteResponse struct {
	tcpHeader TCPHeader
	amsHeader AMSHeader
	Result    uint32
	Data      []byte
}

func NewReadWriteResponse(target, sender Addr, result uint32, data []byte) *ReadWriteResponse {
	return &ReadWriteResponse{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSReadWrite,
			StateFlags: StateADSCommand | StateResponse,
		},
		Result: result,
		Data:   data,
	}
}

func (r *ReadWriteResponse) Header() *AMSHeader { return &r.amsHeader }

func (r *ReadWriteResponse) Encode(b *Buffer) error {
	r.amsHeader.Length = uint32(8 + len(r.Data))
	r.tcpHeader.Length = amsHeaderLen + r.amsHeader.Length
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Result)
	b.WriteUint32(uint32(len(r.Data)))
	b.Write(r.Data)
	return b.Err()
}

func (r *ReadWriteResponse) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Result = b.ReadUint32()
	n := b.ReadUint32()
	r.Data = b.ReadN(int(n))
	return b.Err()
}

func IsReadWriteResponse(h AMSHeader) bool {
	return h.CmdID == CmdADSReadWrite && HasState(h, StateResponse)
}

// ReadStateRequest is the packet for an ADS ReadState command.
type ReadStateRequest struct {
	tcpHeader TCPHeader
	amsHeader AMSHeader
}

func NewReadStateRequest(target, sender Addr) *ReadStateRequest {
	return &ReadStateRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSReadState,
			StateFlags: StateADSCommand,
		},
	}
}

func (r *ReadStateRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *ReadStateRequest) Encode(b *Buffer) error {
	r.tcpHeader.Length = amsHeaderLen
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	return b.Err()
}

func (r *ReadStateRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	return b.Err()
}

func IsReadStateRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSReadState && !HasState(h, StateResponse)
}

// ReadStateResponse is the reply to an ADS ReadState command.
type ReadStateResponse struct {
	tcpHeader   TCPHeader
	amsHeader   AMSHeader
	Result      uint32
	ADSState    uint16
	DeviceState uint16
}

func NewReadStateResponse(target, sender Addr, result uint32, adsState, deviceState uint16) *ReadStateResponse {
	return &ReadStateResponse{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSReadState,
			StateFlags: StateADSCommand | StateResponse,
		},
		Result:      result,
		ADSState:    adsState,
		DeviceState: deviceState,
	}
}

func (r *ReadStateResponse) Header() *AMSHeader { return &r.amsHeader }

func (r *ReadStateResponse) Encode(b *Buffer) error {
	r.amsHeader.Length = 8
	r.tcpHeader.Length = amsHeaderLen + 8
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Result)
	b.WriteUint16(r.ADSState)
	b.WriteUint16(r.DeviceState)
	return b.Err()
}

func (r *ReadStateResponse) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Result = b.ReadUint32()
	r.ADSState = b.ReadUint16()
	r.DeviceState = b.ReadUint16()
	return b.Err()
}

func IsReadStateResponse(h AMSHeader) bool {
	return h.CmdID == CmdADSReadState && HasState(h, StateResponse)
}

// WriteControlRequest is the packet for an ADS WriteControl command.
type WriteControlRequest struct {
	tcpHeader   TCPHeader
	amsHeader   AMSHeader
	ADSState    uint16
	DeviceState uint16
	Data        []byte
}

func NewWriteControlRequest(target, sender Addr, adsState, deviceState uint16, data []byte) *WriteControlRequest {
	return &WriteControlRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSWriteControl,
			StateFlags: StateADSCommand,
		},
		ADSState:    adsState,
		DeviceState: deviceState,
		Data:        data,
	}
}

func (r *WriteControlRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *WriteControlRequest) Encode(b *Buffer) error {
	r.amsHeader.Length = uint32(8 + len(r.Data))
	r.tcpHeader.Length = amsHeaderLen + r.amsHeader.Length
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint16(r.ADSState)
	b.WriteUint16(r.DeviceState)
	b.WriteUint32(uint32(len(r.Data)))
	b.Write(r.Data)
	return b.Err()
}

func (r *WriteControlRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.ADSState = b.ReadUint16()
	r.DeviceState = b.ReadUint16()
	n := b.ReadUint32()
	r.Data = b.ReadN(int(n))
	return b.Err()
}

func IsWriteControlRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSWriteControl && !HasState(h, StateResponse)
}

// WriteControlResponse is the reply to an ADS WriteControl command.
type WriteControlResponse struct {
	tcpHeader TCPHeader
	amsHeader AMSHeader
	Result    uint32
}

func NewWriteControlResponse(target, sender Addr, result uint32) *WriteControlResponse {
	return &WriteControlResponse{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSWriteControl,
			StateFlags: StateADSCommand | StateResponse,
		},
		Result: result,
	}
}

func (r *WriteControlResponse) Header() *AMSHeader { return &r.amsHeader }

func (r *WriteControlResponse) Encode(b *Buffer) error {
	r.amsHeader.Length = 4
	r.tcpHeader.Length = amsHeaderLen + 4
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Result)
	return b.Err()
}

func (r *WriteControlResponse) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Result = b.ReadUint32()
	return b.Err()
}

func IsWriteControlResponse(h AMSHeader) bool {
	return h.CmdID == CmdADSWriteControl && HasState(h, StateResponse)
}
