// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

// TCPHeader is the 6-byte AMS/TCP framing header that precedes every AMS
// header on the wire.
type TCPHeader struct {
	Command uint16 // 0 = ADS data, 1 = close port, 0x1000-0x1002 = router control
	Length  uint32 // length of everything following this header
}

// AMS/TCP commands. TCPCmdData carries ADS traffic; the others are
// router-control messages the reader discards without surfacing them to
// callers (see the reader task's advisory-only handling).
const (
	TCPCmdData            uint16 = 0
	TCPCmdClosePort       uint16 = 1
	TCPCmdRouterNotify    uint16 = 0x1000
	TCPCmdRouterState     uint16 = 0x1001
	TCPCmdGetLocalNetID   uint16 = 0x1002
)

// IsRouterControl reports whether cmd is an advisory router-control
// message rather than ADS data.
func IsRouterControl(cmd uint16) bool {
	switch cmd {
	case TCPCmdClosePort, TCPCmdRouterNotify, TCPCmdRouterState, TCPCmdGetLocalNetID:
		return true
	default:
		return false
	}
}

// amsHeaderLen is the fixed size of an AMSHeader on the wire.
const amsHeaderLen = 32

// AMSHeader is the 32-byte AMS header.
type AMSHeader struct {
	Target     Addr
	Sender     Addr
	CmdID      uint16
	StateFlags uint16
	Length     uint32 // length of the payload following this header
	ErrorCode  uint32
	InvokeID   uint32
}

// ADS commands.
const (
	CmdADSReadDeviceInfo         uint16 = 1
	CmdADSRead                   uint16 = 2
	CmdADSWrite                  uint16 = 3
	CmdADSReadState              uint16 = 4
	CmdADSWriteControl           uint16 = 5
	CmdADSAddDeviceNotification  uint16 = 6
	CmdADSDeleteDeviceNotification uint16 = 7
	CmdADSDeviceNotification     uint16 = 8
	CmdADSReadWrite              uint16 = 9
)

// State flags.
const (
	StateADSCommand uint16 = 0x0004
	StateResponse   uint16 = 0x0001
)

// HasState reports whether h carries every bit set in flag.
func HasState(h AMSHeader, flag uint16) bool {
	return h.StateFlags&flag == flag
}

// NoError is the ADS "success" error code.
const NoError uint32 = 0

// Header is the combined 38-byte AMS/TCP + AMS header, used to peek at an
// incoming frame before deciding which concrete packet type to decode it as.
type Header struct {
	TCPHeader TCPHeader
	AMSHeader AMSHeader
}

func (h *Header) Decode(b *Buffer) error {
	b.ReadStruct(&h.TCPHeader)
	b.ReadStruct(&h.AMSHeader)
	return b.Err()
}

// Request is satisfied by every outgoing AMS packet.
type Request interface {
	Header() *AMSHeader
	Encode(b *Buffer) error
	Decode(b *Buffer) error
}

// Response is satisfied by every incoming AMS packet.
type Response interface {
	Header() *AMSHeader
	Encode(b *Buffer) error
	Decode(b *Buffer) error
}
