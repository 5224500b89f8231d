// Package udp implements the ADS discovery/routing sideband protocol:
// a tag-length-value datagram format carried over UDP port 0xBF03, used
// to identify a remote TwinCAT host and to add an AMS route to it
// without going through the TCP ADS channel at all.
package udp

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Magic is the fixed 4-byte prefix of every UDP discovery datagram.
const Magic uint32 = 0x71146603

// Service identifies the kind of UDP discovery exchange.
type Service uint32

const (
	ServiceIdentify Service = 1
	ServiceAddRoute Service = 6
)

// Well-known item tags within a discovery datagram's TLV body.
const (
	TagHostName     uint32 = 5
	TagUserName     uint32 = 2
	TagPassword     uint32 = 3
	TagRouteName    uint32 = 12
	TagAmsNetID     uint32 = 7
	TagTcVersion    uint32 = 9
	TagOsVersion    uint32 = 10
	TagFingerprint  uint32 = 17
)

// Item is one tag-length-value entry in a datagram body.
type Item struct {
	Tag   uint32
	Value []byte
}

// Message is a parsed UDP discovery datagram: magic + service + source
// NetID/port + a sequence of TLV items.
type Message struct {
	Service   Service
	SourceID  [6]byte
	SourcePort uint16
	Items     []Item
}

// Encode serializes m into a UDP datagram payload.
func (m *Message) Encode() []byte {
	buf := make([]byte, 0, 32)
	buf = binary.LittleEndian.AppendUint32(buf, Magic)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Service))
	buf = append(buf, m.SourceID[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, m.SourcePort)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Items)))
	for _, it := range m.Items {
		buf = binary.LittleEndian.AppendUint32(buf, it.Tag)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(it.Value)))
		buf = append(buf, it.Value...)
	}
	return buf
}

// Decode parses a UDP discovery datagram payload.
func Decode(data []byte) (*Message, error) {
	if len(data) < 4+4+6+2+4 {
		return nil, fmt.Errorf("udp: datagram too short: %d bytes", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, fmt.Errorf("udp: bad magic")
	}
	m := &Message{Service: Service(binary.LittleEndian.Uint32(data[4:8]))}
	copy(m.SourceID[:], data[8:14])
	m.SourcePort = binary.LittleEndian.Uint16(data[14:16])
	count := binary.LittleEndian.Uint32(data[16:20])

	off := 20
	for i := uint32(0); i < count; i++ {
		if off+8 > len(data) {
			return nil, fmt.Errorf("udp: truncated item header at offset %d", off)
		}
		tag := binary.LittleEndian.Uint32(data[off : off+4])
		length := binary.LittleEndian.Uint32(data[off+4 : off+8])
		off += 8
		if off+int(length) > len(data) {
			return nil, fmt.Errorf("udp: truncated item value at offset %d", off)
		}
		value := make([]byte, length)
		copy(value, data[off:off+int(length)])
		off += int(length)
		m.Items = append(m.Items, Item{Tag: tag, Value: value})
	}
	return m, nil
}

// Find returns the first item with the given tag.
func (m *Message) Find(tag uint32) ([]byte, bool) {
	for _, it := range m.Items {
		if it.Tag == tag {
			return it.Value, true
		}
	}
	return nil, false
}

// SysInfo is the host information an Identify reply carries.
type SysInfo struct {
	Hostname    string
	NetID       [6]byte
	TcVersion   string
	OSVersion   string
	Fingerprint string
}

// ParseSysInfo extracts host information from an Identify reply.
func ParseSysInfo(m *Message) SysInfo {
	var info SysInfo
	if v, ok := m.Find(TagHostName); ok {
		info.Hostname = trimNull(v)
	}
	if v, ok := m.Find(TagAmsNetID); ok && len(v) >= 6 {
		copy(info.NetID[:], v)
	}
	if v, ok := m.Find(TagTcVersion); ok && len(v) >= 3 {
		info.TcVersion = fmt.Sprintf("%d.%d.%d", v[0], v[1], binary.LittleEndian.Uint16(v[1:3]))
	}
	if v, ok := m.Find(TagOsVersion); ok {
		info.OSVersion = decodeOSVersion(v)
	}
	if v, ok := m.Find(TagFingerprint); ok {
		info.Fingerprint = trimNull(v)
	}
	return info
}

// decodeOSVersion decodes an OSVERSIONINFO-shaped payload. TwinCAT/RTOS
// targets encode the free-text fields as ASCII; Windows targets encode
// them as UTF-16LE. We distinguish by checking whether every other byte
// of the tail is zero, the signature of ASCII text widened to UTF-16LE.
func decodeOSVersion(v []byte) string {
	const fixedFields = 20 // 5 x uint32: major, minor, build, platformID, spare
	if len(v) <= fixedFields {
		return ""
	}
	tail := v[fixedFields:]
	if looksUTF16LE(tail) {
		u16 := make([]uint16, len(tail)/2)
		for i := range u16 {
			u16[i] = binary.LittleEndian.Uint16(tail[i*2 : i*2+2])
		}
		for i, c := range u16 {
			if c == 0 {
				u16 = u16[:i]
				break
			}
		}
		return string(utf16.Decode(u16))
	}
	return trimNull(tail)
}

func looksUTF16LE(b []byte) bool {
	if len(b) < 2 || len(b)%2 != 0 {
		return false
	}
	zeros, total := 0, 0
	for i := 1; i < len(b); i += 2 {
		total++
		if b[i] == 0 {
			zeros++
		}
	}
	return total > 0 && zeros == total
}

func trimNull(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
