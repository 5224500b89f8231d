package udp

import (
	"bytes"
	"testing"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	m := &Message{
		Service:    ServiceIdentify,
		SourceID:   [6]byte{10, 0, 0, 1, 1, 1},
		SourcePort: 10000,
		Items: []Item{
			{Tag: TagHostName, Value: []byte("plc1\x00")},
			{Tag: TagAmsNetID, Value: []byte{10, 0, 0, 1, 1, 1}},
		},
	}

	raw := m.Encode()
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Service != ServiceIdentify {
		t.Errorf("Service = %d, want %d", got.Service, ServiceIdentify)
	}
	if got.SourceID != m.SourceID {
		t.Errorf("SourceID = %v, want %v", got.SourceID, m.SourceID)
	}
	if got.SourcePort != 10000 {
		t.Errorf("SourcePort = %d, want 10000", got.SourcePort)
	}
	if len(got.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(got.Items))
	}
	if v, ok := got.Find(TagHostName); !ok || !bytes.Equal(v, []byte("plc1\x00")) {
		t.Errorf("Find(TagHostName) = %q, %v", v, ok)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	raw := (&Message{Service: ServiceIdentify}).Encode()
	raw[0] ^= 0xFF
	if _, err := Decode(raw); err == nil {
		t.Error("expected an error for a bad magic prefix")
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	raw := (&Message{
		Service: ServiceIdentify,
		Items:   []Item{{Tag: TagHostName, Value: []byte("hi")}},
	}).Encode()
	if _, err := Decode(raw[:len(raw)-1]); err == nil {
		t.Error("expected an error for a truncated datagram")
	}
}

func buildOSVersionPayload(t *testing.T, tail []byte) []byte {
	t.Helper()
	fixed := make([]byte, 20)
	return append(fixed, tail...)
}

func TestDecodeOSVersionASCII(t *testing.T) {
	v := buildOSVersionPayload(t, []byte("TC/RTOS\x00"))
	if got := decodeOSVersion(v); got != "TC/RTOS" {
		t.Errorf("decodeOSVersion(ASCII) = %q, want %q", got, "TC/RTOS")
	}
}

func TestDecodeOSVersionUTF16LE(t *testing.T) {
	// "Win" widened to UTF-16LE.
	tail := []byte{'W', 0, 'i', 0, 'n', 0, 0, 0}
	v := buildOSVersionPayload(t, tail)
	if got := decodeOSVersion(v); got != "Win" {
		t.Errorf("decodeOSVersion(UTF-16LE) = %q, want %q", got, "Win")
	}
}

func TestDecodeOSVersionEmptyTail(t *testing.T) {
	v := buildOSVersionPayload(t, nil)
	if got := decodeOSVersion(v); got != "" {
		t.Errorf("decodeOSVersion(empty) = %q, want empty", got)
	}
}

func TestParseSysInfo(t *testing.T) {
	m := &Message{
		Items: []Item{
			{Tag: TagHostName, Value: []byte("plc1\x00")},
			{Tag: TagAmsNetID, Value: []byte{10, 0, 0, 1, 1, 1}},
			{Tag: TagTcVersion, Value: []byte{3, 1, 0, 4, 20}},
			{Tag: TagFingerprint, Value: []byte("abc123\x00")},
		},
	}
	info := ParseSysInfo(m)
	if info.Hostname != "plc1" {
		t.Errorf("Hostname = %q, want %q", info.Hostname, "plc1")
	}
	if info.NetID != [6]byte{10, 0, 0, 1, 1, 1} {
		t.Errorf("NetID = %v", info.NetID)
	}
	if info.Fingerprint != "abc123" {
		t.Errorf("Fingerprint = %q, want %q", info.Fingerprint, "abc123")
	}
}

func TestLooksUTF16LE(t *testing.T) {
	if !looksUTF16LE([]byte{'A', 0, 'B', 0}) {
		t.Error("looksUTF16LE(ASCII widened) = false, want true")
	}
	if looksUTF16LE([]byte("plain ascii text")) {
		t.Error("looksUTF16LE(plain ASCII) = true, want false")
	}
	if looksUTF16LE(nil) {
		t.Error("looksUTF16LE(nil) = true, want false")
	}
}
