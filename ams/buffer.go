// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Buffer is a little-endian, bit-exact codec over a byte slice. It is used
// both to build an outgoing frame (zero-value Buffer, Write* methods append)
// and to walk a received frame (NewBuffer, Read* methods advance a cursor).
// The first error encountered is sticky: once set, every subsequent Read/
// Write call is a no-op so callers can chain calls and check Err() once.
type Buffer struct {
	buf []byte
	pos int
	err error
}

// NewBuffer wraps data for decoding. It does not copy data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{buf: data}
}

// Err returns the first error encountered, if any.
func (b *Buffer) Err() error {
	return b.err
}

// Bytes returns the accumulated (encode) or whole source (decode) bytes;
// the read cursor is not applied.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return len(b.buf) - b.pos
}

func (b *Buffer) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// WriteStruct appends the fixed-size, little-endian encoding of v.
func (b *Buffer) WriteStruct(v interface{}) {
	if b.err != nil {
		return
	}
	var tmp bytes.Buffer
	if err := binary.Write(&tmp, binary.LittleEndian, v); err != nil {
		b.fail(err)
		return
	}
	b.buf = append(b.buf, tmp.Bytes()...)
}

// ReadStruct decodes the next binary.Size(v) bytes into v.
func (b *Buffer) ReadStruct(v interface{}) {
	if b.err != nil {
		return
	}
	size := binary.Size(v)
	if size < 0 {
		b.fail(io.ErrUnexpectedEOF)
		return
	}
	if b.pos+size > len(b.buf) {
		b.fail(io.ErrUnexpectedEOF)
		return
	}
	if err := binary.Read(bytes.NewReader(b.buf[b.pos:b.pos+size]), binary.LittleEndian, v); err != nil {
		b.fail(err)
		return
	}
	b.pos += size
}

func (b *Buffer) WriteUint8(v uint8) {
	if b.err != nil {
		return
	}
	b.buf = append(b.buf, v)
}

func (b *Buffer) WriteUint16(v uint16) {
	if b.err != nil {
		return
	}
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
}

func (b *Buffer) WriteUint32(v uint32) {
	if b.err != nil {
		return
	}
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

func (b *Buffer) WriteUint64(v uint64) {
	if b.err != nil {
		return
	}
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
}

// Write appends data verbatim.
func (b *Buffer) Write(data []byte) {
	if b.err != nil {
		return
	}
	b.buf = append(b.buf, data...)
}

// WriteN appends data, truncated or zero-padded to exactly n bytes.
func (b *Buffer) WriteN(data []byte, n int) {
	if b.err != nil {
		return
	}
	if len(data) >= n {
		b.buf = append(b.buf, data[:n]...)
		return
	}
	b.buf = append(b.buf, data...)
	b.buf = append(b.buf, make([]byte, n-len(data))...)
}

func (b *Buffer) ReadUint8() uint8 {
	if b.err != nil {
		return 0
	}
	if b.pos+1 > len(b.buf) {
		b.fail(io.ErrUnexpectedEOF)
		return 0
	}
	v := b.buf[b.pos]
	b.pos++
	return v
}

func (b *Buffer) ReadUint16() uint16 {
	if b.err != nil {
		return 0
	}
	if b.pos+2 > len(b.buf) {
		b.fail(io.ErrUnexpectedEOF)
		return 0
	}
	v := binary.LittleEndian.Uint16(b.buf[b.pos : b.pos+2])
	b.pos += 2
	return v
}

func (b *Buffer) ReadUint32() uint32 {
	if b.err != nil {
		return 0
	}
	if b.pos+4 > len(b.buf) {
		b.fail(io.ErrUnexpectedEOF)
		return 0
	}
	v := binary.LittleEndian.Uint32(b.buf[b.pos : b.pos+4])
	b.pos += 4
	return v
}

func (b *Buffer) ReadUint64() uint64 {
	if b.err != nil {
		return 0
	}
	if b.pos+8 > len(b.buf) {
		b.fail(io.ErrUnexpectedEOF)
		return 0
	}
	v := binary.LittleEndian.Uint64(b.buf[b.pos : b.pos+8])
	b.pos += 8
	return v
}

// ReadN returns a copy of the next n bytes.
func (b *Buffer) ReadN(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || b.pos+n > len(b.buf) {
		b.fail(io.ErrUnexpectedEOF)
		return nil
	}
	out := make([]byte, n)
	copy(out, b.buf[b.pos:b.pos+n])
	b.pos += n
	return out
}

// Read fills dst from the buffer.
func (b *Buffer) Read(dst []byte) {
	if b.err != nil {
		return
	}
	if b.pos+len(dst) > len(b.buf) {
		b.fail(io.ErrUnexpectedEOF)
		return
	}
	copy(dst, b.buf[b.pos:b.pos+len(dst)])
	b.pos += len(dst)
}
