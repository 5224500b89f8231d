package goads

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mrpasztoradam/goads/ams"
)

// FixupWriteReadReturnBuffers corrects the placement of a sum-up
// ReadWrite reply's per-element data after communicate's generic copy
// has distributed it across buffers by their declared (not actual)
// length. Each buffer i currently holds packedStream[initOffset_i:]
// clipped to len(buffers[i]), where initOffset_i is the sum of the
// declared lengths of buffers before it; after Fixup, buffer i holds
// exactly packedStream[actualOffset_i : actualOffset_i+lengths[i]],
// where actualOffset_i is the sum of the actual lengths before it, and
// every byte beyond that is zeroed. When lengths equals every buffer's
// declared length, this is a no-op.
func FixupWriteReadReturnBuffers(buffers [][]byte, lengths []int) error {
	if len(buffers) != len(lengths) {
		return fmt.Errorf("ams: sum-up fix-up: %d buffers, %d lengths", len(buffers), len(lengths))
	}

	total := 0
	for _, l := range lengths {
		if l < 0 {
			return fmt.Errorf("ams: sum-up fix-up: negative length %d", l)
		}
		total += l
	}

	packed := make([]byte, 0, total)
	remaining := total
	for _, buf := range buffers {
		if remaining <= 0 {
			break
		}
		n := len(buf)
		if n > remaining {
			n = remaining
		}
		packed = append(packed, buf[:n]...)
		remaining -= n
	}
	if len(packed) < total {
		return fmt.Errorf("ams: sum-up fix-up: short packed data: have %d want %d", len(packed), total)
	}

	off := 0
	for i, buf := range buffers {
		n := lengths[i]
		if n > len(buf) {
			return fmt.Errorf("ams: sum-up fix-up: length %d exceeds buffer %d (%d bytes)", n, i, len(buf))
		}
		copy(buf[:n], packed[off:off+n])
		for j := n; j < len(buf); j++ {
			buf[j] = 0
		}
		off += n
	}
	return nil
}

// ReadSpec is one element of a sum-up read.
type ReadSpec struct {
	IndexGroup, IndexOffset uint32
}

// ReadMulti batches len(specs) reads into a single SUMUP_READ_EX
// exchange. buffers[i] must be preallocated to the maximum expected
// length of specs[i]'s value; on return it holds only the bytes the
// target actually produced for specs[i] (the length reported in the
// reply's result table), with the remainder zeroed. results[i] is that
// element's ADS result code.
func (d *Device) ReadMulti(ctx context.Context, specs []ReadSpec, buffers [][]byte) ([]uint32, error) {
	n := len(specs)
	if n != len(buffers) {
		return nil, invalidDataErr("read multi", fmt.Errorf("%d specs, %d buffers", n, len(buffers)))
	}

	write := make([]byte, 0, n*12)
	readLen := n * 8
	for i, s := range specs {
		var tmp [12]byte
		binary.LittleEndian.PutUint32(tmp[0:4], s.IndexGroup)
		binary.LittleEndian.PutUint32(tmp[4:8], s.IndexOffset)
		binary.LittleEndian.PutUint32(tmp[8:12], uint32(len(buffers[i])))
		write = append(write, tmp[:]...)
		readLen += len(buffers[i])
	}

	var header [16]byte
	binary.LittleEndian.PutUint32(header[0:4], ams.SumupReadEx)
	binary.LittleEndian.PutUint32(header[4:8], uint32(n))
	binary.LittleEndian.PutUint32(header[8:12], uint32(readLen))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(write)))

	// Like a plain ReadWrite, the sum-up reply is [result][length][data];
	// absorb the length into its own buffer ahead of the result table.
	var replyLen [4]byte
	resultTable := make([]byte, n*8)
	dataOut := make([][]byte, 0, n+2)
	dataOut = append(dataOut, replyLen[:], resultTable)
	dataOut = append(dataOut, buffers...)

	if _, err := d.c.communicate(ctx, "read multi", ams.CmdADSReadWrite, d.target, [][]byte{header[:], write}, dataOut); err != nil {
		return nil, err
	}

	results := make([]uint32, n)
	lengths := make([]int, n)
	for i := 0; i < n; i++ {
		results[i] = binary.LittleEndian.Uint32(resultTable[i*8 : i*8+4])
		lengths[i] = int(binary.LittleEndian.Uint32(resultTable[i*8+4 : i*8+8]))
	}
	if err := FixupWriteReadReturnBuffers(buffers, lengths); err != nil {
		return results, ioErr("read multi", err)
	}
	return results, nil
}

// WriteSpec is one element of a sum-up write.
type WriteSpec struct {
	IndexGroup, IndexOffset uint32
	Data                    []byte
}

// WriteMulti batches len(specs) writes into a single SUMUP_WRITE
// exchange, returning each element's ADS result code.
func (d *Device) WriteMulti(ctx context.Context, specs []WriteSpec) ([]uint32, error) {
	n := len(specs)
	headers := make([]byte, 0, n*12)
	data := make([]byte, 0)
	for _, s := range specs {
		var tmp [12]byte
		binary.LittleEndian.PutUint32(tmp[0:4], s.IndexGroup)
		binary.LittleEndian.PutUint32(tmp[4:8], s.IndexOffset)
		binary.LittleEndian.PutUint32(tmp[8:12], uint32(len(s.Data)))
		headers = append(headers, tmp[:]...)
		data = append(data, s.Data...)
	}
	write := append(headers, data...)

	var header [16]byte
	binary.LittleEndian.PutUint32(header[0:4], ams.SumupWrite)
	binary.LittleEndian.PutUint32(header[4:8], uint32(n))
	binary.LittleEndian.PutUint32(header[8:12], uint32(n*4))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(write)))

	var replyLen [4]byte
	resultTable := make([]byte, n*4)
	if _, err := d.c.communicate(ctx, "write multi", ams.CmdADSReadWrite, d.target, [][]byte{header[:], write}, [][]byte{replyLen[:], resultTable}); err != nil {
		return nil, err
	}

	results := make([]uint32, n)
	for i := 0; i < n; i++ {
		results[i] = binary.LittleEndian.Uint32(resultTable[i*4 : i*4+4])
	}
	return results, nil
}

// ReadWriteSpec is one element of a sum-up read/write.
type ReadWriteSpec struct {
	IndexGroup, IndexOffset uint32
	WriteData               []byte
}

// ReadWriteMulti batches len(specs) read/writes into a single
// SUMUP_READWRITE exchange. readBuffers[i] must be preallocated to the
// maximum expected length of specs[i]'s result.
func (d *Device) ReadWriteMulti(ctx context.Context, specs []ReadWriteSpec, readBuffers [][]byte) ([]uint32, error) {
	n := len(specs)
	if n != len(readBuffers) {
		return nil, invalidDataErr("read/write multi", fmt.Errorf("%d specs, %d buffers", n, len(readBuffers)))
	}

	headers := make([]byte, 0, n*16)
	writeData := make([]byte, 0)
	readLen := n * 8
	for i, s := range specs {
		var tmp [16]byte
		binary.LittleEndian.PutUint32(tmp[0:4], s.IndexGroup)
		binary.LittleEndian.PutUint32(tmp[4:8], s.IndexOffset)
		binary.LittleEndian.PutUint32(tmp[8:12], uint32(len(readBuffers[i])))
		binary.LittleEndian.PutUint32(tmp[12:16], uint32(len(s.WriteData)))
		headers = append(headers, tmp[:]...)
		writeData = append(writeData, s.WriteData...)
		readLen += len(readBuffers[i])
	}
	write := append(headers, writeData...)

	var header [16]byte
	binary.LittleEndian.PutUint32(header[0:4], ams.SumupReadWrite)
	binary.LittleEndian.PutUint32(header[4:8], uint32(n))
	binary.LittleEndian.PutUint32(header[8:12], uint32(readLen))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(write)))

	var replyLen [4]byte
	resultTable := make([]byte, n*8)
	dataOut := make([][]byte, 0, n+2)
	dataOut = append(dataOut, replyLen[:], resultTable)
	dataOut = append(dataOut, readBuffers...)

	if _, err := d.c.communicate(ctx, "read/write multi", ams.CmdADSReadWrite, d.target, [][]byte{header[:], write}, dataOut); err != nil {
		return nil, err
	}

	results := make([]uint32, n)
	lengths := make([]int, n)
	for i := 0; i < n; i++ {
		results[i] = binary.LittleEndian.Uint32(resultTable[i*8 : i*8+4])
		lengths[i] = int(binary.LittleEndian.Uint32(resultTable[i*8+4 : i*8+8]))
	}
	if err := FixupWriteReadReturnBuffers(readBuffers, lengths); err != nil {
		return results, ioErr("read/write multi", err)
	}
	return results, nil
}

// AddNotificationSpec is one element of a sum-up notification add.
type AddNotificationSpec struct {
	IndexGroup, IndexOffset, Length uint32
	TransMode                       uint32
	MaxDelayMs, CycleTimeMs         uint32
}

// AddNotificationMulti subscribes to len(specs) variables in a single
// SUMUP_ADDDEVNOTE exchange. Handles are tracked for cleanup only for
// elements whose result is ams.NoError.
func (d *Device) AddNotificationMulti(ctx context.Context, specs []AddNotificationSpec) (handles []uint32, results []uint32, err error) {
	n := len(specs)
	write := make([]byte, 0, n*40)
	for _, s := range specs {
		var tmp [40]byte
		binary.LittleEndian.PutUint32(tmp[0:4], s.IndexGroup)
		binary.LittleEndian.PutUint32(tmp[4:8], s.IndexOffset)
		binary.LittleEndian.PutUint32(tmp[8:12], s.Length)
		binary.LittleEndian.PutUint32(tmp[12:16], s.TransMode)
		binary.LittleEndian.PutUint32(tmp[16:20], s.MaxDelayMs)
		binary.LittleEndian.PutUint32(tmp[20:24], s.CycleTimeMs)
		write = append(write, tmp[:]...)
	}

	var header [16]byte
	binary.LittleEndian.PutUint32(header[0:4], ams.SumupAddDevNote)
	binary.LittleEndian.PutUint32(header[4:8], uint32(n))
	binary.LittleEndian.PutUint32(header[8:12], uint32(n*8))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(write)))

	var replyLen [4]byte
	resultTable := make([]byte, n*8)
	if _, err := d.c.communicate(ctx, "add notification multi", ams.CmdADSReadWrite, d.target, [][]byte{header[:], write}, [][]byte{replyLen[:], resultTable}); err != nil {
		return nil, nil, err
	}

	results = make([]uint32, n)
	handles = make([]uint32, n)
	for i := 0; i < n; i++ {
		results[i] = binary.LittleEndian.Uint32(resultTable[i*8 : i*8+4])
		handles[i] = binary.LittleEndian.Uint32(resultTable[i*8+4 : i*8+8])
		if results[i] == ams.NoError {
			d.c.trackHandle(d.target, handles[i])
		}
	}
	return handles, results, nil
}

// DeleteNotificationMulti cancels len(handles) subscriptions in a single
// SUMUP_DELDEVNOTE exchange.
func (d *Device) DeleteNotificationMulti(ctx context.Context, handles []uint32) ([]uint32, error) {
	n := len(handles)
	write := make([]byte, n*4)
	for i, h := range handles {
		binary.LittleEndian.PutUint32(write[i*4:i*4+4], h)
	}

	var header [16]byte
	binary.LittleEndian.PutUint32(header[0:4], ams.SumupDelDevNote)
	binary.LittleEndian.PutUint32(header[4:8], uint32(n))
	binary.LittleEndian.PutUint32(header[8:12], uint32(n*4))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(write)))

	var replyLen [4]byte
	resultTable := make([]byte, n*4)
	if _, err := d.c.communicate(ctx, "delete notification multi", ams.CmdADSReadWrite, d.target, [][]byte{header[:], write}, [][]byte{replyLen[:], resultTable}); err != nil {
		return nil, err
	}

	results := make([]uint32, n)
	for i := 0; i < n; i++ {
		results[i] = binary.LittleEndian.Uint32(resultTable[i*4 : i*4+4])
		if results[i] == ams.NoError {
			d.c.untrackHandle(d.target, handles[i])
		}
	}
	return results, nil
}
