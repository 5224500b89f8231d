package goads

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EncodePLCValue converts a textual value into its IEC 61131-3 wire
// representation, the way the CLI's write command turns a command-line
// argument into the bytes an ADS Write expects. size is only consulted
// for STRING, where it is the fixed field width on the wire.
func EncodePLCValue(value, dataType string, size uint32) ([]byte, error) {
	switch dataType {
	case "BOOL":
		return []byte{boolByte(value == "true" || value == "1")}, nil

	case "SINT":
		v, err := strconv.ParseInt(value, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid SINT value %q: %w", value, err)
		}
		return []byte{byte(int8(v))}, nil

	case "USINT", "BYTE":
		v, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid USINT/BYTE value %q: %w", value, err)
		}
		return []byte{byte(v)}, nil

	case "INT":
		v, err := strconv.ParseInt(value, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid INT value %q: %w", value, err)
		}
		data := make([]byte, 2)
		binary.LittleEndian.PutUint16(data, uint16(int16(v)))
		return data, nil

	case "UINT", "WORD":
		v, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid UINT/WORD value %q: %w", value, err)
		}
		data := make([]byte, 2)
		binary.LittleEndian.PutUint16(data, uint16(v))
		return data, nil

	case "DINT":
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid DINT value %q: %w", value, err)
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, uint32(int32(v)))
		return data, nil

	case "UDINT", "DWORD":
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid UDINT/DWORD value %q: %w", value, err)
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, uint32(v))
		return data, nil

	case "LINT":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LINT value %q: %w", value, err)
		}
		data := make([]byte, 8)
		binary.LittleEndian.PutUint64(data, uint64(v))
		return data, nil

	case "ULINT", "LWORD":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ULINT/LWORD value %q: %w", value, err)
		}
		data := make([]byte, 8)
		binary.LittleEndian.PutUint64(data, v)
		return data, nil

	case "REAL":
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid REAL value %q: %w", value, err)
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, math.Float32bits(float32(v)))
		return data, nil

	case "LREAL":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LREAL value %q: %w", value, err)
		}
		data := make([]byte, 8)
		binary.LittleEndian.PutUint64(data, math.Float64bits(v))
		return data, nil

	default:
		if strings.HasPrefix(dataType, "STRING") {
			data := make([]byte, size)
			n := copy(data, value)
			if n < len(data) {
				data[n] = 0
			}
			return data, nil
		}
	}

	return nil, fmt.Errorf("unsupported data type: %s", dataType)
}

// DecodePLCValue is EncodePLCValue's inverse, used by the CLI's read
// command to print a raw ADS reply in the requested IEC 61131-3 type
// instead of hex. Unknown types fall back to a hex dump.
func DecodePLCValue(data []byte, dataType string) interface{} {
	if len(data) == 0 {
		return nil
	}

	switch dataType {
	case "BOOL":
		return data[0] != 0
	case "SINT":
		return int8(data[0])
	case "USINT", "BYTE":
		return data[0]
	case "INT":
		if len(data) >= 2 {
			return int16(binary.LittleEndian.Uint16(data[:2]))
		}
	case "UINT", "WORD":
		if len(data) >= 2 {
			return binary.LittleEndian.Uint16(data[:2])
		}
	case "DINT":
		if len(data) >= 4 {
			return int32(binary.LittleEndian.Uint32(data[:4]))
		}
	case "UDINT", "DWORD":
		if len(data) >= 4 {
			return binary.LittleEndian.Uint32(data[:4])
		}
	case "LINT":
		if len(data) >= 8 {
			return int64(binary.LittleEndian.Uint64(data[:8]))
		}
	case "ULINT", "LWORD":
		if len(data) >= 8 {
			return binary.LittleEndian.Uint64(data[:8])
		}
	case "REAL":
		if len(data) >= 4 {
			return math.Float32frombits(binary.LittleEndian.Uint32(data[:4]))
		}
	case "LREAL":
		if len(data) >= 8 {
			return math.Float64frombits(binary.LittleEndian.Uint64(data[:8]))
		}
	default:
		if strings.HasPrefix(dataType, "STRING") {
			if i := strings.IndexByte(string(data), 0); i >= 0 {
				return string(data[:i])
			}
			return string(data)
		}
	}

	return fmt.Sprintf("%X", data)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
