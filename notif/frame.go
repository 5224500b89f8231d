// Package notif parses ADS device-notification frames into timestamped
// samples and implements the reader-restart beacon.
package notif

import (
	"math"
	"time"

	"github.com/mrpasztoradam/goads/ams"
)

// fileTimeEpochDiff is the number of 100ns ticks between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const fileTimeEpochDiff = 116444736000000000

func filetimeToUnix(ft uint64) time.Time {
	if ft < fileTimeEpochDiff {
		return time.Unix(0, 0).UTC()
	}
	ticks := ft - fileTimeEpochDiff
	const maxTicks = math.MaxInt64 / 100
	if ticks > maxTicks {
		return time.Unix(math.MaxInt64/int64(time.Second), 0).UTC()
	}
	return time.Unix(0, int64(ticks)*100).UTC()
}

// Sample is one timestamped value delivered for a previously subscribed
// notification handle.
type Sample struct {
	Handle    uint32
	Timestamp time.Time
	Data      []byte
}

// Frame is a parsed device-notification frame. Parsing validates structure
// eagerly: every stamp and sample is decoded up front, so a malformed
// frame is rejected by Parse rather than mid-iteration.
type Frame struct {
	raw *ams.DeviceNotificationRequest
}

// Parse decodes a notification frame from a full AMS/TCP + AMS + payload
// buffer as delivered by the reader task.
func Parse(data []byte) (*Frame, error) {
	var req ams.DeviceNotificationRequest
	if err := req.Decode(ams.NewBuffer(data)); err != nil {
		return nil, err
	}
	return &Frame{raw: &req}, nil
}

// Header returns the frame's AMS header.
func (f *Frame) Header() *ams.AMSHeader {
	return f.raw.Header()
}

// Samples flattens every stamp's samples into arrival order. The returned
// slice is independent of the next call.
func (f *Frame) Samples() []Sample {
	out := make([]Sample, 0, len(f.raw.Stamps))
	for _, stamp := range f.raw.Stamps {
		ts := filetimeToUnix(stamp.Timestamp)
		for _, s := range stamp.Samples {
			out = append(out, Sample{Handle: s.Handle, Timestamp: ts, Data: s.Data})
		}
	}
	return out
}
