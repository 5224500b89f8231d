// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

// DeviceNotificationRequest carries the payload of an unsolicited ADS
// Device Notification: one or more time-stamped batches of sample values,
// each keyed by the handle AddDeviceNotificationResponse returned.
type DeviceNotificationRequest struct {
	tcpHeader  TCPHeader
	amsHeader  AMSHeader
	Length     uint32
	StampCount uint32
	Stamps     []NotificationStamp
}

// NotificationStamp groups every sample that shares one timestamp.
type NotificationStamp struct {
	Timestamp   uint64 // Windows FILETIME, 100ns intervals since 1601-01-01
	SampleCount uint32
	Samples     []NotificationSample
}

// NotificationSample is one handle's value at a NotificationStamp's time.
type NotificationSample struct {
	Handle uint32
	Size   uint32
	Data   []byte
}

func NewDeviceNotificationRequest(target, sender Addr, stamps []NotificationStamp) *DeviceNotificationRequest {
	r := &DeviceNotificationRequest{
		amsHeader: AMSHeader{
			Target:     target,
			Sender:     sender,
			CmdID:      CmdADSDeviceNotification,
			StateFlags: StateADSCommand,
		},
		StampCount: uint32(len(stamps)),
		Stamps:     stamps,
	}
	for _, s := range stamps {
		r.Length += 12
		for _, sample := range s.Samples {
			r.Length += 8 + sample.Size
		}
	}
	return r
}

func (r *DeviceNotificationRequest) Header() *AMSHeader { return &r.amsHeader }

func (r *DeviceNotificationRequest) Encode(b *Buffer) error {
	b.WriteStruct(&r.tcpHeader)
	b.WriteStruct(&r.amsHeader)
	b.WriteUint32(r.Length)
	b.WriteUint32(r.StampCount)
	for _, stamp := range r.Stamps {
		b.WriteUint32(uint32(stamp.Timestamp))
		b.WriteUint32(uint32(stamp.Timestamp >> 32))
		b.WriteUint32(stamp.SampleCount)
		for _, sample := range stamp.Samples {
			b.WriteUint32(sample.Handle)
			b.WriteUint32(sample.Size)
			b.WriteN(sample.Data, int(sample.Size))
		}
	}
	return b.Err()
}

func (r *DeviceNotificationRequest) Decode(b *Buffer) error {
	b.ReadStruct(&r.tcpHeader)
	b.ReadStruct(&r.amsHeader)
	r.Length = b.ReadUint32()
	r.StampCount = b.ReadUint32()
	if b.Err() != nil {
		return b.Err()
	}

	r.Stamps = make([]NotificationStamp, r.StampCount)
	for i := range r.Stamps {
		low := b.ReadUint32()
		high := b.ReadUint32()
		r.Stamps[i].Timestamp = uint64(low) | uint64(high)<<32
		r.Stamps[i].SampleCount = b.ReadUint32()
		if b.Err() != nil {
			return b.Err()
		}

		r.Stamps[i].Samples = make([]NotificationSample, r.Stamps[i].SampleCount)
		for j := range r.Stamps[i].Samples {
			sample := &r.Stamps[i].Samples[j]
			sample.Handle = b.ReadUint32()
			sample.Size = b.ReadUint32()
			sample.Data = b.ReadN(int(sample.Size))
			if b.Err() != nil {
				return b.Err()
			}
		}
	}
	return b.Err()
}

func IsDeviceNotificationRequest(h AMSHeader) bool {
	return h.CmdID == CmdADSDeviceNotification
}
