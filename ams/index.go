// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

// Well-known ADS index groups.
const (
	IdxGetSymHandleByName      uint32 = 0xF003
	IdxReadWriteSymValueByHandle uint32 = 0xF005
	IdxReleaseSymHandle        uint32 = 0xF006

	// Sum-up ("multi") index groups: each composes several logical
	// operations into a single ReadWrite exchange.
	SumupReadEx      uint32 = 0xF080
	SumupWrite       uint32 = 0xF081
	SumupReadWrite   uint32 = 0xF082
	SumupAddDevNote  uint32 = 0xF083
	SumupDelDevNote  uint32 = 0xF084
)
