// Copyright 2021 gotwincat authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ams

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NetID is a 6-byte AMS network identifier, wire-compatible and
// little-endian on the wire (it is written byte-for-byte, there is no
// multi-byte integer inside it to reorder).
type NetID [6]byte

// LocalAlias is the reserved NetID meaning "the local client's own source
// NetID". Client.Device substitutes the real source NetID for it.
var LocalAlias = NetID{127, 0, 0, 1, 1, 1}

func (n NetID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d.%d.%d", n[0], n[1], n[2], n[3], n[4], n[5])
}

// ParseNetID parses a dotted 6-octet NetID such as "10.90.1.6.1.1".
func ParseNetID(s string) (NetID, error) {
	var n NetID
	parts := strings.Split(s, ".")
	if len(parts) != 6 {
		return n, fmt.Errorf("ams: invalid net id %q: want 6 octets", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return n, fmt.Errorf("ams: invalid net id %q: %w", s, err)
		}
		n[i] = byte(v)
	}
	return n, nil
}

// Addr is an AMS endpoint address: a NetID plus AMS port.
type Addr struct {
	NetID NetID
	Port  uint16
}

func (a Addr) String() string {
	return fmt.Sprintf("%s:%d", a.NetID, a.Port)
}

// IsLocalAlias reports whether a is the reserved "my own NetID" alias.
func (a Addr) IsLocalAlias() bool {
	return a.NetID == LocalAlias
}

// ParseAmsAddr parses "netid:port", e.g. "10.90.1.6.1.1:851".
func ParseAmsAddr(s string) (Addr, error) {
	var a Addr
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return a, fmt.Errorf("ams: invalid address %q: missing port", s)
	}
	netID, err := ParseNetID(s[:idx])
	if err != nil {
		return a, err
	}
	port, err := strconv.ParseUint(s[idx+1:], 10, 16)
	if err != nil {
		return a, fmt.Errorf("ams: invalid address %q: %w", s, err)
	}
	a.NetID = netID
	a.Port = uint16(port)
	return a, nil
}

// LocalNetIDFromConn derives a source NetID by appending ".1.1" to the
// local IPv4 address of conn, the scheme TwinCAT routers use for
// auto-generated client NetIDs.
func LocalNetIDFromConn(localAddr net.Addr) (NetID, error) {
	host, _, err := net.SplitHostPort(localAddr.String())
	if err != nil {
		host = localAddr.String()
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return NetID{}, fmt.Errorf("ams: cannot derive net id from %q", localAddr.String())
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return NetID{}, fmt.Errorf("ams: local address %q is not IPv4", localAddr.String())
	}
	return NetID{ip4[0], ip4[1], ip4[2], ip4[3], 1, 1}, nil
}

// DefaultSourcePort is the AMS source port auto-generated clients use.
const DefaultSourcePort = 58913
