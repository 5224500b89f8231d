package udp

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mrpasztoradam/goads/ams"
)

// DefaultPort is the UDP port the ADS discovery/routing service listens
// on.
const DefaultPort = 0xBF03

// defaultTimeout bounds how long GetInfo/AddRoute wait for a reply when
// ctx carries no deadline of its own.
const defaultTimeout = 5 * time.Second

func dial(ctx context.Context, host string) (net.Conn, func(), error) {
	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d", host, DefaultPort))
	if err != nil {
		return nil, nil, fmt.Errorf("udp: dial %s: %w", host, err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, func() { conn.Close() }, nil
}

// GetInfo sends an Identify request to host and returns the host's
// reported name, NetID, TwinCAT/OS version and fingerprint.
func GetInfo(ctx context.Context, host string) (*SysInfo, error) {
	conn, cleanup, err := dial(ctx, host)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	req := &Message{Service: ServiceIdentify}
	if _, err := conn.Write(req.Encode()); err != nil {
		return nil, fmt.Errorf("udp: identify %s: %w", host, err)
	}

	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("udp: identify %s: %w", host, err)
	}

	reply, err := Decode(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("udp: identify %s: %w", host, err)
	}
	info := ParseSysInfo(reply)
	return &info, nil
}

// AddRoute asks host to add an AMS route named routeName pointing back
// at netID, authenticating as username/password. hostname is the name
// or address the remote should dial back to reach the route's owner.
func AddRoute(ctx context.Context, host, routeName string, netID ams.NetID, hostname, username, password string) error {
	conn, cleanup, err := dial(ctx, host)
	if err != nil {
		return err
	}
	defer cleanup()

	req := &Message{
		Service: ServiceAddRoute,
		Items: []Item{
			{Tag: TagRouteName, Value: nullTerminate(routeName)},
			{Tag: TagAmsNetID, Value: netID[:]},
			{Tag: TagHostName, Value: nullTerminate(hostname)},
			{Tag: TagUserName, Value: nullTerminate(username)},
			{Tag: TagPassword, Value: nullTerminate(password)},
		},
	}
	if _, err := conn.Write(req.Encode()); err != nil {
		return fmt.Errorf("udp: add route to %s: %w", host, err)
	}

	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("udp: add route to %s: %w", host, err)
	}
	if _, err := Decode(buf[:n]); err != nil {
		return fmt.Errorf("udp: add route to %s: %w", host, err)
	}
	return nil
}

func nullTerminate(s string) []byte {
	return append([]byte(s), 0)
}
