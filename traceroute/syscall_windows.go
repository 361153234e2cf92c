//go:build windows
// +build windows

package traceroute

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// setSocketTTL sets the outbound IPv4 TTL on the underlying socket. The
// TTL is socket-scoped state, so senders must call this immediately
// before every transmission.
func setSocketTTL(conn syscall.RawConn, ttl int) error {
	var err error
	if e := conn.Control(func(fd uintptr) {
		err = windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IP, windows.IP_TTL, ttl)
	}); e != nil {
		return e
	}

	return err
}
