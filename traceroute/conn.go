package traceroute

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/icmp"
)

// Conn is the ICMP socket the tracer probes through: a deadline-capable
// packet connection with control over the outbound TTL.
type Conn interface {
	ReadFrom(b []byte) (n int, addr net.Addr, err error)
	WriteTo(b []byte, addr net.Addr) (int, error)
	SetTTL(ttl int) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// rawConn is a raw ip4:icmp socket. Creating one requires elevated
// privileges; incoming reads deliver ICMP messages with the IPv4 header
// already stripped by the runtime.
type rawConn struct {
	*net.IPConn
}

func (c *rawConn) SetTTL(ttl int) error {
	sc, err := c.IPConn.SyscallConn()
	if err != nil {
		return err
	}
	return setSocketTTL(sc, ttl)
}

// dgramConn is a datagram-oriented ICMP socket (udp4), usable without
// privileges on systems that allow it.
type dgramConn struct {
	*icmp.PacketConn
}

func (c *dgramConn) SetTTL(ttl int) error {
	return c.PacketConn.IPv4PacketConn().SetTTL(ttl)
}

// Listen opens the session socket. One socket serves the whole trace,
// both for sending probes and collecting responses.
func Listen(unprivileged bool) (Conn, error) {
	if unprivileged {
		c, err := icmp.ListenPacket("udp4", "0.0.0.0")
		if err != nil {
			return nil, errors.Wrap(err, "listen on datagram icmp socket")
		}
		return &dgramConn{c}, nil
	}

	c, err := net.ListenIP("ip4:icmp", nil)
	if err != nil {
		return nil, errors.Wrap(err, "listen on raw icmp socket (requires privileges)")
	}
	return &rawConn{c}, nil
}
