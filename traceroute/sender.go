package traceroute

import (
	"net"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/tracehop/tracehop/packet"
)

// Identity correlates one hop's probes with the responses they provoke.
// Seq always equals the TTL of the hop that produced it; since hops are
// probed strictly one after another, (ID, Seq) is collision-free for the
// whole session.
type Identity struct {
	ID  uint16
	Seq uint16
}

// Sender transmits Echo Request probes with a per-probe TTL.
type Sender struct {
	conn         Conn
	unprivileged bool

	debugLogger logr.Logger
}

func NewSender(conn Conn, unprivileged bool, debugLogger logr.Logger) *Sender {
	return &Sender{
		conn:         conn,
		unprivileged: unprivileged,
		debugLogger:  debugLogger,
	}
}

// SendProbe sets the socket TTL and transmits one Echo Request to dst.
// The TTL option is socket-scoped mutable state, not a per-packet field,
// so it is set immediately before each send. No retry on failure.
func (s *Sender) SendProbe(dst *net.IPAddr, ttl uint8, id Identity) error {
	if err := s.conn.SetTTL(int(ttl)); err != nil {
		return errors.Wrapf(ErrSend, "set ttl %d: %v", ttl, err)
	}

	b := packet.BuildEchoRequest(id.ID, id.Seq)

	var addr net.Addr = dst
	if s.unprivileged {
		addr = &net.UDPAddr{IP: dst.IP}
	}

	n, err := s.conn.WriteTo(b, addr)
	if err != nil {
		return errors.Wrapf(ErrSend, "write to %s: %v", addr, err)
	}
	s.debugLogger.V(4).Info("sent echo request", "dst", addr.String(), "ttl", ttl, "id", id.ID, "seq", id.Seq, "bytes", n)
	return nil
}
