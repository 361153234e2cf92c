package traceroute

import (
	"net"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/tracehop/tracehop/packet"
	"github.com/tracehop/tracehop/utils"
)

// packetReader is the receive half of Conn; split out so tests can feed
// the collector canned datagrams.
type packetReader interface {
	ReadFrom(b []byte) (n int, addr net.Addr, err error)
	SetReadDeadline(t time.Time) error
}

// Collector waits for the responses to one hop's probes and resolves
// them into a single HopResult.
type Collector struct {
	conn packetReader
	// relaxedID skips identifier matching; datagram ICMP sockets get
	// their echo identifiers rewritten by the kernel.
	relaxedID bool

	debugLogger logr.Logger
}

func NewCollector(conn packetReader, relaxedID bool, debugLogger logr.Logger) *Collector {
	return &Collector{
		conn:        conn,
		relaxedID:   relaxedID,
		debugLogger: debugLogger,
	}
}

// Await collects responses matching id until a matching Echo Reply
// arrives, target Time-Exceeded samples have been gathered, or budget
// has elapsed since sentAt. Time is tracked with explicit wall-clock
// arithmetic; the read deadline is rebuilt before every read rather
// than carried over between waits.
//
// A matching Echo Reply resolves the hop as reached immediately, no
// matter how many samples were already collected. Responses of other
// types, with a foreign identity, malformed, or failing the checksum
// are skipped silently. Read errors other than a deadline expiry are
// returned wrapped in ErrReceive; the caller decides whether to abort.
func (c *Collector) Await(id Identity, sentAt time.Time, budget time.Duration, target int) (HopResult, error) {
	deadline := sentAt.Add(budget)
	inter := Intermediate{}
	buf := make([]byte, 1500)

	for inter.Collected < target && time.Now().Before(deadline) {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return HopResult{}, errors.Wrapf(ErrReceive, "set read deadline: %v", err)
		}

		n, addr, err := c.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			return HopResult{}, errors.Wrapf(ErrReceive, "read from socket: %v", err)
		}
		rtt := time.Since(sentAt)

		msg, err := packet.Parse(buf[:n])
		if err != nil {
			c.debugLogger.V(4).Info("skipping malformed datagram", "from", addr.String(), "err", err.Error())
			continue
		}
		if !packet.VerifyChecksum(buf[:n]) {
			c.debugLogger.V(4).Info("skipping datagram with bad checksum", "from", addr.String(), "type", msg.Type)
			continue
		}

		switch msg.Type {
		case packet.TypeEchoReply:
			if !c.match(id, msg.ID, msg.Seq) {
				continue
			}
			c.debugLogger.V(4).Info("echo reply", "from", addr.String(), "rtt", rtt.String())
			return HopResult{
				Outcome: OutcomeReached,
				Reached: Reached{Addr: utils.IPAddrString(addr), RTT: rtt},
			}, nil
		case packet.TypeTimeExceeded:
			embID, embSeq, err := packet.EmbeddedEcho(msg)
			if err != nil {
				c.debugLogger.V(4).Info("skipping time exceeded", "from", addr.String(), "err", err.Error())
				continue
			}
			if !c.match(id, embID, embSeq) {
				continue
			}
			c.debugLogger.V(4).Info("time exceeded", "from", addr.String(), "rtt", rtt.String())
			inter.record(utils.IPAddrString(addr), rtt, target)
		default:
			c.debugLogger.V(4).Info("ignoring icmp message", "from", addr.String(), "type", msg.Type)
		}
	}

	if inter.Collected == 0 {
		return HopResult{Outcome: OutcomeTimeout}, nil
	}
	return HopResult{Outcome: OutcomeIntermediate, Intermediate: inter}, nil
}

func (c *Collector) match(want Identity, id, seq uint16) bool {
	if seq != want.Seq {
		return false
	}
	return c.relaxedID || id == want.ID
}
