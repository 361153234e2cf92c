package traceroute

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/tracehop/tracehop/packet"
)

// routeConn simulates a path: hops below reachedAt answer with Time
// Exceeded from 10.0.0.<ttl>, the hop at reachedAt answers with an Echo
// Reply from the destination, and with reachedAt zero nothing ever
// answers.
func routeConn(t *testing.T, reachedAt int) *scriptConn {
	conn := &scriptConn{}
	conn.respond = func(req packet.Message, ttl int) []cannedResponse {
		switch {
		case reachedAt > 0 && ttl == reachedAt:
			return []cannedResponse{{
				data: echoReplyMsg(t, req.ID, req.Seq),
				addr: ipAddr("192.0.2.1"),
			}}
		case reachedAt == 0 || ttl < reachedAt:
			return []cannedResponse{{
				data: timeExceededMsg(t, req.ID, req.Seq),
				addr: ipAddr(fmt.Sprintf("10.0.0.%d", ttl)),
			}}
		default:
			return nil
		}
	}
	return conn
}

func newTestSession(t *testing.T, conn Conn, opt Options) (*TraceSession, *[]HopResult) {
	t.Helper()
	s, err := NewTraceSession(opt, "192.0.2.1", logr.Discard())
	if err != nil {
		t.Fatalf("NewTraceSession: %v", err)
	}
	s.listen = func(bool) (Conn, error) { return conn, nil }

	var hops []HopResult
	s.OnHop = func(res HopResult) { hops = append(hops, res) }
	return s, &hops
}

func TestNewTraceSessionRejectsBadDestinations(t *testing.T) {
	tests := []struct {
		name string
		dst  string
	}{
		{name: "garbage", dst: "not-an-address"},
		{name: "hostname", dst: "example.com"},
		{name: "ipv6", dst: "2001:db8::1"},
		{name: "empty", dst: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTraceSession(Options{}, tt.dst, logr.Discard()); !errors.Is(err, ErrInvalidDestination) {
				t.Errorf("err = %v, want ErrInvalidDestination", err)
			}
		})
	}
}

func TestSessionReachedAtHopFive(t *testing.T) {
	conn := routeConn(t, 5)
	s, hops := newTestSession(t, conn, Options{WaitTime: 1})

	term, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if term != TerminationReached {
		t.Fatalf("termination = %v, want reached", term)
	}

	if len(*hops) != 5 {
		t.Fatalf("got %d hop results, want 5", len(*hops))
	}
	for i, res := range (*hops)[:4] {
		if res.Outcome != OutcomeIntermediate {
			t.Errorf("hop %d outcome = %v, want OutcomeIntermediate", i+1, res.Outcome)
		}
		if int(res.TTL) != i+1 {
			t.Errorf("hop %d carries ttl %d", i+1, res.TTL)
		}
		want := fmt.Sprintf("10.0.0.%d", i+1)
		if len(res.Intermediate.Addrs) != 1 || res.Intermediate.Addrs[0] != want {
			t.Errorf("hop %d addrs = %v, want [%s]", i+1, res.Intermediate.Addrs, want)
		}
	}
	last := (*hops)[4]
	if last.Outcome != OutcomeReached || last.Reached.Addr != "192.0.2.1" {
		t.Errorf("final hop = %+v, want reached from 192.0.2.1", last)
	}

	// no probe may go out for hop 6 once the destination answered
	if conn.maxTTL != 5 {
		t.Errorf("max ttl sent = %d, want 5", conn.maxTTL)
	}
	if conn.writes != 5*3 {
		t.Errorf("writes = %d, want 15", conn.writes)
	}
}

func TestSessionExhaustsHopLimit(t *testing.T) {
	conn := &scriptConn{} // nothing ever answers
	s, hops := newTestSession(t, conn, Options{WaitTime: 1})

	term, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if term != TerminationExhausted {
		t.Fatalf("termination = %v, want exhausted", term)
	}
	if len(*hops) != 29 {
		t.Fatalf("got %d hop results, want 29 (ttl 1..29)", len(*hops))
	}
	for i, res := range *hops {
		if res.Outcome != OutcomeTimeout {
			t.Errorf("hop %d outcome = %v, want OutcomeTimeout", i+1, res.Outcome)
		}
	}
	if conn.maxTTL != 29 {
		t.Errorf("max ttl sent = %d, want 29", conn.maxTTL)
	}
}

func TestSessionSequenceTracksTTL(t *testing.T) {
	conn := routeConn(t, 3)
	var seqs []uint16
	inner := conn.respond
	conn.respond = func(req packet.Message, ttl int) []cannedResponse {
		if int(req.Seq) != ttl {
			seqs = append(seqs, req.Seq)
		}
		return inner(req, ttl)
	}
	s, _ := newTestSession(t, conn, Options{})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seqs) != 0 {
		t.Errorf("probes with seq != ttl: %v", seqs)
	}
}

func TestSessionAbortsOnReceiveFailure(t *testing.T) {
	conn := routeConn(t, 0)
	s, _ := newTestSession(t, conn, Options{})
	s.listen = func(bool) (Conn, error) { return &failingReadConn{scriptConn: conn}, nil }

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrReceive) {
		t.Errorf("err = %v, want ErrReceive", err)
	}
}

type failingReadConn struct {
	*scriptConn
}

func (c *failingReadConn) ReadFrom(b []byte) (int, net.Addr, error) {
	return 0, nil, errors.New("connection reset")
}

func TestSessionHonorsContextCancellation(t *testing.T) {
	conn := &scriptConn{}
	s, hops := newTestSession(t, conn, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(*hops) != 0 {
		t.Errorf("got %d hop results after immediate cancellation", len(*hops))
	}
}
