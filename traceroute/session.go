package traceroute

import (
	"context"
	"net"
	"os"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Termination says how a finished trace ended.
type Termination int

const (
	// TerminationReached means the destination answered an Echo Request.
	TerminationReached Termination = iota
	// TerminationExhausted means the hop limit was reached without the
	// destination ever replying.
	TerminationExhausted
)

func (t Termination) String() string {
	switch t {
	case TerminationReached:
		return "reached"
	case TerminationExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// TraceSession escalates the TTL from FirstTTL upward, probing one hop at
// a time until the destination replies or the hop limit is exhausted.
// Probing is strictly sequential: every probe of hop N is resolved before
// any probe of hop N+1 is sent, which is what makes seq = ttl a
// sufficient correlation key on its own.
type TraceSession struct {
	// OnHop receives each resolved hop in order. It runs on its own
	// goroutine so rendering never delays probing.
	OnHop func(HopResult)

	opts Options
	dst  *net.IPAddr
	// id is the session-constant echo identifier, taken from the process
	// id. That is only locally and momentarily unique, which is enough
	// for a one-shot invocation.
	id uint16

	listen func(unprivileged bool) (Conn, error)

	debugLogger logr.Logger
}

// NewTraceSession validates the destination and prepares a session. The
// destination must be an IPv4 dotted-decimal address; name resolution is
// out of scope.
func NewTraceSession(opt Options, dst string, debugLogger logr.Logger) (*TraceSession, error) {
	ip := net.ParseIP(dst)
	if ip == nil || ip.To4() == nil {
		return nil, errors.Wrapf(ErrInvalidDestination, "%q", dst)
	}

	return &TraceSession{
		opts:        opt.withDefaults(),
		dst:         &net.IPAddr{IP: ip.To4()},
		id:          uint16(os.Getpid() & 0xffff),
		listen:      Listen,
		debugLogger: debugLogger,
	}, nil
}

// Run opens the session socket and traces the route, handing every
// resolved hop to OnHop. It returns how the trace terminated, or the
// error that aborted it.
func (s *TraceSession) Run(ctx context.Context) (Termination, error) {
	conn, err := s.listen(s.opts.Unprivileged)
	if err != nil {
		return TerminationExhausted, err
	}
	defer conn.Close()

	sender := NewSender(conn, s.opts.Unprivileged, s.debugLogger)
	collector := NewCollector(conn, s.opts.Unprivileged, s.debugLogger)
	prober := NewHopProber(sender, collector, s.dst, s.opts.Nqueries, s.opts.wait(), s.debugLogger)

	results := make(chan HopResult, s.opts.MaxTTL)

	var g errgroup.Group
	var term Termination

	g.Go(func() error {
		defer close(results)
		t, err := s.probe(ctx, prober, results)
		term = t
		return err
	})

	g.Go(func() error {
		for res := range results {
			if s.OnHop != nil {
				s.OnHop(res)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return term, err
	}
	return term, nil
}

func (s *TraceSession) probe(ctx context.Context, prober *HopProber, results chan<- HopResult) (Termination, error) {
	for ttl := s.opts.FirstTTL; ttl < s.opts.MaxTTL; ttl++ {
		select {
		case <-ctx.Done():
			return TerminationExhausted, ctx.Err()
		default:
		}

		id := Identity{ID: s.id, Seq: uint16(ttl)}
		s.debugLogger.V(4).Info("probing hop", "ttl", ttl, "id", id.ID)

		res, err := prober.ProbeHop(ctx, id, ttl)
		if err != nil {
			return TerminationExhausted, err
		}

		results <- res
		if res.Outcome == OutcomeReached {
			return TerminationReached, nil
		}
	}
	return TerminationExhausted, nil
}
