package traceroute

import (
	"context"
	"net"
	"time"

	"github.com/go-logr/logr"
)

// Outcome discriminates the variants of a HopResult.
type Outcome int

const (
	// OutcomeTimeout means no matching response arrived within the hop's
	// time budget. This is an expected terminal state for a hop, not an
	// error.
	OutcomeTimeout Outcome = iota
	// OutcomeIntermediate means routers along the path answered with
	// Time-Exceeded messages.
	OutcomeIntermediate
	// OutcomeReached means the destination itself answered with an Echo
	// Reply.
	OutcomeReached
)

// Reached is the payload of an OutcomeReached result.
type Reached struct {
	Addr string
	RTT  time.Duration
}

// HopSample is one accepted Time-Exceeded response: who answered and how
// long it took. Samples are kept per-probe, never merged across probes.
type HopSample struct {
	Addr string
	RTT  time.Duration
}

// Intermediate is the payload of an OutcomeIntermediate result. Addrs
// holds the distinct responding routers in first-seen order; both it and
// Samples are capped at the probe batch size.
type Intermediate struct {
	Addrs     []string
	Samples   []HopSample
	Collected int
}

func (i *Intermediate) record(addr string, rtt time.Duration, limit int) {
	if len(i.Samples) < limit {
		i.Samples = append(i.Samples, HopSample{Addr: addr, RTT: rtt})
	}

	seen := false
	for _, a := range i.Addrs {
		if a == addr {
			seen = true
			break
		}
	}
	if !seen && len(i.Addrs) < limit {
		i.Addrs = append(i.Addrs, addr)
	}
	i.Collected++
}

// MeanRTT returns the arithmetic mean of the collected samples, valid
// only when the batch is complete. Partial data is never averaged; a
// short batch reports no timing at all rather than a misleading number.
func (i Intermediate) MeanRTT(batch int) (time.Duration, bool) {
	if i.Collected != batch || len(i.Samples) == 0 {
		return 0, false
	}
	var total time.Duration
	for _, s := range i.Samples {
		total += s.RTT
	}
	return total / time.Duration(len(i.Samples)), true
}

// HopResult is the resolution of one hop: a tagged variant whose Outcome
// selects which payload field is meaningful.
type HopResult struct {
	TTL     uint8
	Outcome Outcome
	// Reached is valid only when Outcome is OutcomeReached.
	Reached Reached
	// Intermediate is valid only when Outcome is OutcomeIntermediate.
	Intermediate Intermediate
}

// HopProber issues one hop's batch of probes and resolves it into a
// HopResult.
type HopProber struct {
	sender    *Sender
	collector *Collector
	dst       *net.IPAddr
	nqueries  int
	wait      time.Duration

	debugLogger logr.Logger
}

func NewHopProber(sender *Sender, collector *Collector, dst *net.IPAddr, nqueries int, wait time.Duration, debugLogger logr.Logger) *HopProber {
	return &HopProber{
		sender:      sender,
		collector:   collector,
		dst:         dst,
		nqueries:    nqueries,
		wait:        wait,
		debugLogger: debugLogger,
	}
}

// ProbeHop sends the batch of Echo Requests for one TTL back-to-back,
// all carrying seq = ttl, then waits for their responses. A failed send
// is recorded as a lost probe for this batch and the hop continues.
func (p *HopProber) ProbeHop(ctx context.Context, id Identity, ttl uint8) (HopResult, error) {
	sentAt := time.Now()
	sent := 0
	for i := 0; i < p.nqueries; i++ {
		select {
		case <-ctx.Done():
			return HopResult{}, ctx.Err()
		default:
		}
		if err := p.sender.SendProbe(p.dst, ttl, id); err != nil {
			p.debugLogger.V(4).Info("probe send failed", "ttl", ttl, "probe", i, "err", err.Error())
			continue
		}
		sent++
	}

	res, err := p.collector.Await(id, sentAt, p.wait, sent)
	if err != nil {
		return HopResult{}, err
	}
	res.TTL = ttl
	return res, nil
}
