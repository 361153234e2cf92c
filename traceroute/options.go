package traceroute

import "time"

const (
	defaultFirstTTL = 1
	defaultMaxTTL   = 30
	defaultNqueries = 3
	defaultWaitTime = 1
)

type Options struct {
	// FirstTTL specifies with what TTL to start. Defaults to 1.
	FirstTTL uint8
	// MaxTTL specifies the hop limit (max time-to-live value) the trace
	// will probe up to. The default is 30.
	MaxTTL uint8
	// Nqueries sets the number of probe packets per hop. The default is 3.
	Nqueries int
	// WaitTime is the time (in seconds) to wait for the responses to one
	// hop's probes (default 1 sec).
	WaitTime int
	// Unprivileged mode uses a datagram-oriented ICMP socket instead of a
	// raw socket, so no elevated privileges are needed. The kernel rewrites
	// echo identifiers on such sockets, so identifier matching is relaxed.
	Unprivileged bool
}

func (o Options) withDefaults() Options {
	opt := o
	if opt.FirstTTL == 0 {
		opt.FirstTTL = defaultFirstTTL
	}
	if opt.MaxTTL == 0 {
		opt.MaxTTL = defaultMaxTTL
	}
	if opt.Nqueries <= 0 {
		opt.Nqueries = defaultNqueries
	}
	if opt.WaitTime <= 0 {
		opt.WaitTime = defaultWaitTime
	}
	return opt
}

func (o Options) wait() time.Duration {
	return time.Duration(o.WaitTime) * time.Second
}
