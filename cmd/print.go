package cmd

import (
	"fmt"
	"strings"

	"github.com/tracehop/tracehop/traceroute"
)

// renderHop formats one hop line: "<ttl>. <addr...> <time>ms", a "*" on
// timeout. A hop that answered with fewer than nqueries samples shows
// "???" instead of a time; partial batches are never averaged.
func renderHop(res traceroute.HopResult, nqueries int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.", res.TTL)

	switch res.Outcome {
	case traceroute.OutcomeReached:
		fmt.Fprintf(&b, " %-15s %dms", res.Reached.Addr, res.Reached.RTT.Milliseconds())
	case traceroute.OutcomeIntermediate:
		for _, addr := range res.Intermediate.Addrs {
			fmt.Fprintf(&b, " %-15s", addr)
		}
		if mean, ok := res.Intermediate.MeanRTT(nqueries); ok {
			fmt.Fprintf(&b, " %dms", mean.Milliseconds())
		} else {
			b.WriteString(" ???")
		}
	default:
		b.WriteString(" *")
	}

	return b.String()
}
