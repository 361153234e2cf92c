package traceroute

import "github.com/pkg/errors"

var (
	// ErrInvalidDestination is returned before any probing begins when the
	// destination is not an IPv4 dotted-decimal address.
	ErrInvalidDestination = errors.New("destination is not an IPv4 dotted-decimal address")

	// ErrSend marks a failed probe transmission. A send failure is recorded
	// for its batch and the hop continues; it never aborts the session.
	ErrSend = errors.New("probe transmission failed")

	// ErrReceive marks a socket read failure other than a deadline expiry.
	// The collector surfaces it and the session decides whether to abort.
	ErrReceive = errors.New("response collection failed")
)
