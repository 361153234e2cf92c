package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tracehop/tracehop/traceroute"
)

var opt traceroute.Options

// rootCmd is the whole CLI; tracehop does one thing.
var rootCmd = &cobra.Command{
	Use:   "tracehop <destination>",
	Short: "Discover the IPv4 routers between this host and a destination",
	Long: `tracehop sends ICMP Echo Requests with increasing time-to-live values
and reports, hop by hop, which router answered with a Time Exceeded
message and how long the round trip took. The trace stops once the
destination itself replies or after the hop limit is exhausted.

The destination must be given as an IPv4 dotted-decimal address; names
are not resolved. Raw ICMP sockets need elevated privileges, see the
--unprivileged flag for the datagram-socket fallback.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			log.Println("must specify a destination IPv4 address")
			os.Exit(1)
		}

		out := log.New(os.Stdout, "", 0)

		session, err := traceroute.NewTraceSession(opt, args[0], DebugLogger)
		if err != nil {
			log.Println(err.Error())
			os.Exit(1)
		}
		session.OnHop = func(res traceroute.HopResult) {
			out.Println(renderHop(res, opt.Nqueries))
		}

		ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		term, err := session.Run(ctx)
		if err != nil {
			log.Println(err.Error())
			os.Exit(1)
		}
		DebugLogger.V(4).Info("trace finished", "termination", term.String())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Uint8VarP(&opt.FirstTTL, "first", "f", 1, "Start from the first_ttl hop (instead from 1)")
	rootCmd.Flags().Uint8VarP(&opt.MaxTTL, "max-hops", "m", 30, "Set the max number of hops (max TTL to be reached). Default is 30")
	rootCmd.Flags().IntVarP(&opt.Nqueries, "queries", "q", 3, "Set the number of probes per each hop. Default is 3")
	rootCmd.Flags().IntVarP(&opt.WaitTime, "wait", "w", 1, "Set the time (in seconds) to wait for the responses to one hop. Default is 1")
	rootCmd.Flags().BoolVarP(&opt.Unprivileged, "unprivileged", "u", false, "unprivileged mode (datagram icmp socket, no raw-socket privileges needed)")
}
