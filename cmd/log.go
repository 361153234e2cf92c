package cmd

import (
	"flag"
	"os"

	"github.com/go-logr/glogr"
	"github.com/go-logr/logr"
)

// DebugLogger carries verbose diagnostics; glog's -v flag controls how
// much of it is emitted.
var DebugLogger logr.Logger

func init() {
	flag.Parse()
	os.Stderr = os.Stdout
	DebugLogger = glogr.New()
}
