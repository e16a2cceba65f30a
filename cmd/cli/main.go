// pinglag - ping capture latency analysis
//
// pinglag reads the text output of ping sessions and reports round-trip
// times, packet loss and latency spikes.
package main

import (
	"os"

	"github.com/ccollicutt/pinglag/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
