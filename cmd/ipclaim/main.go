// ipclaim is the command-line client: bulk corpus import, ad-hoc entity
// extraction, and version reporting.
package main

import (
	"fmt"
	"os"

	"github.com/Qubut/IP-Claim/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
