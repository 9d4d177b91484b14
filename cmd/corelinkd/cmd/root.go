package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const usage = `corelinkd runs a CoreLink cluster-membership gossip node.

Each node periodically multicasts a heartbeat describing its own GPU
inventory and a handful of resource scalars, and reconciles against its
peers' view of the cluster via anti-entropy digest exchange.

EXAMPLES:
  Run a node with defaults taken from the process environment:
    corelinkd serve

  Run a node configured from an env file:
    corelinkd serve --env-file /etc/corelink/corelinkd.env`

var rootCmd = &cobra.Command{
	Use:   "corelinkd",
	Short: "CoreLink cluster-membership gossip node",
	Long:  usage,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
