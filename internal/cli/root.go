// Package cli implements pypm's cobra-based command-line front end for
// the client library. It is grounded on the teacher's internal/cli/root.go
// (persistent flags, colored help template, exitError convention),
// generalized from the teacher's pm2-compatible command surface down to
// the verbs this spec's dispatcher actually understands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/7c/pypm/internal/client"
	"github.com/7c/pypm/internal/display"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	hostFlag string
	portFlag int
)

var rootCmd = &cobra.Command{
	Use:     "pypm",
	Short:   display.CBold + "pypm" + display.CReset + " — process manager client",
	Version: Version,
}

// Execute registers every subcommand and runs cobra.
func Execute() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "127.0.0.1", "pypm daemon host")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 9001, "pypm daemon port")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(remCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(memCmd)
	rootCmd.AddCommand(cpuCmd)
	rootCmd.AddCommand(pidCmd)
	rootCmd.AddCommand(uptimeCmd)
	rootCmd.AddCommand(stdoutCmd)
	rootCmd.AddCommand(stderrCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(hostFlag, portFlag)
}

// exitError prints a connection-level error (distinct from a dispatcher
// MSG response, which is always printed as-is) and exits non-zero.
func exitError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", display.Red("Error:"), err)
	os.Exit(1)
}
