// Command pypmtop is a live text-mode dashboard for one managed process.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/7c/pypm/internal/client"
	"github.com/7c/pypm/internal/dashboard"
)

var (
	hostFlag string
	portFlag int
	rateFlag time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "pypmtop <name>",
	Short: "Live cpu/mem/stdout dashboard for one process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(hostFlag, portFlag)
		return dashboard.Run(c, args[0], rateFlag)
	},
}

func main() {
	rootCmd.Flags().StringVar(&hostFlag, "host", "127.0.0.1", "pypm daemon host")
	rootCmd.Flags().IntVar(&portFlag, "port", 9001, "pypm daemon port")
	rootCmd.Flags().DurationVar(&rateFlag, "rate", time.Second, "refresh interval")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
