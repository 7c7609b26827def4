package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/7c/pypm/internal/protocol"
)

func oneArgOr(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

var memCmd = &cobra.Command{
	Use:   "mem [name]",
	Short: "Show memory usage in bytes",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := newClient().Mem(oneArgOr(args))
		if err != nil {
			exitError(err)
		}
		for _, r := range records {
			fmt.Printf("%-20s %s\n", r.Name, protocol.FormatBytes(r.Value))
		}
	},
}

var cpuCmd = &cobra.Command{
	Use:   "cpu [name]",
	Short: "Show CPU usage percent",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := newClient().CPU(oneArgOr(args))
		if err != nil {
			exitError(err)
		}
		for _, r := range records {
			fmt.Printf("%-20s %s\n", r.Name, protocol.FormatPercent(r.Value))
		}
	},
}

var pidCmd = &cobra.Command{
	Use:   "pid [name]",
	Short: "Show the OS pid (-1 if not active)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := newClient().PID(oneArgOr(args))
		if err != nil {
			exitError(err)
		}
		for _, r := range records {
			fmt.Printf("%-20s %d\n", r.Name, r.Value)
		}
	},
}

var uptimeCmd = &cobra.Command{
	Use:   "uptime [name]",
	Short: "Show time since last start",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := newClient().Uptime(oneArgOr(args))
		if err != nil {
			exitError(err)
		}
		for _, r := range records {
			fmt.Printf("%-20s %s\n", r[0], r[1])
		}
	},
}

var stdoutCmd = &cobra.Command{
	Use:   "stdout <name>",
	Short: "Show captured stdout tail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := newClient().Stdout(args[0])
		if err != nil {
			exitError(err)
		}
		fmt.Print(string(data))
	},
}

var stderrCmd = &cobra.Command{
	Use:   "stderr <name>",
	Short: "Show captured stderr tail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := newClient().Stderr(args[0])
		if err != nil {
			exitError(err)
		}
		fmt.Print(string(data))
	},
}
