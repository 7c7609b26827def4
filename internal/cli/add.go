package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <name> <command> <log_cpu> <log_mem> <dir>",
	Short: "Register a new process",
	Args:  cobra.ExactArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		logCPU, err := strconv.ParseBool(args[2])
		if err != nil {
			exitError(fmt.Errorf("log_cpu must be true/false: %w", err))
		}
		logMem, err := strconv.ParseBool(args[3])
		if err != nil {
			exitError(fmt.Errorf("log_mem must be true/false: %w", err))
		}
		msg, err := newClient().Add(args[0], args[1], logCPU, logMem, args[4])
		if err != nil {
			exitError(err)
		}
		fmt.Println(msg)
	},
}
