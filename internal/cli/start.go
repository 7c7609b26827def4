package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start a process, or every inactive process",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		msg, err := newClient().Start(name)
		if err != nil {
			exitError(err)
		}
		fmt.Println(msg)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <name>",
	Short: "Kill (if active) then start a process",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := newClient().Restart(args[0])
		if err != nil {
			exitError(err)
		}
		fmt.Println(msg)
	},
}
