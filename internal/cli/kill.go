package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill <name>",
	Short: "Send a terminate signal to a process",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := newClient().Kill(args[0])
		if err != nil {
			exitError(err)
		}
		fmt.Println(msg)
	},
}

var remCmd = &cobra.Command{
	Use:   "rem <name>",
	Short: "Kill (if active) then remove a process from the registry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := newClient().Rem(args[0])
		if err != nil {
			exitError(err)
		}
		fmt.Println(msg)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Shut down the pypm daemon",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := newClient().Stop()
		if err != nil {
			exitError(err)
		}
		fmt.Println(msg)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and process counts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := newClient().Status()
		if err != nil {
			exitError(err)
		}
		fmt.Println(msg)
	},
}
