package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/7c/pypm/internal/display"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered processes",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		records, err := newClient().List()
		if err != nil {
			exitError(err)
		}
		if len(records) == 0 {
			fmt.Println("No processes registered")
			return
		}
		tbl := display.NewTable("Name", "Command")
		for _, r := range records {
			tbl.AddRow(r[0], r[1])
		}
		tbl.Render(os.Stdout)
	},
}
