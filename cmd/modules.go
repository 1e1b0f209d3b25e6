package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"xrctl/pkg/modules"
)

var modulesCmd = &cobra.Command{
	Use:   "modules [name]",
	Short: "List resource modules, or print one module's config schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			m, err := modules.Lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, m.ArgSpec)
			return nil
		}

		var rows [][]string
		for _, m := range modules.All() {
			rows = append(rows, []string{m.Name, m.Scope})
		}
		table := tablewriter.NewWriter(out)
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		table.SetHeaderLine(false)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetHeader([]string{"MODULE", "SCOPE"})
		table.AppendBulk(rows)
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}
