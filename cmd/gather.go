package cmd

import (
	"github.com/spf13/cobra"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var gatherCmd = &cobra.Command{
	Use:   "gather",
	Short: "Read facts from the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(settingsFile, nil)
		if err != nil {
			return err
		}
		mods, err := selectModules(moduleName)
		if err != nil {
			return err
		}

		r := newRunner(s, cmd.OutOrStdout(), false, false)
		defer r.writeMetrics()

		facts := tree.Tree{}
		for _, m := range mods {
			res, err := r.exec.Run(cmd.Context(), m, rm.Request{Mode: rm.Gathered})
			if err != nil {
				return err
			}
			facts[m.Name] = res.Gathered
		}
		if moduleName != "" {
			return writeYAML(cmd.OutOrStdout(), facts[moduleName])
		}
		return writeYAML(cmd.OutOrStdout(), facts)
	},
}

func init() {
	rootCmd.AddCommand(gatherCmd)
	gatherCmd.Flags().StringVarP(&moduleName, "module", "m", "", "Resource module name (default all)")
}
