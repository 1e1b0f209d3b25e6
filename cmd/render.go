package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xrctl/pkg/modules"
	"xrctl/pkg/rm"
)

var (
	moduleName string
	configPath string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the commands a module config renders to, without a device",
	RunE: func(cmd *cobra.Command, args []string) error {
		if moduleName == "" || configPath == "" {
			return fmt.Errorf("--module and --config are required")
		}
		m, err := modules.Lookup(moduleName)
		if err != nil {
			return err
		}
		data, err := readInput(configPath)
		if err != nil {
			return err
		}
		w, err := decodeConfig(data)
		if err != nil {
			return err
		}
		if errs := validateConfig(m, w); len(errs) > 0 {
			return fmt.Errorf("validation failed:\n - %s", strings.Join(errs, "\n - "))
		}

		exec := &rm.Executor{}
		res, err := exec.Run(cmd.Context(), m, rm.Request{Want: w, Mode: rm.Rendered})
		if err != nil {
			return err
		}
		for _, c := range res.Rendered {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&moduleName, "module", "m", "", "Resource module name")
	renderCmd.Flags().StringVarP(&configPath, "config", "c", "", "Module config file (YAML), - for stdin")
}
