package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"xrctl/pkg/modules"
	"xrctl/pkg/rm"
	"xrctl/pkg/transport"
	"xrctl/pkg/tree"
)

var runningPath string

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse saved running-config text into facts",
	Long: `Parse saved running-config text into structured facts. Each module only
sees the stanzas in its scope. Without --module every module parses the
text and the facts are keyed by module name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runningPath == "" {
			return fmt.Errorf("running config must be provided with --running")
		}
		data, err := readInput(runningPath)
		if err != nil {
			return err
		}
		mods, err := selectModules(moduleName)
		if err != nil {
			return err
		}

		exec := &rm.Executor{}
		facts := tree.Tree{}
		for _, m := range mods {
			text := transport.Section(string(data), m.Scope)
			if text == "" {
				facts[m.Name] = tree.Tree{}
				continue
			}
			res, err := exec.Run(cmd.Context(), m, rm.Request{Running: text, Mode: rm.Parsed})
			if err != nil {
				return err
			}
			facts[m.Name] = res.Parsed
		}
		if moduleName != "" {
			return writeYAML(cmd.OutOrStdout(), facts[moduleName])
		}
		return writeYAML(cmd.OutOrStdout(), facts)
	},
}

// selectModules returns the named module, or all of them when name is
// empty.
func selectModules(name string) ([]*rm.Module, error) {
	if name == "" {
		return modules.All(), nil
	}
	m, err := modules.Lookup(name)
	if err != nil {
		return nil, err
	}
	return []*rm.Module{m}, nil
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&moduleName, "module", "m", "", "Resource module name (default all)")
	parseCmd.Flags().StringVarP(&runningPath, "running", "r", "", "Running-config file, - for stdin")
}
