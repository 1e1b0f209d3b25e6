package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	taskFile  string
	checkMode bool
	showDiff  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile the device with a task file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskFile == "" {
			return fmt.Errorf("task file must be provided with --tasks")
		}
		s, err := loadSettings(settingsFile, nil)
		if err != nil {
			return err
		}
		tf, err := loadTasks(taskFile)
		if err != nil {
			return err
		}
		if err := validateTasks(tf); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		mode := "Reconciling"
		if checkMode {
			mode = "Checking"
		}
		titleColor.Fprintf(out, "🚀 %s %s against %s\n", mode, taskFile, s.Target())

		r := newRunner(s, out, checkMode, showDiff)
		sum, err := r.reconcile(cmd.Context(), tf)
		titleColor.Fprintf(out, "📊 %s\n", sum)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&taskFile, "tasks", "t", "", "Task file (YAML)")
	runCmd.Flags().BoolVar(&checkMode, "check", false, "Compute commands without pushing them")
	runCmd.Flags().BoolVar(&showDiff, "diff", false, "Show a diff of the facts before and after")
}
