package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a task file against the module schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskFile == "" {
			return fmt.Errorf("task file must be provided with --tasks")
		}
		tf, err := loadTasks(taskFile)
		if err != nil {
			return err
		}
		if err := validateTasks(tf); err != nil {
			return err
		}
		okColor.Fprintf(cmd.OutOrStdout(), "✅ %s is valid (%d tasks)\n", taskFile, len(tf.Tasks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&taskFile, "tasks", "t", "", "Task file (YAML)")
}
