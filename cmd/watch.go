package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile on every task file change and periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskFile == "" {
			return fmt.Errorf("task file must be provided with --tasks")
		}
		s, err := loadSettings(settingsFile, cmd.Flags())
		if err != nil {
			return err
		}
		interval := s.Interval
		if interval <= 0 {
			return fmt.Errorf("interval must be positive, got %s", interval)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		titleColor.Fprintf(out, "👀 Watching %s against %s every %s\n", taskFile, s.Target(), interval)
		r := newRunner(s, out, checkMode, showDiff)
		return watchTasks(ctx, taskFile, interval, out, func() {
			r.pass(ctx, taskFile)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&taskFile, "tasks", "t", "", "Task file (YAML)")
	watchCmd.Flags().Duration("interval", 30*time.Second, "Periodic reconcile interval")
	watchCmd.Flags().BoolVar(&checkMode, "check", false, "Compute commands without pushing them")
	watchCmd.Flags().BoolVar(&showDiff, "diff", false, "Show a diff of the facts before and after")
}
