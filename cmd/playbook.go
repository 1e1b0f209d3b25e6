package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/cobra"
)

var playbookOut string

// playbookTask is one task as the playbook template sees it.
type playbookTask struct {
	Name          string
	Module        string
	State         string
	Config        string
	RunningConfig string
}

var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Export a task file as an Ansible playbook",
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
		name := strings.TrimSuffix(filepath.Base(taskFile), filepath.Ext(taskFile))
		data, err := renderPlaybook(name, tf)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), playbookOut, data)
	},
}

// renderPlaybook renders a validated task file with PlaybookTemplate.
func renderPlaybook(name string, tf *TaskFile) ([]byte, error) {
	tmpl, err := template.New("playbook").Funcs(sprig.TxtFuncMap()).Parse(PlaybookTemplate)
	if err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}

	tasks := make([]playbookTask, 0, len(tf.Tasks))
	for _, t := range tf.Tasks {
		pt := playbookTask{
			Name:          t.Label(),
			Module:        t.Module,
			State:         t.State,
			RunningConfig: t.RunningConfig,
		}
		w, err := want(t.Config)
		if err != nil {
			return nil, err
		}
		if len(w) > 0 {
			var buf bytes.Buffer
			if err := writeYAML(&buf, w); err != nil {
				return nil, err
			}
			pt.Config = buf.String()
		}
		tasks = append(tasks, pt)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Name  string
		Hosts string
		Tasks []playbookTask
	}{name, tf.Hosts, tasks})
	if err != nil {
		return nil, fmt.Errorf("template execute error: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	rootCmd.AddCommand(playbookCmd)
	playbookCmd.Flags().StringVarP(&taskFile, "tasks", "t", "", "Task file (YAML)")
	playbookCmd.Flags().StringVarP(&playbookOut, "output", "o", "", "Playbook file to write (default stdout)")
}
