package cmd

// TaskFile is the YAML document run, validate and watch operate on.
type TaskFile struct {
	// Hosts is only used when exporting a playbook.
	Hosts string `yaml:"hosts"`
	Tasks []Task `yaml:"tasks"`
}

// Task is one resource module invocation
type Task struct {
	Name   string `yaml:"name"`
	Module string `yaml:"module"`
	State  string `yaml:"state"`
	// Config is the module's desired configuration, shaped like its facts.
	Config interface{} `yaml:"config"`
	// RunningConfig is the text parsed in state parsed.
	RunningConfig string `yaml:"running_config"`
}

// Label names the task in output.
func (t Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Module + " (" + t.State + ")"
}
