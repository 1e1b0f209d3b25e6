package cmd

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"xrctl/pkg/modules"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

// validateTasks walks the task file and accumulates every error.
func validateTasks(tf *TaskFile) error {
	var errs []string

	if len(tf.Tasks) == 0 {
		errs = append(errs, "tasks must contain at least one task")
	}
	for i, t := range tf.Tasks {
		p := fmt.Sprintf("tasks[%d]", i)

		m, err := modules.Lookup(t.Module)
		if t.Module == "" {
			errs = append(errs, p+".module is required")
		} else if err != nil {
			errs = append(errs, fmt.Sprintf("%s.module must be one of %s", p, strings.Join(modules.Names(), ",")))
		}

		mode, err := rm.ParseMode(t.State)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s.state: %v", p, err))
		}

		w, err := want(t.Config)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s.config: %v", p, err))
			continue
		}
		switch mode {
		case rm.Merged, rm.Replaced, rm.Overridden, rm.Rendered:
			if len(w) == 0 {
				errs = append(errs, fmt.Sprintf("%s.config is required for state %s", p, mode))
			}
		case rm.Parsed:
			if t.RunningConfig == "" {
				errs = append(errs, p+".running_config is required for state parsed")
			}
		}
		if m != nil {
			for _, e := range validateConfig(m, w) {
				errs = append(errs, fmt.Sprintf("%s.config: %s", p, e))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n - %s", strings.Join(errs, "\n - "))
	}
	return nil
}

var schemas = map[string]*gojsonschema.Schema{}

// validateConfig checks config against the module's argument spec.
func validateConfig(m *rm.Module, config tree.Tree) []string {
	if m.ArgSpec == "" {
		return nil
	}
	s, ok := schemas[m.Name]
	if !ok {
		var err error
		s, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(m.ArgSpec))
		if err != nil {
			return []string{fmt.Sprintf("module %s has an invalid schema: %v", m.Name, err)}
		}
		schemas[m.Name] = s
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(tree.Plain(config)))
	if err != nil {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range res.Errors() {
		out = append(out, e.String())
	}
	return out
}
