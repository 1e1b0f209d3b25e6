package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"xrctl/pkg/modules"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

// loadTasks reads and decodes a task file.
func loadTasks(path string) (*TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var tf TaskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if tf.Hosts == "" {
		tf.Hosts = "all"
	}
	for i := range tf.Tasks {
		if tf.Tasks[i].State == "" {
			tf.Tasks[i].State = string(rm.Merged)
		}
	}
	return &tf, nil
}

// want converts a decoded config value into a tree. A missing config is
// an empty tree.
func want(config interface{}) (tree.Tree, error) {
	if config == nil {
		return tree.Tree{}, nil
	}
	t, ok := tree.Normalize(config).(tree.Tree)
	if !ok {
		return nil, rm.Errorf(rm.KindInput, "config must be a mapping, got %T", config)
	}
	return t, nil
}

// prepared is a task resolved against the module catalogue.
type prepared struct {
	Task   Task
	Module *rm.Module
	Req    rm.Request
}

func prepare(t Task, check bool) (*prepared, error) {
	m, err := modules.Lookup(t.Module)
	if err != nil {
		return nil, err
	}
	mode, err := rm.ParseMode(t.State)
	if err != nil {
		return nil, err
	}
	w, err := want(t.Config)
	if err != nil {
		return nil, err
	}
	return &prepared{
		Task:   t,
		Module: m,
		Req:    rm.Request{Want: w, Running: t.RunningConfig, Mode: mode, Check: check},
	}, nil
}
