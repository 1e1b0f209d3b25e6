package rm

import (
	"context"

	log "github.com/sirupsen/logrus"

	"xrctl/pkg/tree"
)

// Transport reads and writes device configuration.
type Transport interface {
	// RunningConfig returns the running configuration text for scope,
	// e.g. "router bgp". An empty scope means the whole configuration.
	RunningConfig(ctx context.Context, scope string) (string, error)
	// Push applies commands to the device.
	Push(ctx context.Context, commands []string) error
}

// Request is one module invocation.
type Request struct {
	// Want is the desired configuration. It is required for merged,
	// replaced, overridden and rendered.
	Want tree.Tree
	// Running is the running-config text for parsed.
	Running string
	Mode    Mode
	// Check computes commands without pushing them.
	Check bool
}

// Result is what a run reports back.
type Result struct {
	Commands []string  `yaml:"commands,omitempty" json:"commands,omitempty"`
	Rendered []string  `yaml:"rendered,omitempty" json:"rendered,omitempty"`
	Before   tree.Tree `yaml:"before,omitempty" json:"before,omitempty"`
	After    tree.Tree `yaml:"after,omitempty" json:"after,omitempty"`
	Gathered tree.Tree `yaml:"gathered,omitempty" json:"gathered,omitempty"`
	Parsed   tree.Tree `yaml:"parsed,omitempty" json:"parsed,omitempty"`
	Changed  bool      `yaml:"changed" json:"changed"`
}

// Executor runs modules against a device.
type Executor struct {
	// Transport is required for every mode except rendered and parsed.
	Transport Transport
	// Metrics is optional.
	Metrics *Metrics
	// Log defaults to the standard logrus logger.
	Log *log.Entry
}

// Run executes one module invocation.
func (e *Executor) Run(ctx context.Context, m *Module, req Request) (*Result, error) {
	res, err := e.run(ctx, m, req)
	n := 0
	if res != nil {
		n = len(res.Commands) + len(res.Rendered)
	}
	e.Metrics.observe(m.Name, req.Mode, n, err)
	if err != nil {
		return nil, withModule(err, m.Name)
	}
	return res, nil
}

func (e *Executor) run(ctx context.Context, m *Module, req Request) (*Result, error) {
	logger := e.logger().WithFields(log.Fields{"module": m.Name, "state": req.Mode})

	switch req.Mode {
	case Parsed:
		if req.Running == "" {
			return nil, Errorf(KindInput, "value of running_config option must not be empty in state parsed")
		}
		facts, err := m.Parse(req.Running)
		if err != nil {
			return nil, err
		}
		logger.Debug("parsed running config")
		return &Result{Parsed: m.Facts(facts)}, nil

	case Rendered:
		if len(req.Want) == 0 {
			return nil, Errorf(KindInput, "value of config parameter must not be empty for state rendered")
		}
		cmds, err := m.GenerateCommands(req.Want.Clone(), nil, Rendered)
		if err != nil {
			return nil, err
		}
		logger.WithField("commands", len(cmds)).Debug("rendered")
		return &Result{Rendered: cmds}, nil
	}

	if e.Transport == nil {
		return nil, Errorf(KindInput, "state %s requires a device connection", req.Mode)
	}
	switch req.Mode {
	case Merged, Replaced, Overridden:
		if len(req.Want) == 0 {
			return nil, Errorf(KindInput, "value of config parameter must not be empty for state %s", req.Mode)
		}
	}

	have, err := e.facts(ctx, m)
	if err != nil {
		return nil, err
	}
	before := m.Facts(have)

	if req.Mode == Gathered {
		return &Result{Gathered: before}, nil
	}

	cmds, err := m.GenerateCommands(req.Want.Clone(), have, req.Mode)
	if err != nil {
		return nil, err
	}
	res := &Result{Commands: cmds, Before: before, Changed: len(cmds) > 0}
	logger.WithFields(log.Fields{"commands": len(cmds), "check": req.Check}).Info("compared")

	if !res.Changed || req.Check {
		return res, nil
	}
	if err := e.Transport.Push(ctx, cmds); err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	after, err := e.facts(ctx, m)
	if err != nil {
		return nil, err
	}
	res.After = m.Facts(after)
	logger.Info("pushed")
	return res, nil
}

func (e *Executor) facts(ctx context.Context, m *Module) (tree.Tree, error) {
	text, err := e.Transport.RunningConfig(ctx, m.Scope)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	return m.Parse(text)
}

func (e *Executor) logger() *log.Entry {
	if e.Log != nil {
		return e.Log
	}
	return log.NewEntry(log.StandardLogger())
}
