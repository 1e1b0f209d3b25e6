package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"xrctl/pkg/rm"
)

// runner executes task files against one device.
type runner struct {
	exec        *rm.Executor
	out         io.Writer
	check       bool
	diff        bool
	registry    *prometheus.Registry
	metricsFile string
}

func newRunner(s *Settings, out io.Writer, check, diff bool) *runner {
	reg := prometheus.NewRegistry()
	return &runner{
		exec: &rm.Executor{
			Transport: s.Transport(),
			Metrics:   rm.NewMetrics(reg),
			Log:       log.WithField("device", s.Target()),
		},
		out:         out,
		check:       check,
		diff:        diff,
		registry:    reg,
		metricsFile: s.MetricsFile,
	}
}

// summary counts task outcomes of one pass.
type summary struct {
	OK      int
	Changed int
	Failed  int
}

func (s summary) String() string {
	return fmt.Sprintf("ok=%d changed=%d failed=%d", s.OK, s.Changed, s.Failed)
}

// reconcile runs the tasks in order and stops at the first failure.
func (r *runner) reconcile(ctx context.Context, tf *TaskFile) (summary, error) {
	var sum summary
	defer r.writeMetrics()

	for _, t := range tf.Tasks {
		p, err := prepare(t, r.check)
		if err != nil {
			sum.Failed++
			printFailure(r.out, t, err)
			return sum, err
		}
		res, err := r.exec.Run(ctx, p.Module, p.Req)
		if err != nil {
			sum.Failed++
			printFailure(r.out, t, err)
			return sum, fmt.Errorf("task %s: %w", t.Label(), err)
		}
		if res.Changed {
			sum.Changed++
		} else {
			sum.OK++
		}
		if err := printResult(r.out, t, res, r.diff); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (r *runner) writeMetrics() {
	if r.metricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(r.metricsFile, r.registry); err != nil {
		log.WithError(err).Warn("writing metrics textfile")
	}
}

// pass loads, validates and reconciles the task file once. Failures are
// reported, not returned, so a watch loop keeps running.
func (r *runner) pass(ctx context.Context, path string) {
	tf, err := loadTasks(path)
	if err == nil {
		err = validateTasks(tf)
	}
	if err != nil {
		failColor.Fprintf(r.out, "❌ %v\n", err)
		return
	}
	sum, err := r.reconcile(ctx, tf)
	if err != nil {
		log.WithError(err).Debug("pass failed")
	}
	titleColor.Fprintf(r.out, "📊 %s\n", sum)
}

// watchTasks runs pass once, then again whenever the task file changes and
// every interval, until ctx is done.
func watchTasks(ctx context.Context, path string, interval time.Duration, out io.Writer, pass func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so the directory is watched.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	pass()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == filepath.Clean(path) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fmt.Fprintf(out, "📄 %s changed; reconciling…\n", filepath.Base(path))
				pass()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		case <-ticker.C:
			fmt.Fprintln(out, "⏱️  Periodic reconcile…")
			pass()
		case <-ctx.Done():
			fmt.Fprintln(out, "🛑 Watch stopped.")
			return nil
		}
	}
}
