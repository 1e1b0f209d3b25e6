package transport

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// File reads running configuration from a saved config file and appends
// pushed commands to an output file. Nothing is applied, so the running
// file is unchanged after a push.
type File struct {
	// RunningPath is the saved running configuration.
	RunningPath string
	// OutputPath receives pushed commands. Pushes are only logged when empty.
	OutputPath string
}

// RunningConfig returns the stanzas of the running file that match scope.
func (f *File) RunningConfig(_ context.Context, scope string) (string, error) {
	data, err := os.ReadFile(f.RunningPath)
	if err != nil {
		return "", fmt.Errorf("reading running config: %w", err)
	}
	return Section(string(data), scope), nil
}

// Push appends commands to the output file, one per line, followed by a
// "!" separator.
func (f *File) Push(_ context.Context, commands []string) error {
	entry := log.WithFields(log.Fields{"transport": "file", "commands": len(commands)})
	if f.OutputPath == "" {
		entry.Info("discarding pushed commands")
		return nil
	}
	out, err := os.OpenFile(f.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer out.Close()

	if _, err := out.WriteString(strings.Join(commands, "\n") + "\n!\n"); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	entry.WithField("path", f.OutputPath).Info("wrote commands")
	return nil
}
