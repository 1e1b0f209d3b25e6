package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var (
	okColor      = color.New(color.FgGreen)
	changedColor = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	titleColor   = color.New(color.FgHiCyan, color.Bold)
)

// printResult reports one task result.
func printResult(w io.Writer, t Task, res *rm.Result, showDiff bool) error {
	switch {
	case res.Rendered != nil:
		okColor.Fprintf(w, "📝 %s: rendered\n", t.Label())
		printCommands(w, res.Rendered)
	case res.Parsed != nil:
		okColor.Fprintf(w, "🔎 %s: parsed\n", t.Label())
		return writeYAML(w, res.Parsed)
	case res.Gathered != nil:
		okColor.Fprintf(w, "🔎 %s: gathered\n", t.Label())
		return writeYAML(w, res.Gathered)
	case res.Changed:
		changedColor.Fprintf(w, "🔧 %s: changed\n", t.Label())
		printCommands(w, res.Commands)
	default:
		okColor.Fprintf(w, "✅ %s: ok\n", t.Label())
	}
	if showDiff && res.After != nil {
		d, err := factsDiff(res.Before, res.After)
		if err != nil {
			return err
		}
		fmt.Fprint(w, d)
	}
	return nil
}

func printCommands(w io.Writer, cmds []string) {
	for _, c := range cmds {
		fmt.Fprintf(w, "    %s\n", c)
	}
}

func printFailure(w io.Writer, t Task, err error) {
	failColor.Fprintf(w, "❌ %s: %v\n", t.Label(), err)
}

// writeYAML encodes v with two-space indentation.
func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree.Plain(v)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// factsDiff renders a line diff between the YAML forms of before and
// after. Unchanged lines are kept for context.
func factsDiff(before, after tree.Tree) (string, error) {
	var a, b bytes.Buffer
	if err := writeYAML(&a, before); err != nil {
		return "", err
	}
	if err := writeYAML(&b, after); err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a.String(), b.String())
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				out.WriteString(color.GreenString("+ %s", line))
			case diffmatchpatch.DiffDelete:
				out.WriteString(color.RedString("- %s", line))
			default:
				out.WriteString("  " + line)
			}
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}
