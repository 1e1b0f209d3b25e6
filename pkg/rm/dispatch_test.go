package rm_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var vrfFields = rm.NewRegistry(
	rm.Field{Name: "description", Setval: rm.Tmpl("description {{ .description }}")},
	rm.Field{Name: "rd", Setval: rm.Tmpl("rd {{ .rd }}")},
)

// vrfModule is a minimal module: a keyed list of VRFs with two leaves.
var vrfModule = &rm.Module{
	Name:   "test_vrfs",
	Scope:  "vrf",
	Schema: canon.Schema{"vrfs": {Keys: []string{"name"}}},
	Grammar: grammar.New(
		grammar.Rule{
			Name:   "vrf",
			Re:     regexp.MustCompile(`^vrf (?P<name>\S+)$`),
			Shared: true,
			Build: func(m grammar.Match) tree.Tree {
				return grammar.Nest(tree.Tree{"name": m.Get("name")}, "vrfs", m.Get("name"))
			},
		},
		grammar.Rule{
			Name: "description",
			Re:   regexp.MustCompile(`^description (?P<desc>.+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return grammar.Nest(tree.Tree{"description": m.Get("desc")}, "vrfs", m.Get("name"))
			},
		},
		grammar.Rule{
			Name: "rd",
			Re:   regexp.MustCompile(`^rd (?P<rd>\S+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return grammar.Nest(tree.Tree{"rd": m.Get("rd")}, "vrfs", m.Get("name"))
			},
		},
	),
	Comparator: func(r *rm.Run) error {
		matched, haveOnly := canon.Partition(r.Want.Coll("vrfs"), r.Have.Coll("vrfs"))
		for _, p := range matched {
			begin := r.Commands.Len()
			if err := r.Compare(vrfFields, vrfFields.Names(), p.Want, p.Have); err != nil {
				return err
			}
			r.Commands.WrapSince(begin, "vrf "+p.Want.Str("name"))
		}
		if r.Negates() {
			for _, e := range haveOnly {
				r.Commands.Add("no vrf " + e.Tree.Str("name"))
			}
		}
		return nil
	},
}

func vrfs(entries ...tree.Tree) tree.Tree {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return tree.Tree{"vrfs": list}
}

func TestGenerateCommandsModes(t *testing.T) {
	have := func() tree.Tree {
		return vrfs(
			tree.Tree{"name": "VRF1", "description": "old", "rd": "1:1"},
			tree.Tree{"name": "VRF7", "rd": "7:7"},
		)
	}
	want := func() tree.Tree {
		return vrfs(tree.Tree{"name": "VRF1", "description": "new"})
	}

	tests := map[string]struct {
		mode rm.Mode
		want tree.Tree
		cmds []string
	}{
		"merged keeps unmentioned fields and entities": {
			mode: rm.Merged,
			want: want(),
			cmds: []string{"vrf VRF1", "description new"},
		},
		"replaced negates unmentioned fields only": {
			mode: rm.Replaced,
			want: want(),
			cmds: []string{"vrf VRF1", "description new", "no rd 1:1"},
		},
		"overridden tears down have-only entities": {
			mode: rm.Overridden,
			want: want(),
			cmds: []string{"vrf VRF1", "description new", "no rd 1:1", "no vrf VRF7"},
		},
		"deleted scoped to named entity": {
			mode: rm.Deleted,
			want: vrfs(tree.Tree{"name": "VRF7"}),
			cmds: []string{"no vrf VRF7"},
		},
		"deleted everything": {
			mode: rm.Deleted,
			want: nil,
			cmds: []string{"no vrf VRF1", "no vrf VRF7"},
		},
		"rendered ignores have": {
			mode: rm.Rendered,
			want: want(),
			cmds: []string{"vrf VRF1", "description new"},
		},
		"gathered emits nothing": {
			mode: rm.Gathered,
			want: want(),
			cmds: nil,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := vrfModule.GenerateCommands(tc.want, have(), tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.cmds, got)
		})
	}
}

func TestGenerateCommandsIdempotent(t *testing.T) {
	doc := func() tree.Tree {
		return vrfs(tree.Tree{"name": "VRF1", "description": "d", "rd": "1:1"})
	}
	for _, mode := range []rm.Mode{rm.Merged, rm.Replaced, rm.Overridden} {
		got, err := vrfModule.GenerateCommands(doc(), doc(), mode)
		require.NoError(t, err)
		assert.Empty(t, got, mode)
	}
}

func TestGenerateCommandsDeletedOnEmpty(t *testing.T) {
	got, err := vrfModule.GenerateCommands(tree.Tree{}, tree.Tree{}, rm.Deleted)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestModuleParseFacts(t *testing.T) {
	facts, err := vrfModule.Parse("vrf VRF2\n rd 2:2\n!\nvrf VRF1\n description blue\n!\n")
	require.NoError(t, err)
	assert.Equal(t, tree.Tree{
		"vrfs": []any{
			tree.Tree{"name": "VRF1", "description": "blue"},
			tree.Tree{"name": "VRF2", "rd": "2:2"},
		},
	}, vrfModule.Facts(facts))
}

type fakeTransport struct {
	running []string
	pushed  [][]string
	pushErr error
}

func (f *fakeTransport) RunningConfig(_ context.Context, scope string) (string, error) {
	if len(f.running) == 0 {
		return "", errors.New("no more configs")
	}
	out := f.running[0]
	if len(f.running) > 1 {
		f.running = f.running[1:]
	}
	return out, nil
}

func (f *fakeTransport) Push(_ context.Context, cmds []string) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, cmds)
	return nil
}

func TestExecutorMerged(t *testing.T) {
	tr := &fakeTransport{running: []string{
		"vrf VRF1\n rd 1:1\n!\n",
		"vrf VRF1\n description new\n rd 1:1\n!\n",
	}}
	reg := prometheus.NewRegistry()
	ex := &rm.Executor{Transport: tr, Metrics: rm.NewMetrics(reg)}

	res, err := ex.Run(context.Background(), vrfModule, rm.Request{
		Want: vrfs(tree.Tree{"name": "VRF1", "description": "new"}),
		Mode: rm.Merged,
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"vrf VRF1", "description new"}, res.Commands)
	assert.Equal(t, [][]string{{"vrf VRF1", "description new"}}, tr.pushed)
	assert.Equal(t, vrfs(tree.Tree{"name": "VRF1", "rd": "1:1"}), res.Before)
	assert.Equal(t, vrfs(tree.Tree{"name": "VRF1", "description": "new", "rd": "1:1"}), res.After)

	n, err := testutil.GatherAndCount(reg, "xrctl_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExecutorCheckModeDoesNotPush(t *testing.T) {
	tr := &fakeTransport{running: []string{"vrf VRF1\n!\n"}}
	ex := &rm.Executor{Transport: tr}
	res, err := ex.Run(context.Background(), vrfModule, rm.Request{
		Want:  vrfs(tree.Tree{"name": "VRF1", "rd": "1:1"}),
		Mode:  rm.Replaced,
		Check: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"vrf VRF1", "rd 1:1"}, res.Commands)
	assert.Empty(t, tr.pushed)
	assert.Nil(t, res.After)
}

func TestExecutorNoChange(t *testing.T) {
	tr := &fakeTransport{running: []string{"vrf VRF1\n rd 1:1\n!\n"}}
	ex := &rm.Executor{Transport: tr}
	res, err := ex.Run(context.Background(), vrfModule, rm.Request{
		Want: vrfs(tree.Tree{"name": "VRF1", "rd": "1:1"}),
		Mode: rm.Merged,
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, tr.pushed)
}

func TestExecutorGathered(t *testing.T) {
	tr := &fakeTransport{running: []string{"vrf VRF1\n rd 1:1\n!\n"}}
	ex := &rm.Executor{Transport: tr}
	res, err := ex.Run(context.Background(), vrfModule, rm.Request{Mode: rm.Gathered})
	require.NoError(t, err)
	assert.Equal(t, vrfs(tree.Tree{"name": "VRF1", "rd": "1:1"}), res.Gathered)
	assert.False(t, res.Changed)
}

func TestExecutorErrors(t *testing.T) {
	ctx := context.Background()
	ex := &rm.Executor{}

	_, err := ex.Run(ctx, vrfModule, rm.Request{Mode: rm.Parsed})
	assert.Equal(t, rm.KindInput, rm.KindOf(err))

	_, err = ex.Run(ctx, vrfModule, rm.Request{Mode: rm.Rendered})
	assert.Equal(t, rm.KindInput, rm.KindOf(err))

	_, err = ex.Run(ctx, vrfModule, rm.Request{Mode: rm.Merged, Want: vrfs(tree.Tree{"name": "x"})})
	assert.Equal(t, rm.KindInput, rm.KindOf(err))

	ex.Transport = &fakeTransport{running: []string{""}}
	_, err = ex.Run(ctx, vrfModule, rm.Request{Mode: rm.Merged})
	assert.Equal(t, rm.KindInput, rm.KindOf(err))

	ex.Transport = &fakeTransport{}
	_, err = ex.Run(ctx, vrfModule, rm.Request{Mode: rm.Gathered})
	assert.Equal(t, rm.KindTransport, rm.KindOf(err))

	ex.Transport = &fakeTransport{running: []string{""}, pushErr: errors.New("% Invalid input detected")}
	_, err = ex.Run(ctx, vrfModule, rm.Request{Mode: rm.Merged, Want: vrfs(tree.Tree{"name": "x", "rd": "1:1"})})
	require.Error(t, err)
	assert.Equal(t, rm.KindTransport, rm.KindOf(err))
	assert.Contains(t, err.Error(), "test_vrfs")
}

func TestParseMode(t *testing.T) {
	m, err := rm.ParseMode(" Overridden ")
	require.NoError(t, err)
	assert.Equal(t, rm.Overridden, m)
	assert.True(t, m.Negates())
	assert.True(t, m.Configures())
	assert.False(t, rm.Rendered.Online())

	_, err = rm.ParseMode("purged")
	assert.Equal(t, rm.KindInput, rm.KindOf(err))
}
