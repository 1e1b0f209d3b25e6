package l2interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

const running = `interface GigabitEthernet0/0/0/1
 dot1q native vlan 10
 l2transport
  l2protocol stp tunnel
  l2protocol cdp drop
  propagate remote-status
 !
!
interface GigabitEthernet0/0/0/3.900 l2transport
 encapsulation dot1q 20 second-dot1q 40
!
interface GigabitEthernet0/0/0/4
 dot1q native vlan 40
!
`

func have(t *testing.T) tree.Tree {
	t.Helper()
	h, err := Module.Parse(running)
	require.NoError(t, err)
	return h
}

func l2(entries ...tree.Tree) tree.Tree {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return tree.Tree{"l2_interfaces": list}
}

func TestParse(t *testing.T) {
	assert.Equal(t, l2(
		tree.Tree{
			"name":        "GigabitEthernet0/0/0/1",
			"native_vlan": 10,
			"l2transport": true,
			"l2protocol":  []any{tree.Tree{"cdp": "drop"}, tree.Tree{"stp": "tunnel"}},
			"propagate":   true,
		},
		tree.Tree{"name": "GigabitEthernet0/0/0/3.900", "l2transport": true, "q_vlan": []any{20, 40}},
		tree.Tree{"name": "GigabitEthernet0/0/0/4", "native_vlan": 40},
	), Module.Facts(have(t)))
}

func TestL2Interfaces(t *testing.T) {
	tests := map[string]struct {
		want tree.Tree
		mode rm.Mode
		cmds []string
	}{
		"merged adds protocol": {
			want: l2(tree.Tree{
				"name":        "GigabitEthernet0/0/0/1",
				"l2transport": true,
				"l2protocol":  []any{tree.Tree{"pvst": "forward"}},
			}),
			mode: rm.Merged,
			cmds: []string{"interface GigabitEthernet0/0/0/1", "l2protocol pvst forward"},
		},
		"replaced rewrites protocols": {
			want: l2(tree.Tree{
				"name":        "GigabitEthernet0/0/0/1",
				"native_vlan": 10,
				"l2transport": true,
				"l2protocol":  []any{tree.Tree{"cdp": "tunnel"}},
			}),
			mode: rm.Replaced,
			cmds: []string{
				"interface GigabitEthernet0/0/0/1",
				"no propagate remote-status",
				"no l2protocol stp tunnel",
				"l2protocol cdp tunnel",
			},
		},
		"replaced subinterface encapsulation": {
			want: l2(tree.Tree{"name": "GigabitEthernet0/0/0/3.900", "l2transport": true, "q_vlan": []any{20}}),
			mode: rm.Replaced,
			cmds: []string{"interface GigabitEthernet0/0/0/3.900 l2transport", "encapsulation dot1q 20"},
		},
		"overridden": {
			want: l2(tree.Tree{"name": "GigabitEthernet0/0/0/4", "native_vlan": 40}),
			mode: rm.Overridden,
			cmds: []string{
				"interface GigabitEthernet0/0/0/1",
				"no dot1q native vlan 10", "no l2transport", "no propagate remote-status",
				"no l2protocol cdp drop", "no l2protocol stp tunnel",
				"interface GigabitEthernet0/0/0/3.900 l2transport",
				"no encapsulation dot1q",
			},
		},
		"deleted one": {
			want: l2(tree.Tree{"name": "GigabitEthernet0/0/0/4"}),
			mode: rm.Deleted,
			cmds: []string{"interface GigabitEthernet0/0/0/4", "no dot1q native vlan 40"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Module.GenerateCommands(tc.want, have(t), tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.cmds, got)
		})
	}
}

func TestL2ProtocolRequiresL2Transport(t *testing.T) {
	want := l2(tree.Tree{
		"name":       "GigabitEthernet0/0/0/9",
		"l2protocol": []any{tree.Tree{"cdp": "tunnel"}},
	})
	_, err := Module.GenerateCommands(want, nil, rm.Replaced)
	require.Error(t, err)
	assert.Equal(t, rm.KindInput, rm.KindOf(err))
	assert.Contains(t, err.Error(), "l2_interfaces")

	want = l2(tree.Tree{"name": "GigabitEthernet0/0/0/9", "propagate": true})
	_, err = Module.GenerateCommands(want, nil, rm.Rendered)
	assert.Equal(t, rm.KindInput, rm.KindOf(err))
}
