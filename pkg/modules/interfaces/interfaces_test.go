package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

const running = `interface GigabitEthernet0/0/0/1
 description Configured and Merged by Ansible Network
 mtu 110
 shutdown
!
interface GigabitEthernet0/0/0/0
 description uplink
 mtu 9000
 speed 100
 duplex full
!
interface Loopback0
!
`

func have(t *testing.T) tree.Tree {
	t.Helper()
	h, err := Module.Parse(running)
	require.NoError(t, err)
	return h
}

func ifaces(entries ...tree.Tree) tree.Tree {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return tree.Tree{"interfaces": list}
}

func TestParse(t *testing.T) {
	assert.Equal(t, ifaces(
		tree.Tree{"name": "GigabitEthernet0/0/0/0", "description": "uplink", "mtu": 9000, "speed": 100, "duplex": "full", "enabled": true},
		tree.Tree{"name": "GigabitEthernet0/0/0/1", "description": "Configured and Merged by Ansible Network", "mtu": 110, "enabled": false},
		tree.Tree{"name": "Loopback0", "enabled": true},
	), Module.Facts(have(t)))
}

func TestInterfaces(t *testing.T) {
	tests := map[string]struct {
		want tree.Tree
		mode rm.Mode
		cmds []string
	}{
		"merged": {
			want: ifaces(
				tree.Tree{"name": "GigabitEthernet0/0/0/1", "enabled": true, "mtu": 1500},
				tree.Tree{"name": "GigabitEthernet0/0/0/2", "description": "new"},
			),
			mode: rm.Merged,
			cmds: []string{
				"interface GigabitEthernet0/0/0/1", "mtu 1500", "no shutdown",
				"interface GigabitEthernet0/0/0/2", "description new",
			},
		},
		"merged idempotent": {
			want: ifaces(tree.Tree{"name": "GigabitEthernet0/0/0/0", "mtu": 9000, "duplex": "full"}),
			mode: rm.Merged,
		},
		"replaced resets unmentioned attributes": {
			want: ifaces(tree.Tree{"name": "GigabitEthernet0/0/0/0", "description": "uplink", "enabled": false}),
			mode: rm.Replaced,
			cmds: []string{
				"interface GigabitEthernet0/0/0/0",
				"no mtu 9000", "no speed 100", "no duplex full", "shutdown",
			},
		},
		"overridden resets other interfaces": {
			want: ifaces(
				tree.Tree{"name": "GigabitEthernet0/0/0/0", "description": "uplink", "mtu": 9000, "speed": 100, "duplex": "full"},
			),
			mode: rm.Overridden,
			cmds: []string{
				"interface GigabitEthernet0/0/0/1",
				"no description Configured and Merged by Ansible Network", "no mtu 110", "no shutdown",
			},
		},
		"deleted one": {
			want: ifaces(tree.Tree{"name": "GigabitEthernet0/0/0/0"}),
			mode: rm.Deleted,
			cmds: []string{
				"interface GigabitEthernet0/0/0/0",
				"no description uplink", "no mtu 9000", "no speed 100", "no duplex full",
			},
		},
		"rendered": {
			want: ifaces(tree.Tree{"name": "GigabitEthernet0/0/0/3", "description": "x", "enabled": false}),
			mode: rm.Rendered,
			cmds: []string{"interface GigabitEthernet0/0/0/3", "description x", "shutdown"},
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

func TestDeletedAll(t *testing.T) {
	got, err := Module.GenerateCommands(nil, have(t), rm.Deleted)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"interface GigabitEthernet0/0/0/0",
		"no description uplink", "no mtu 9000", "no speed 100", "no duplex full",
		"interface GigabitEthernet0/0/0/1",
		"no description Configured and Merged by Ansible Network", "no mtu 110", "no shutdown",
	}, got)
}
