package lldpglobal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

const running = `lldp
 timer 3000
 reinit 2
 subinterfaces enable
 holdtime 100
 tlv-select
  management-address disable
  system-description disable
 !
!
`

func have(t *testing.T) tree.Tree {
	t.Helper()
	h, err := Module.Parse(running)
	require.NoError(t, err)
	return h
}

func TestParse(t *testing.T) {
	assert.Equal(t, tree.Tree{
		"holdtime":      100,
		"reinit":        2,
		"timer":         3000,
		"subinterfaces": true,
		"tlv_select": tree.Tree{
			"management_address": false,
			"system_description": false,
		},
	}, Module.Facts(have(t)))
}

func TestLLDPGlobal(t *testing.T) {
	tests := map[string]struct {
		want tree.Tree
		mode rm.Mode
		cmds []string
	}{
		"merged disables another tlv": {
			want: tree.Tree{"holdtime": 1, "tlv_select": tree.Tree{"system_name": false}},
			mode: rm.Merged,
			cmds: []string{"lldp holdtime 1", "lldp tlv-select system-name disable"},
		},
		"merged re-enables a tlv": {
			want: tree.Tree{"tlv_select": tree.Tree{"management_address": true}},
			mode: rm.Merged,
			cmds: []string{"no lldp tlv-select management-address disable"},
		},
		"merged turns off subinterfaces": {
			want: tree.Tree{"subinterfaces": false},
			mode: rm.Merged,
			cmds: []string{"no lldp subinterfaces enable"},
		},
		"replaced": {
			want: tree.Tree{"holdtime": 100, "timer": 3000, "tlv_select": tree.Tree{"system_description": false}},
			mode: rm.Replaced,
			cmds: []string{
				"no lldp reinit 2",
				"no lldp subinterfaces enable",
				"no lldp tlv-select management-address disable",
			},
		},
		"deleted": {
			mode: rm.Deleted,
			cmds: []string{
				"no lldp holdtime 100",
				"no lldp reinit 2",
				"no lldp timer 3000",
				"no lldp subinterfaces enable",
				"no lldp tlv-select management-address disable",
				"no lldp tlv-select system-description disable",
			},
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
