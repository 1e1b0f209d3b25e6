package vrfs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

const running = `vrf VRF4
 description VRF4 Description
 evpn-route-sync 793
 rd 1:1
 remote-route-filtering disable
 vpn id 2:3
 address-family ipv4 unicast
  import route-policy rp1
  import route-target
   192.0.2.1:400
   65000:1
  !
  export route-policy rp2
  export route-target 65000:2
  maximum prefix 23
 !
!
vrf VRF7
 description Seven
 rd 7:7
!
`

func have(t *testing.T) tree.Tree {
	t.Helper()
	h, err := Module.Parse(running)
	require.NoError(t, err)
	return h
}

func vrfs(entries ...tree.Tree) tree.Tree {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return tree.Tree{"vrfs": list}
}

func vrf4() tree.Tree {
	return tree.Tree{
		"name":                   "VRF4",
		"description":            "VRF4 Description",
		"evpn_route_sync":        793,
		"rd":                     "1:1",
		"remote_route_filtering": tree.Tree{"disable": true},
		"vpn":                    tree.Tree{"id": "2:3"},
		"address_families": []any{
			tree.Tree{
				"afi":     "ipv4",
				"safi":    "unicast",
				"import": tree.Tree{"route_policy": "rp1", "route_targets": []any{
					tree.Tree{"route_target": "192.0.2.1:400"},
					tree.Tree{"route_target": "65000:1"},
				}},
				"export": tree.Tree{"route_policy": "rp2", "route_targets": []any{
					tree.Tree{"route_target": "65000:2"},
				}},
				"maximum": tree.Tree{"prefix": 23},
			},
		},
	}
}

// withImport is VRF4 with the import policy of its address family replaced.
func withImport(imp tree.Tree) tree.Tree {
	v := vrf4()
	v["address_families"].([]any)[0].(tree.Tree)["import"] = imp
	return v
}

func TestParse(t *testing.T) {
	assert.Equal(t, vrfs(
		vrf4(),
		tree.Tree{"name": "VRF7", "description": "Seven", "rd": "7:7"},
	), Module.Facts(have(t)))
}

func TestVRFs(t *testing.T) {
	tests := map[string]struct {
		want tree.Tree
		mode rm.Mode
		cmds []string
	}{
		"merged new vrf and af change": {
			want: vrfs(
				tree.Tree{"name": "VRF4", "address_families": []any{
					tree.Tree{"afi": "ipv4", "safi": "unicast", "maximum": tree.Tree{"prefix": 100}},
				}},
				tree.Tree{"name": "VRF8"},
			),
			mode: rm.Merged,
			cmds: []string{
				"vrf VRF4", "address-family ipv4 unicast", "maximum prefix 100",
				"vrf VRF8",
			},
		},
		"merged adds a route target": {
			want: vrfs(tree.Tree{"name": "VRF4", "address_families": []any{
				tree.Tree{"afi": "ipv4", "safi": "unicast", "export": tree.Tree{"route_targets": []any{"65000:9"}}},
			}}),
			mode: rm.Merged,
			cmds: []string{"vrf VRF4", "address-family ipv4 unicast", "export route-target 65000:9"},
		},
		"replaced route targets": {
			want: vrfs(withImport(tree.Tree{"route_policy": "rp1", "route_targets": []any{"65000:1", "65000:3"}})),
			mode: rm.Replaced,
			cmds: []string{
				"vrf VRF4",
				"address-family ipv4 unicast",
				"no import route-target 192.0.2.1:400",
				"import route-target 65000:3",
			},
		},
		"merged idempotent": {
			want: vrfs(vrf4()),
			mode: rm.Merged,
		},
		"replaced drops af and fields but keeps VRF7": {
			want: vrfs(tree.Tree{"name": "VRF4", "rd": "1:1", "description": "new"}),
			mode: rm.Replaced,
			cmds: []string{
				"vrf VRF4",
				"description new",
				"no vpn id 2:3",
				"no evpn-route-sync 793",
				"no remote-route-filtering disable",
				"no address-family ipv4 unicast",
			},
		},
		"overridden tears down VRF7": {
			want: vrfs(vrf4()),
			mode: rm.Overridden,
			cmds: []string{"no vrf VRF7"},
		},
		"deleted named": {
			want: vrfs(tree.Tree{"name": "VRF4"}),
			mode: rm.Deleted,
			cmds: []string{"no vrf VRF4"},
		},
		"deleted all": {
			mode: rm.Deleted,
			cmds: []string{"no vrf VRF4", "no vrf VRF7"},
		},
		"rendered": {
			want: vrfs(tree.Tree{
				"name": "VRF1",
				"rd":   "9:9",
				"address_families": []any{
					tree.Tree{"afi": "ipv6", "safi": "unicast", "export": tree.Tree{"route_targets": []any{"9:9", "9:10"}}},
					tree.Tree{"afi": "ipv4", "safi": "unicast"},
				},
			}),
			mode: rm.Rendered,
			cmds: []string{
				"vrf VRF1",
				"rd 9:9",
				"address-family ipv6 unicast",
				"export route-target 9:9",
				"export route-target 9:10",
				"address-family ipv4 unicast",
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

func TestOverriddenLeavesNoTraceOfTornDownVRF(t *testing.T) {
	got, err := Module.GenerateCommands(vrfs(tree.Tree{"name": "VRF1", "rd": "1:9"}), have(t), rm.Overridden)
	require.NoError(t, err)
	assert.Contains(t, got, "no vrf VRF7")
	assert.Contains(t, got, "no vrf VRF4")
	for _, c := range got {
		assert.False(t, strings.Contains(c, "7:7") || strings.Contains(c, "Seven"), c)
	}
}

func TestRouteTargetBlockKeepsEveryTarget(t *testing.T) {
	h, err := Module.Parse(`vrf A
 address-family ipv4 unicast
  import route-target
   1:1
   2:2
   3:3
  !
 !
!
`)
	require.NoError(t, err)
	facts := Module.Facts(h)
	af := facts["vrfs"].([]any)[0].(tree.Tree)["address_families"].([]any)[0].(tree.Tree)
	assert.Equal(t, []any{
		tree.Tree{"route_target": "1:1"},
		tree.Tree{"route_target": "2:2"},
		tree.Tree{"route_target": "3:3"},
	}, af.Sub("import")["route_targets"])

	got, err := Module.GenerateCommands(facts, nil, rm.Rendered)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"vrf A",
		"address-family ipv4 unicast",
		"import route-target 1:1",
		"import route-target 2:2",
		"import route-target 3:3",
	}, got)
}
