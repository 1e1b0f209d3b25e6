package bgptemplates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

const running = `router bgp 65536
 neighbor-group NG1
  remote-as 65537
  description group one
  update-source Loopback0
  advertisement-interval 10
  bfd fast-detect
  address-family ipv4 unicast
   route-policy rp1 in
   next-hop-self
  !
  address-family ipv6 unicast
  !
 !
 neighbor-group NG2
  remote-as 65538
 !
 neighbor 192.0.2.2
  remote-as 1
  description not a group
 !
!
`

func have(t *testing.T) tree.Tree {
	t.Helper()
	return parse(t, running)
}

func parse(t *testing.T, text string) tree.Tree {
	t.Helper()
	h, err := Module.Parse(text)
	require.NoError(t, err)
	return h
}

func TestParse(t *testing.T) {
	assert.Equal(t, tree.Tree{
		"as_number": "65536",
		"neighbor": []any{
			tree.Tree{
				"name":                   "NG1",
				"remote_as":              65537,
				"description":            "group one",
				"update_source":          "Loopback0",
				"advertisement_interval": 10,
				"bfd":                    tree.Tree{"fast_detect": true},
				"address_family": []any{
					tree.Tree{"afi": "ipv4", "safi": "unicast", "route_policy": tree.Tree{"inbound": "rp1"}, "next_hop_self": true},
					tree.Tree{"afi": "ipv6", "safi": "unicast"},
				},
			},
			tree.Tree{"name": "NG2", "remote_as": 65538},
		},
	}, Module.Facts(have(t)))
}

func TestBGPTemplates(t *testing.T) {
	replacedWant := func() tree.Tree {
		return tree.Tree{"neighbor": []any{tree.Tree{
			"name":      "NG1",
			"remote_as": 65537,
			"address_family": []any{
				tree.Tree{"afi": "ipv4", "safi": "unicast", "route_policy": tree.Tree{"inbound": "rp1"}},
			},
		}}}
	}
	replacedCmds := []string{
		"router bgp 65536",
		"neighbor-group NG1",
		"no description group one",
		"no update-source Loopback0",
		"no advertisement-interval 10",
		"no bfd fast-detect",
		"no address-family ipv6 unicast",
		"address-family ipv4 unicast",
		"no next-hop-self",
	}

	tests := map[string]struct {
		want tree.Tree
		mode rm.Mode
		cmds []string
	}{
		"merged creates empty group and family": {
			want: tree.Tree{"neighbor": []any{
				tree.Tree{"name": "NG1", "address_family": []any{tree.Tree{"afi": "vpnv4", "safi": "unicast"}}},
				tree.Tree{"name": "NG3"},
			}},
			mode: rm.Merged,
			cmds: []string{
				"router bgp 65536",
				"neighbor-group NG1",
				"address-family vpnv4 unicast",
				"neighbor-group NG3",
			},
		},
		"merged changes": {
			want: tree.Tree{"neighbor": []any{tree.Tree{
				"name":           "NG2",
				"description":    "two",
				"address_family": []any{tree.Tree{"afi": "ipv4", "safi": "unicast", "weight": 5}},
			}}},
			mode: rm.Merged,
			cmds: []string{
				"router bgp 65536",
				"neighbor-group NG2",
				"description two",
				"address-family ipv4 unicast",
				"weight 5",
			},
		},
		"replaced": {
			want: replacedWant(),
			mode: rm.Replaced,
			cmds: replacedCmds,
		},
		"overridden": {
			want: replacedWant(),
			mode: rm.Overridden,
			cmds: append(append([]string(nil), replacedCmds...), "no neighbor-group NG2"),
		},
		"deleted all": {
			mode: rm.Deleted,
			cmds: []string{"router bgp 65536", "no neighbor-group NG1", "no neighbor-group NG2"},
		},
		"deleted named": {
			want: tree.Tree{"neighbor": []any{tree.Tree{"name": "NG2"}}},
			mode: rm.Deleted,
			cmds: []string{"router bgp 65536", "no neighbor-group NG2"},
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

const softReconf = `router bgp 65536
 neighbor-group NG1
  address-family ipv4 unicast
   soft-reconfiguration inbound
  !
 !
!
`

func TestSoftReconfiguration(t *testing.T) {
	under := func(cmds ...string) []string {
		return append([]string{"router bgp 65536", "neighbor-group NG1", "address-family ipv4 unicast"}, cmds...)
	}

	tests := map[string]struct {
		soft tree.Tree
		mode rm.Mode
		cmds []string
	}{
		"set false negates": {
			soft: tree.Tree{"set": false},
			mode: rm.Merged,
			cmds: under("no soft-reconfiguration inbound"),
		},
		"set false negates in replaced": {
			soft: tree.Tree{"set": false},
			mode: rm.Replaced,
			cmds: under("no soft-reconfiguration inbound"),
		},
		"false option is unset": {
			soft: tree.Tree{"set": true, "always": false},
			mode: rm.Replaced,
			cmds: nil,
		},
		"option added": {
			soft: tree.Tree{"set": true, "always": true},
			mode: rm.Merged,
			cmds: under("soft-reconfiguration inbound always"),
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			want := tree.Tree{"neighbor": []any{tree.Tree{
				"name": "NG1",
				"address_family": []any{
					tree.Tree{"afi": "ipv4", "safi": "unicast", "soft_reconfiguration": tc.soft},
				},
			}}}
			got, err := Module.GenerateCommands(want, parse(t, softReconf), tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.cmds, got)
		})
	}
}

func TestRendered(t *testing.T) {
	want := tree.Tree{
		"as_number": 100,
		"neighbor": []any{tree.Tree{
			"name":           "NGX",
			"remote_as":      200,
			"address_family": []any{tree.Tree{"afi": "ipv4", "safi": "unicast"}},
		}},
	}
	got, err := Module.GenerateCommands(want, nil, rm.Rendered)
	require.NoError(t, err)
	assert.Equal(t, []string{"router bgp 100", "neighbor-group NGX", "remote-as 200", "address-family ipv4 unicast"}, got)
}
