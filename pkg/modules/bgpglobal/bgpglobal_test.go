package bgpglobal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

const running = `router bgp 65536
 bgp confederation identifier 4
 bgp router-id 192.0.2.1
 bgp cluster-id 5
 bgp graceful-restart restart-time 90
 bgp graceful-restart
 bgp log neighbor changes detail
 default-metric 4
 timers bgp 60 180
 address-family ipv4 unicast
  dynamic-med interval 10
 !
 neighbor-group NG1
  remote-as 65537
  description group
 !
 neighbor 192.0.2.2
  remote-as 65537
  password encrypted 0822455D0A16
  description peer two
  update-source Loopback0
  bfd fast-detect
  address-family ipv4 unicast
   route-policy rp1 in
  !
 !
 neighbor 192.0.2.3
  remote-as 65538
  shutdown
 !
 vrf vrf1
  rd 1:1
  bgp router-id 192.0.2.9
  address-family ipv4 unicast
  !
  neighbor 192.0.2.4
   remote-as 65539
   ebgp-multihop 255
  !
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
		"as_number": "65536",
		"bgp": tree.Tree{
			"router_id":        "192.0.2.1",
			"cluster_id":       "5",
			"confederation":    tree.Tree{"identifier": 4},
			"graceful_restart": tree.Tree{"set": true, "restart_time": 90},
			"log":              tree.Tree{"neighbor": tree.Tree{"changes": tree.Tree{"detail": true}}},
		},
		"default_metric": 4,
		"timers":         tree.Tree{"keepalive_time": 60, "holdtime": 180},
		"neighbors": []any{
			tree.Tree{
				"neighbor_address": "192.0.2.2",
				"remote_as":        65537,
				"password":         tree.Tree{"encrypted": "0822455D0A16"},
				"description":      "peer two",
				"update_source":    "Loopback0",
				"bfd":              tree.Tree{"fast_detect": true},
			},
			tree.Tree{"neighbor_address": "192.0.2.3", "remote_as": 65538, "shutdown": true},
		},
		"vrfs": []any{
			tree.Tree{
				"vrf": "vrf1",
				"rd":  "1:1",
				"bgp": tree.Tree{"router_id": "192.0.2.9"},
				"neighbors": []any{
					tree.Tree{"neighbor_address": "192.0.2.4", "remote_as": 65539, "ebgp_multihop": 255},
				},
			},
		},
	}, Module.Facts(have(t)))
}

func TestBGPGlobal(t *testing.T) {
	teardown := []string{
		"no bgp cluster-id 5",
		"no bgp log neighbor changes detail",
		"no bgp confederation identifier 4",
		"no bgp graceful-restart",
		"no bgp graceful-restart restart-time 90",
		"no default-metric 4",
		"no timers bgp 60 180",
	}

	tests := map[string]struct {
		want tree.Tree
		mode rm.Mode
		cmds []string
	}{
		"merged": {
			want: tree.Tree{
				"as_number": "65536",
				"bgp":       tree.Tree{"router_id": "192.0.2.10"},
				"neighbors": []any{
					tree.Tree{"neighbor_address": "192.0.2.2", "description": "new"},
					tree.Tree{"neighbor_address": "198.51.100.1", "remote_as": 65550, "password": tree.Tree{"encrypted": "abc"}},
				},
				"vrfs": []any{tree.Tree{"vrf": "vrf2", "rd": "2:2"}},
			},
			mode: rm.Merged,
			cmds: []string{
				"router bgp 65536",
				"bgp router-id 192.0.2.10",
				"neighbor 192.0.2.2",
				"description new",
				"neighbor 198.51.100.1",
				"remote-as 65550",
				"password encrypted abc",
				"vrf vrf2",
				"rd 2:2",
			},
		},
		"merged false re-enables neighbor": {
			want: tree.Tree{"neighbors": []any{tree.Tree{"neighbor_address": "192.0.2.3", "shutdown": false}}},
			mode: rm.Merged,
			cmds: []string{"router bgp 65536", "neighbor 192.0.2.3", "no shutdown"},
		},
		"replaced": {
			want: tree.Tree{
				"as_number": 65536,
				"bgp":       tree.Tree{"router_id": "192.0.2.1"},
				"neighbors": []any{tree.Tree{"neighbor_address": "192.0.2.2", "remote_as": 65537}},
			},
			mode: rm.Replaced,
			cmds: append(append([]string{"router bgp 65536"}, teardown...),
				"no neighbor 192.0.2.3",
				"neighbor 192.0.2.2",
				"no password encrypted 0822455D0A16",
				"no description peer two",
				"no update-source Loopback0",
				"no bfd fast-detect",
				"no vrf vrf1",
			),
		},
		"deleted named neighbor": {
			want: tree.Tree{"as_number": "65536", "neighbors": []any{tree.Tree{"neighbor_address": "192.0.2.3"}}},
			mode: rm.Deleted,
			cmds: []string{"router bgp 65536", "no neighbor 192.0.2.3"},
		},
		"deleted all": {
			mode: rm.Deleted,
			cmds: append(append([]string{"router bgp 65536", "no bgp router-id 192.0.2.1"}, teardown...),
				"no neighbor 192.0.2.2",
				"no neighbor 192.0.2.3",
				"no vrf vrf1",
			),
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

func TestMergedIdempotent(t *testing.T) {
	got, err := Module.GenerateCommands(Module.Facts(have(t)), have(t), rm.Merged)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Module.GenerateCommands(Module.Facts(have(t)), have(t), rm.Replaced)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRendered(t *testing.T) {
	want := tree.Tree{
		"as_number": 65001,
		"bgp":       tree.Tree{"graceful_restart": tree.Tree{"set": true}},
		"vrfs": []any{tree.Tree{
			"vrf": "blue",
			"neighbors": []any{tree.Tree{
				"neighbor_address": "10.0.0.1",
				"remote_as":        65002,
				"bfd":              tree.Tree{"fast_detect": true},
			}},
		}},
	}
	got, err := Module.GenerateCommands(want, nil, rm.Rendered)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"router bgp 65001",
		"bgp graceful-restart",
		"vrf blue",
		"neighbor 10.0.0.1",
		"remote-as 65002",
		"bfd fast-detect",
	}, got)
}

func TestNewProcess(t *testing.T) {
	tests := map[string]struct {
		mode rm.Mode
		cmds []string
	}{
		"merged":     {mode: rm.Merged, cmds: []string{"router bgp 65536"}},
		"replaced":   {mode: rm.Replaced, cmds: []string{"router bgp 65536"}},
		"overridden": {mode: rm.Overridden, cmds: []string{"router bgp 65536"}},
		"rendered":   {mode: rm.Rendered, cmds: []string{"router bgp 65536"}},
		"deleted":    {mode: rm.Deleted, cmds: nil},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Module.GenerateCommands(tree.Tree{"as_number": "65536"}, tree.Tree{}, tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.cmds, got)
		})
	}

	got, err := Module.GenerateCommands(tree.Tree{"as_number": "65536"}, have(t), rm.Merged)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeletedOnEmptyDevice(t *testing.T) {
	got, err := Module.GenerateCommands(nil, tree.Tree{}, rm.Deleted)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestASNumberErrors(t *testing.T) {
	_, err := Module.GenerateCommands(tree.Tree{"as_number": 65000, "bgp": tree.Tree{"router_id": "1.1.1.1"}}, have(t), rm.Merged)
	require.Error(t, err)
	assert.Equal(t, rm.KindInput, rm.KindOf(err))

	_, err = Module.GenerateCommands(tree.Tree{"default_metric": 5}, nil, rm.Rendered)
	require.Error(t, err)
	assert.Equal(t, rm.KindInput, rm.KindOf(err))
}
