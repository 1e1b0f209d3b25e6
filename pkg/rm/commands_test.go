package rm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xrctl/pkg/rm"
)

func TestWrapSinceSkipsEmptyScope(t *testing.T) {
	cmds := rm.NewCommands()
	cmds.Add("router bgp 1")

	begin := cmds.Len()
	assert.False(t, cmds.WrapSince(begin, "address-family ipv4 unicast"))
	assert.Equal(t, []string{"router bgp 1"}, cmds.Lines())
}

func TestWrapSinceInsertsHeaderBeforeFirstChild(t *testing.T) {
	cmds := rm.NewCommands()
	cmds.Add("router bgp 1")

	outer := cmds.Len()
	inner := cmds.Len()
	cmds.Add("dynamic-med interval 10", "table-policy tp1")
	assert.True(t, cmds.WrapSince(inner, "address-family ipv4 unicast"))
	assert.True(t, cmds.WrapSince(outer, "vrf vrf1"))

	assert.Equal(t, []string{
		"router bgp 1",
		"vrf vrf1",
		"address-family ipv4 unicast",
		"dynamic-med interval 10",
		"table-policy tp1",
	}, cmds.Lines())
}

func TestInsertAt(t *testing.T) {
	cmds := rm.NewCommands()
	cmds.Add("a", "c")
	cmds.InsertAt(1, "b")
	cmds.InsertAt(0, "start")
	cmds.InsertAt(10, "end")
	assert.Equal(t, []string{"start", "a", "b", "c", "end"}, cmds.Lines())
	assert.True(t, cmds.Changed(0))
	assert.False(t, cmds.Changed(5))
}
