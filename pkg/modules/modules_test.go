package modules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrctl/pkg/rm"
)

func TestLookup(t *testing.T) {
	m, err := Lookup("bgp_address_family")
	require.NoError(t, err)
	assert.Equal(t, "router bgp", m.Scope)

	_, err = Lookup("route_maps")
	require.Error(t, err)
	assert.Equal(t, rm.KindInput, rm.KindOf(err))
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 14)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "l2_interfaces")
}

// Every module is complete and ships a well-formed argument spec.
func TestCatalogue(t *testing.T) {
	for _, m := range All() {
		t.Run(m.Name, func(t *testing.T) {
			assert.NotEmpty(t, m.Scope)
			assert.NotNil(t, m.Grammar)
			assert.NotNil(t, m.Comparator)
			var spec map[string]any
			require.NoError(t, json.Unmarshal([]byte(m.ArgSpec), &spec))
			assert.Equal(t, "object", spec["type"])
		})
	}
}

// Deleting against an empty device never produces commands.
func TestDeletedOnEmptyDevice(t *testing.T) {
	for _, m := range All() {
		t.Run(m.Name, func(t *testing.T) {
			have, err := m.Parse("")
			require.NoError(t, err)
			got, err := m.GenerateCommands(nil, have, rm.Deleted)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}
