// Package modules is the catalogue of resource modules.
package modules

import (
	"sort"

	"xrctl/pkg/modules/bgpaddressfamily"
	"xrctl/pkg/modules/bgpglobal"
	"xrctl/pkg/modules/bgpneighboraf"
	"xrctl/pkg/modules/bgptemplates"
	"xrctl/pkg/modules/hostname"
	"xrctl/pkg/modules/interfaces"
	"xrctl/pkg/modules/l2interfaces"
	"xrctl/pkg/modules/l3interfaces"
	"xrctl/pkg/modules/lacp"
	"xrctl/pkg/modules/lldpglobal"
	"xrctl/pkg/modules/loggingglobal"
	"xrctl/pkg/modules/ospfv2"
	"xrctl/pkg/modules/prefixlists"
	"xrctl/pkg/modules/vrfs"
	"xrctl/pkg/rm"
)

var catalogue = map[string]*rm.Module{}

func init() {
	for _, m := range []*rm.Module{
		hostname.Module,
		lacp.Module,
		lldpglobal.Module,
		interfaces.Module,
		l2interfaces.Module,
		l3interfaces.Module,
		vrfs.Module,
		loggingglobal.Module,
		ospfv2.Module,
		prefixlists.Module,
		bgpglobal.Module,
		bgpaddressfamily.Module,
		bgpneighboraf.Module,
		bgptemplates.Module,
	} {
		catalogue[m.Name] = m
	}
}

// Lookup returns the module registered under name.
func Lookup(name string) (*rm.Module, error) {
	m, ok := catalogue[name]
	if !ok {
		return nil, rm.Errorf(rm.KindInput, "unknown module %q", name)
	}
	return m, nil
}

// Names returns the registered module names in order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for n := range catalogue {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every module, ordered by name.
func All() []*rm.Module {
	out := make([]*rm.Module, 0, len(catalogue))
	for _, n := range Names() {
		out = append(out, catalogue[n])
	}
	return out
}
