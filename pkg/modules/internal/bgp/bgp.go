// Package bgp holds what the router bgp modules share: the process header,
// the stanza rules that open a context, and the context helpers their
// grammars place values with.
package bgp

import (
	"regexp"

	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

// Header returns the "router bgp ASN" line for a run. It returns "" when
// neither side names an AS, which only happens when there is nothing to do.
func Header(r *rm.Run) (string, error) {
	want, have := r.Want.Str("as_number"), r.Have.Str("as_number")
	switch {
	case want != "" && have != "" && want != have:
		return "", rm.Errorf(rm.KindInput, "as_number %s does not match the running process %s", want, have)
	case want != "":
		return "router bgp " + want, nil
	case have != "":
		return "router bgp " + have, nil
	case len(r.Want.Without("as_number")) > 0:
		return "", rm.Errorf(rm.KindInput, "as_number is required")
	}
	return "", nil
}

// AFHeader is the address-family line of af.
func AFHeader(af tree.Tree) string {
	return "address-family " + af.Str("afi") + " " + af.Str("safi")
}

// Context rules. Each opens a scope for the lines indented below it.
var (
	Router = grammar.Rule{
		Name:   "router_bgp",
		Re:     regexp.MustCompile(`^router bgp (?P<asn>\S+)$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return tree.Tree{"as_number": m.Get("asn")}
		},
	}
	NeighborGroup = regexp.MustCompile(`^neighbor-group (?P<group>\S+)$`)
	VRF           = regexp.MustCompile(`^vrf (?P<vrf>\S+)$`)
	Neighbor      = regexp.MustCompile(`^neighbor (?P<neighbor>\S+)$`)
	AddressFamily = regexp.MustCompile(`^address-family (?P<afi>\S+) (?P<safi>\S+)$`)
)

// Scope is where a line sits inside router bgp.
type Scope struct {
	VRF      string
	Neighbor string
	Group    string
	AFI      string
	SAFI     string
}

// ScopeOf reads the scope from the captures of a match. It reports false
// outside router bgp.
func ScopeOf(m grammar.Match) (Scope, bool) {
	if !m.Has("asn") {
		return Scope{}, false
	}
	return Scope{
		VRF:      m.Get("vrf"),
		Neighbor: m.Get("neighbor"),
		Group:    m.Get("group"),
		AFI:      m.Get("afi"),
		SAFI:     m.Get("safi"),
	}, true
}

// InAF reports whether the scope is inside an address family.
func (s Scope) InAF() bool { return s.AFI != "" }

// AF returns the address-family entity identity for the scope.
func (s Scope) AF() tree.Tree {
	return tree.Tree{"afi": s.AFI, "safi": s.SAFI}
}

// AFKey is the raw grammar key of the scope's address family.
func (s Scope) AFKey() string {
	return s.AFI + "_" + s.SAFI
}
