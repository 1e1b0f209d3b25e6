// Package transport reads running configuration from and pushes commands to
// IOS-XR devices, over SSH or from local files.
package transport

import (
	"strings"
)

// Scopes splits a module scope into its top-level prefixes. Scopes with
// several prefixes are comma separated, e.g. "ipv4 prefix-list,ipv6 prefix-list".
func Scopes(scope string) []string {
	var out []string
	for _, s := range strings.Split(scope, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Section extracts the top-level stanzas of text whose first line starts
// with one of the scope prefixes, together with their indented children.
// An empty scope returns text unchanged.
func Section(text, scope string) string {
	prefixes := Scopes(scope)
	if len(prefixes) == 0 {
		return text
	}
	var b strings.Builder
	in := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == "" {
			continue
		}
		topLevel := trimmed[0] != ' ' && trimmed[0] != '\t'
		if topLevel {
			in = false
			for _, p := range prefixes {
				if trimmed == p || strings.HasPrefix(trimmed, p+" ") {
					in = true
					break
				}
			}
		}
		if in {
			b.WriteString(trimmed)
			b.WriteString("\n")
		}
	}
	return b.String()
}
