package rm

import "strings"

// Mode is the requested reconciliation state.
type Mode string

const (
	Merged     Mode = "merged"
	Replaced   Mode = "replaced"
	Overridden Mode = "overridden"
	Deleted    Mode = "deleted"
	Rendered   Mode = "rendered"
	Gathered   Mode = "gathered"
	Parsed     Mode = "parsed"
)

// Modes lists every mode in documentation order.
var Modes = []Mode{Merged, Replaced, Overridden, Deleted, Rendered, Gathered, Parsed}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", Errorf(KindInput, "unknown state %q (want one of %s)", s, modeList())
}

// Online reports whether the mode needs the device's running config.
func (m Mode) Online() bool {
	switch m {
	case Rendered, Parsed:
		return false
	}
	return true
}

// Configures reports whether the mode produces commands to push.
func (m Mode) Configures() bool {
	switch m {
	case Merged, Replaced, Overridden, Deleted:
		return true
	}
	return false
}

// Negates reports whether have-only entities are torn down.
func (m Mode) Negates() bool {
	return m == Overridden || m == Deleted
}

func modeList() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ",")
}
