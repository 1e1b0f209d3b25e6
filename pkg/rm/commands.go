package rm

// Commands accumulates rendered commands for one run. Callers record a
// begin marker with Len before a sub-scope and call WrapSince afterwards to
// prefix the sub-scope with its header only when it produced commands.
type Commands struct {
	lines []string
}

// NewCommands returns an empty command list.
func NewCommands() *Commands {
	return &Commands{}
}

// Len returns the number of commands, usable as a begin marker.
func (c *Commands) Len() int {
	return len(c.lines)
}

// Add appends commands.
func (c *Commands) Add(lines ...string) {
	c.lines = append(c.lines, lines...)
}

// InsertAt inserts commands at index i, shifting later commands.
func (c *Commands) InsertAt(i int, lines ...string) {
	if i >= len(c.lines) {
		c.lines = append(c.lines, lines...)
		return
	}
	tail := append([]string(nil), c.lines[i:]...)
	c.lines = append(append(c.lines[:i], lines...), tail...)
}

// Changed reports whether commands were added since begin.
func (c *Commands) Changed(begin int) bool {
	return len(c.lines) != begin
}

// WrapSince inserts header at begin when commands were added since begin.
// It reports whether the header was inserted.
func (c *Commands) WrapSince(begin int, header ...string) bool {
	if !c.Changed(begin) {
		return false
	}
	c.InsertAt(begin, header...)
	return true
}

// Lines returns a copy of the commands.
func (c *Commands) Lines() []string {
	return append([]string(nil), c.lines...)
}
