package autopark

import (
	"fmt"
	"slices"
)

// commandKind identifies a staged command
type commandKind int

const (
	cmdStart commandKind = iota
	cmdClick
	cmdConfirm
	cmdReset
	numCommands
)

// String returns the command name
func (k commandKind) String() string {
	switch k {
	case cmdStart:
		return "start"
	case cmdClick:
		return "click"
	case cmdConfirm:
		return "confirm"
	case cmdReset:
		return "reset"
	default:
		return "unknown"
	}
}

// command is a staged caller intent
type command struct {
	kind commandKind
	// x, y are the click coordinates in frame pixels
	x, y int
	// seq is the arrival order
	seq uint64
}

// String returns a description of the command for logs and the journal
func (c command) String() string {
	if c.kind == cmdClick {
		return fmt.Sprintf("click %d,%d", c.x, c.y)
	}
	return c.kind.String()
}

// mailbox holds at most one staged command of each kind.  A newer command
// of a kind replaces the older one, commands of different kinds are drained
// in the order they arrived.
type mailbox struct {
	slots [numCommands]*command
	seq   uint64
}

// put stages the command
func (m *mailbox) put(c command) {
	m.seq++
	c.seq = m.seq
	m.slots[c.kind] = &c
}

// drain returns the staged commands in arrival order and empties the
// mailbox
func (m *mailbox) drain() []command {

	var out []command

	for i, c := range m.slots {
		if c != nil {
			out = append(out, *c)
			m.slots[i] = nil
		}
	}

	slices.SortFunc(out, func(a, b command) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})

	return out
}
