package command

import (
	"github.com/alessio/shellescape"
	"github.com/pyworkflow/dispatch/engine/task"
)

// Command is one rendered unit of work: either a child process argv or a
// builtin action.
type Command struct {
	Task    string
	Argv    []string
	Builtin task.Builtin
}

// IsBuiltin reports whether the command runs in-process.
func (c Command) IsBuiltin() bool {
	return c.Builtin != task.BuiltinNone
}

// String renders a shell-quoted display line.
func (c Command) String() string {
	if c.IsBuiltin() {
		return "<builtin:" + string(c.Builtin) + ">"
	}
	return shellescape.QuoteCommand(c.Argv)
}
