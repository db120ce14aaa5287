package command

import "github.com/pyworkflow/dispatch/engine/manager"

// Style holds the invocation prefixes of one environment manager.
type Style struct {
	// Run prefixes a tool invocation.
	Run string
	// Sync installs the project with its dev dependencies.
	Sync string
	// Hooks invokes pre-commit.
	Hooks string
}

var styles = map[manager.Descriptor]Style{
	manager.UV: {
		Run:   "uv run",
		Sync:  "uv sync --all-extras",
		Hooks: "uv run pre-commit",
	},
	manager.Pip: {
		Run:   "python -m",
		Sync:  "python -m pip install --editable '.[dev]'",
		Hooks: "python -m pre_commit",
	},
}

// StyleFor returns the style of a descriptor.
func StyleFor(d manager.Descriptor) (Style, bool) {
	s, ok := styles[d]
	return s, ok
}
