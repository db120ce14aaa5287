package task

// Builtin names an in-process action that replaces command templates.
type Builtin string

const (
	BuiltinNone  Builtin = ""
	BuiltinClean Builtin = "clean"
)

// Task is a named unit of work.
type Task struct {
	Name        string
	Description string
	// Needs lists prerequisite task names in the order they run.
	Needs []string
	// Commands are text/template strings rendered per environment manager.
	Commands []string
	Builtin  Builtin
	// ForwardArgs appends the caller's trailing arguments to every command.
	ForwardArgs bool
}

// HasWork reports whether the task runs anything itself, as opposed to only
// aggregating prerequisites.
func (t Task) HasWork() bool {
	return len(t.Commands) > 0 || t.Builtin != BuiltinNone
}

const (
	Setup     = "setup"
	Lint      = "lint"
	Typecheck = "typecheck"
	Test      = "test"
	All       = "all"
	Clean     = "clean"
)

// Defaults returns the fixed task set of a Python project.
//
// Templates may reference .Run, .Sync, .Hooks, .Manager, .SourceDir and
// .TestDir, plus any sprig function and shquote.
func Defaults() []Task {
	return []Task{
		{
			Name:        Setup,
			Description: "Install project and dev dependencies, then install git hooks",
			Commands: []string{
				"{{ .Sync }}",
				"{{ .Hooks }} install",
			},
		},
		{
			Name:        Lint,
			Description: "Run the ruff linter and formatter check",
			Commands: []string{
				"{{ .Run }} ruff check {{ .SourceDir | shquote }} {{ .TestDir | shquote }}",
				"{{ .Run }} ruff format --check {{ .SourceDir | shquote }} {{ .TestDir | shquote }}",
			},
		},
		{
			Name:        Typecheck,
			Description: "Run mypy over the source tree",
			Commands: []string{
				"{{ .Run }} mypy {{ .SourceDir | shquote }}",
			},
		},
		{
			Name:        Test,
			Description: "Run pytest; arguments after -- are passed through",
			Commands: []string{
				"{{ .Run }} pytest {{ .TestDir | shquote }}",
			},
			ForwardArgs: true,
		},
		{
			Name:        All,
			Description: "Run lint, typecheck and test in sequence",
			Needs:       []string{Lint, Typecheck, Test},
		},
		{
			Name:        Clean,
			Description: "Remove tool caches and build artifacts",
			Builtin:     BuiltinClean,
		},
	}
}

// Default returns the registry built from Defaults.
func Default() *Registry {
	reg, err := NewRegistry(Defaults()...)
	if err != nil {
		panic(err)
	}
	return reg
}
