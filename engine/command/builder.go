package command

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/alessio/shellescape"
	"github.com/google/shlex"
	"github.com/pyworkflow/dispatch/engine/manager"
	"github.com/pyworkflow/dispatch/engine/task"
)

// Paths are the project directories exposed to templates.
type Paths struct {
	Source string
	Tests  string
}

// Builder renders task templates into commands. Rendering is pure and
// deterministic for a given task, descriptor and argument list.
type Builder struct {
	paths Paths
}

func NewBuilder(paths Paths) *Builder {
	return &Builder{paths: paths}
}

// Build renders every command of t for descriptor d. Trailing args are
// appended verbatim to each command of a task that forwards arguments and
// ignored for all other tasks.
func (b *Builder) Build(t task.Task, d manager.Descriptor, args []string) ([]Command, error) {
	if t.Builtin != task.BuiltinNone {
		return []Command{{Task: t.Name, Builtin: t.Builtin}}, nil
	}
	values, err := b.values(d)
	if err != nil {
		return nil, err
	}
	cmds := make([]Command, 0, len(t.Commands))
	for i, tmpl := range t.Commands {
		argv, err := render(fmt.Sprintf("%s[%d]", t.Name, i), tmpl, values)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", t.Name, err)
		}
		if t.ForwardArgs && len(args) > 0 {
			argv = append(argv, args...)
		}
		cmds = append(cmds, Command{Task: t.Name, Argv: argv})
	}
	return cmds, nil
}

// BuildAll renders a resolved chain in order.
func (b *Builder) BuildAll(tasks []task.Task, d manager.Descriptor, args []string) ([]Command, error) {
	var out []Command
	for _, t := range tasks {
		cmds, err := b.Build(t, d, args)
		if err != nil {
			return nil, err
		}
		out = append(out, cmds...)
	}
	return out, nil
}

// Validate renders every task of reg for every supported descriptor so a
// template referencing an unknown value fails before anything runs.
func (b *Builder) Validate(reg *task.Registry) error {
	for _, d := range manager.All() {
		for _, t := range reg.Tasks() {
			if _, err := b.Build(t, d, nil); err != nil {
				return fmt.Errorf("manager %s: %w", d, err)
			}
		}
	}
	return nil
}

func (b *Builder) values(d manager.Descriptor) (map[string]any, error) {
	style, ok := StyleFor(d)
	if !ok {
		return nil, fmt.Errorf("no command style for environment manager %q", d)
	}
	return map[string]any{
		"Run":       style.Run,
		"Sync":      style.Sync,
		"Hooks":     style.Hooks,
		"Manager":   d.String(),
		"SourceDir": b.paths.Source,
		"TestDir":   b.paths.Tests,
	}, nil
}

// funcMap is sprig plus shquote, which escapes embedded single quotes so
// any path survives tokenizing as one argument.
func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["shquote"] = shellescape.Quote
	return funcs
}

func render(name, tmplStr string, values map[string]any) ([]string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(funcMap()).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return nil, fmt.Errorf("template execution error: %w", err)
	}
	argv, err := shlex.Split(buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to split command %q: %w", buf.String(), err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("template %s rendered an empty command", name)
	}
	return argv, nil
}
