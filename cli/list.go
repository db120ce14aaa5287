package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pyworkflow/dispatch/engine/manager"
	"github.com/pyworkflow/dispatch/engine/task"
)

type listStyles struct {
	header lipgloss.Style
	name   lipgloss.Style
	desc   lipgloss.Style
	needs  lipgloss.Style
}

func newListStyles(color bool, nameWidth int) listStyles {
	s := listStyles{
		header: lipgloss.NewStyle(),
		name:   lipgloss.NewStyle().Width(nameWidth + 2),
		desc:   lipgloss.NewStyle(),
		needs:  lipgloss.NewStyle(),
	}
	if color {
		s.header = s.header.Bold(true)
		s.name = s.name.Foreground(lipgloss.Color("86")).Bold(true)
		s.needs = s.needs.Foreground(lipgloss.Color("245"))
	}
	return s
}

// printTasks writes the available tasks in registry order, followed by the
// environment manager commands would be rendered for.
func printTasks(w io.Writer, reg *task.Registry, desc manager.Descriptor, color bool) error {
	width := 0
	for _, name := range reg.Names() {
		width = max(width, len(name))
	}
	styles := newListStyles(color, width)

	var b strings.Builder
	b.WriteString(styles.header.Render("Available tasks:"))
	b.WriteByte('\n')
	for _, t := range reg.Tasks() {
		b.WriteString("  ")
		b.WriteString(styles.name.Render(t.Name))
		b.WriteString(styles.desc.Render(t.Description))
		if len(t.Needs) > 0 {
			b.WriteString(styles.needs.Render(" (runs " + strings.Join(t.Needs, ", ") + ")"))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(styles.needs.Render(fmt.Sprintf("Environment manager: %s", desc)))
	b.WriteByte('\n')
	b.WriteString("Usage: dispatch <task> [-- args]\n")
	_, err := io.WriteString(w, b.String())
	return err
}
