package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/ui"
)

func (m *Model) View() string {
	if m.mode == modeForm {
		return panelStyle.Render(m.formView())
	}
	return panelStyle.Render(m.listView())
}

func (m *Model) listView() string {
	d, _ := ui.Stats(m.items)
	progress := mutedStyle.Render(fmt.Sprintf("%s  %d/%d", ui.ProgressBar(d, len(m.items), 28), d, len(m.items)))

	var body string
	if len(m.items) == 0 {
		body = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.list.Title),
			"",
			mutedStyle.Render(ui.EmptyMessage),
			"",
			helpStyle.Render("n new • q quit"),
		)
	} else {
		body = m.list.View()
	}

	lines := []string{progress, body}
	if m.status != "" {
		lines = append(lines, mutedStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) formView() string {
	heading := "New task"
	action := "Create"
	if m.session.IsEditing() {
		heading = "Edit task"
		action = "Save"
	}

	button := buttonStyle.Render(action)
	if !m.session.CanConfirm() {
		button = disabledStyle.Render(action)
	}

	errLine := ""
	if msg := m.session.Error(); msg != "" {
		errLine = errorStyle.Render(msg)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(heading),
		"",
		m.title.View(),
		errLine,
		mutedStyle.Render(strings.Repeat("─", max(m.title.Width, 10))),
		m.desc.View(),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, button, "  ", helpStyle.Render("ctrl+s "+strings.ToLower(action)+" • tab switch field • esc cancel")),
	)
}
