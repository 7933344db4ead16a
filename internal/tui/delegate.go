package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// listItem adapts model.Todo to bubbles/list.Item.
type listItem struct {
	todo model.Todo
}

func (i listItem) FilterValue() string { return i.todo.Title }

// itemDelegate renders each todo as a title row and a description row.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 2 }
func (d itemDelegate) Spacing() int                              { return 1 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	width := m.Width() - 4
	if width < 10 {
		width = 10
	}

	box := mutedStyle.Render(boxUnchecked)
	text := ui.Truncate(it.todo.Title, width)
	if it.todo.IsComplete {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	desc := ui.Truncate(strings.ReplaceAll(it.todo.Description, "\n", " "), width)
	if it.todo.IsComplete {
		desc = doneStyle.Render(desc)
	} else {
		desc = mutedStyle.Render(desc)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render(">") + " "
	}
	fmt.Fprintf(w, "%s%s %s\n  %s", prefix, box, text, desc)
}
