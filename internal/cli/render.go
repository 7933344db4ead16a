package cli

import (
	"fmt"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// -------------- rendering helpers --------------

type indexed struct {
	n    int // 1-based position in the full list
	todo model.Todo
}

// flatLines renders items numbered from start.
func flatLines(items []model.Todo, start int) []string {
	rows := make([]indexed, len(items))
	for i, it := range items {
		rows[i] = indexed{n: start + i, todo: it}
	}
	return rowLines(rows, ui.EmptyMessage)
}

func rowLines(rows []indexed, empty string) []string {
	th := ui.Current()
	if len(rows) == 0 {
		return []string{ui.C(th.Muted, empty)}
	}
	out := make([]string, 0, len(rows)*2)
	for _, r := range rows {
		idx := fmt.Sprintf("%2d.", r.n)
		box, color := th.BoxUnchecked, th.Muted
		title := ui.Truncate(r.todo.Title, 80)
		if r.todo.IsComplete {
			box, color = th.BoxChecked, th.Success
			title = ui.C(ui.Strike, title)
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.C(ui.Dim, idx), ui.C(color, box), title))
		if r.todo.Description != "" {
			out = append(out, "       "+ui.C(th.Muted, ui.Truncate(r.todo.Description, 76)))
		}
	}
	return out
}

func groupLines(items []model.Todo) []string {
	if len(items) == 0 {
		return []string{ui.C(ui.Current().Muted, ui.EmptyMessage)}
	}
	var pend, done []indexed
	for i, it := range items {
		if it.IsComplete {
			done = append(done, indexed{n: i + 1, todo: it})
		} else {
			pend = append(pend, indexed{n: i + 1, todo: it})
		}
	}
	th := ui.Current()
	var lines []string
	lines = append(lines, ui.C(th.Accent, "Pending"))
	lines = append(lines, rowLines(pend, "(none)")...)
	lines = append(lines, "")
	lines = append(lines, ui.C(th.Accent, "Done"))
	lines = append(lines, rowLines(done, "(none)")...)
	return lines
}
