package ui

import "github.com/Makepad-fr/tada/internal/model"

// EmptyMessage is shown in place of an empty list.
const EmptyMessage = "Seems like there's no tasks here..  try adding one!"

// Stats counts completed and pending todos.
func Stats(items []model.Todo) (done, pending int) {
	for _, it := range items {
		if it.IsComplete {
			done++
		} else {
			pending++
		}
	}
	return
}

// Truncate shortens s to n runes, ending in "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n > 3 && len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
