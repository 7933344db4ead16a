package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/form"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool // list grouped by pending/done
}

// Runner dispatches subcommands against one store.
type Runner struct {
	store  *store.Store
	editor *form.Editor
	out    io.Writer
	errOut io.Writer
	opt    Options
	log    *log.Logger
}

func NewRunner(s *store.Store, out, errOut io.Writer, opt Options, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		store:  s,
		editor: form.NewEditor(s),
		out:    out,
		errOut: errOut,
		opt:    opt,
		log:    logger,
	}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func (r *Runner) Run(args []string) int {
	if len(args) == 0 {
		r.PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		r.PrintHelp()
		return 0

	case "ls":
		return r.doList()

	case "add":
		if len(a) == 0 {
			r.fail("usage: add <title...> [-- <description...>]")
			return 2
		}
		title, desc, _ := splitDescription(a)
		return r.doAdd(title, desc)

	case "edit":
		if len(a) < 2 {
			r.fail("usage: edit <ref> <title...> [-- <description...>]")
			return 2
		}
		title, desc, hasDesc := splitDescription(a[1:])
		return r.doEdit(a[0], title, desc, hasDesc)

	case "done", "rm", "show":
		if len(a) != 1 {
			r.fail(fmt.Sprintf("usage: %s <ref>", cmd))
			return 2
		}
		switch cmd {
		case "done":
			return r.doToggle(a[0])
		case "rm":
			return r.doRemove(a[0])
		default:
			return r.doShow(a[0])
		}
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.errOut)
	r.PrintHelp()
	return 2
}

func (r *Runner) PrintHelp() {
	fmt.Fprint(r.out, `Commands:
  add <title...> [-- <description...>]        Add a new item at the top
  edit <ref> <title...> [-- <description...>] Replace title (and description)
  ls                                          List items
  show <ref>                                  Show one item in full
  done <ref>                                  Toggle done
  rm <ref>                                    Remove item
  help                                        Show this help
  quit                                        Leave the shell

<ref> is a 1-based index from ls or a full item id.

Examples:
  add Buy milk -- 2% please
  done 1
  edit 1 Buy oat milk
  rm 2
`)
}

// -------------- subcommand impls ----------------

func (r *Runner) doList() int {
	items := r.store.ListAll()

	// Header + progress
	d, p := ui.Stats(items)
	th := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(th.Title, "Todos"),
		ui.C(th.Success, th.SymDone), d,
		ui.C(th.Pending, th.SymUnchecked), p,
		ui.C(th.Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(th.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if r.opt.Group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items, 1)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(th.Muted, "Tip: add with `add Buy milk -- 2%`"))
	ui.Panel(r.out, lines)
	return 0
}

func (r *Runner) doAdd(title, desc string) int {
	s := r.editor.BeginCreate()
	s.SetTitle(title)
	s.SetDescription(desc)
	if _, err := s.Confirm(); err != nil {
		return r.report("add", err)
	}
	r.ok("added")
	return 0
}

func (r *Runner) doEdit(ref, title, desc string, hasDesc bool) int {
	t, code := r.resolve(ref)
	if code != 0 {
		return code
	}
	s := r.editor.BeginEdit(t)
	s.SetTitle(title)
	if hasDesc {
		s.SetDescription(desc)
	}
	if _, err := s.Confirm(); err != nil {
		return r.report("edit", err)
	}
	r.ok("updated")
	return 0
}

func (r *Runner) doToggle(ref string) int {
	t, code := r.resolve(ref)
	if code != 0 {
		return code
	}
	if _, err := r.store.ToggleComplete(t.ID); err != nil {
		return r.report("done", err)
	}
	r.ok("toggled")
	return 0
}

func (r *Runner) doRemove(ref string) int {
	t, code := r.resolve(ref)
	if code != 0 {
		return code
	}
	if err := r.store.Delete(t.ID); err != nil {
		return r.report("rm", err)
	}
	r.ok("removed")
	return 0
}

func (r *Runner) doShow(ref string) int {
	t, code := r.resolve(ref)
	if code != 0 {
		return code
	}
	th := ui.Current()
	box, state := th.BoxUnchecked, "pending"
	if t.IsComplete {
		box, state = th.BoxChecked, "done"
	}
	ui.Panel(r.out, []string{
		ui.C(th.Title, box+" "+t.Title),
		"",
		orPlaceholder(t.Description),
		"",
		ui.C(th.Muted, "id       "+t.ID.String()),
		ui.C(th.Muted, "state    "+state),
		ui.C(th.Muted, "created  "+t.DateCreated.Format(time.DateTime)),
		ui.C(th.Muted, "updated  "+t.DateUpdated.Format(time.DateTime)),
	})
	return 0
}

// resolve maps a 1-based index or a full id to a stored todo.
func (r *Runner) resolve(ref string) (model.Todo, int) {
	if n, err := strconv.Atoi(ref); err == nil {
		items := r.store.ListAll()
		if n < 1 || n > len(items) {
			r.fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), n))
			fmt.Fprintln(r.errOut, ui.C(ui.Current().Muted, "Hint: run `ls` to see valid indexes"))
			return model.Todo{}, 2
		}
		return items[n-1], 0
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		r.fail("not an index or id: " + ref)
		return model.Todo{}, 2
	}
	t, err := r.store.Get(id)
	if err != nil {
		return model.Todo{}, r.report("lookup", err)
	}
	return t, 0
}

// report maps store and validation errors to exit codes.
func (r *Runner) report(op string, err error) int {
	switch {
	case errors.Is(err, form.ErrEmptyTitle):
		r.fail(op + ": " + form.Reason(err))
		return 2
	case errors.Is(err, store.ErrNotFound):
		r.log.Debug("command on missing todo", "op", op, "err", err)
		r.fail(op + ": " + err.Error())
		return 1
	}
	r.log.Error("command failed", "op", op, "err", err)
	r.fail(op + ": " + err.Error())
	return 1
}

func (r *Runner) ok(msg string)   { ui.OK(r.out, msg) }
func (r *Runner) fail(msg string) { ui.Fail(r.errOut, msg) }

// splitDescription splits args at a lone "--" into title and description.
func splitDescription(args []string) (title, desc string, hasDesc bool) {
	for i, a := range args {
		if a == "--" {
			return strings.Join(args[:i], " "), strings.Join(args[i+1:], " "), true
		}
	}
	return strings.Join(args, " "), "", false
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return ui.C(ui.Current().Muted, "(no description)")
	}
	return s
}
