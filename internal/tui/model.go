// Package tui is the single-screen Bubble Tea front end: a list of todos and
// a create/edit form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/form"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Option configures the TUI.
type Option func(*Model)

// WithLogger sets the logger. The terminal belongs to the program, so this
// should not write to stdout or stderr.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.log = l }
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, s *store.Store, opts ...Option) error {
	m := New(s, opts...)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

type mode int

const (
	modeList mode = iota
	modeForm
)

type field int

const (
	fieldTitle field = iota
	fieldDesc
)

// storeChangedMsg tells the model to re-read the store.
type storeChangedMsg struct{}

type keyMap struct {
	New, Edit, Toggle, Delete, Quit key.Binding
	Confirm, Cancel, NextField      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		New:       key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "complete")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Confirm:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		NextField: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
	}
}

// Model is the tea.Model for the app.
type Model struct {
	store  *store.Store
	editor *form.Editor
	log    *log.Logger
	keys   keyMap

	list    list.Model
	items   []model.Todo
	changes chan struct{}
	sub     store.Subscription

	mode    mode
	session *form.Session
	focus   field
	title   textinput.Model
	desc    textarea.Model
	status  string

	width, height int
}

// New builds the model and subscribes it to s. Call Close to unsubscribe.
func New(s *store.Store, opts ...Option) *Model {
	m := &Model{
		store:   s,
		editor:  form.NewEditor(s),
		log:     log.New(io.Discard),
		keys:    defaultKeys(),
		changes: make(chan struct{}, 1),
		width:   80,
		height:  24,
	}
	for _, opt := range opts {
		opt(m)
	}

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	extra := func() []key.Binding {
		return []key.Binding{m.keys.New, m.keys.Edit, m.keys.Toggle, m.keys.Delete, m.keys.Quit}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra
	m.list = l

	m.title = textinput.New()
	m.title.Prompt = ""
	m.title.Placeholder = "Task Title"
	m.title.CharLimit = 0

	m.desc = textarea.New()
	m.desc.Placeholder = "Task Description"
	m.desc.ShowLineNumbers = false
	m.desc.CharLimit = 0
	m.desc.SetHeight(6)

	// Coalesce: one pending signal is enough to trigger a full refresh.
	m.sub = s.Subscribe(func(store.Event) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})

	m.refresh()
	m.resize()
	return m
}

// Close unsubscribes from the store.
func (m *Model) Close() { m.store.Unsubscribe(m.sub) }

func (m *Model) Init() tea.Cmd { return waitForChange(m.changes) }

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return storeChangedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeForm {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	if m.mode == modeForm {
		return m.forwardToField(msg)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.New):
		return m, m.openForm(m.editor.BeginCreate())
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok {
			return m, m.openForm(m.editor.BeginEdit(t))
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			if _, err := m.store.ToggleComplete(t.ID); err != nil {
				m.report("toggle", err)
			}
			m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			if err := m.store.Delete(t.ID); err != nil {
				m.report("delete", err)
			}
			m.refresh()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.session.Cancel()
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m, m.confirm()
	case key.Matches(msg, m.keys.NextField):
		if m.focus == fieldTitle {
			return m, m.focusField(fieldDesc)
		}
		return m, m.focusField(fieldTitle)
	case m.focus == fieldTitle && msg.Type == tea.KeyEnter:
		if m.session.CanConfirm() {
			return m, m.focusField(fieldDesc)
		}
		return m, nil
	}
	return m.forwardToField(msg)
}

func (m *Model) forwardToField(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == fieldTitle {
		m.title, cmd = m.title.Update(msg)
		m.session.SetTitle(m.title.Value())
	} else {
		m.desc, cmd = m.desc.Update(msg)
		m.session.SetDescription(m.desc.Value())
	}
	return m, cmd
}

func (m *Model) openForm(s *form.Session) tea.Cmd {
	m.mode = modeForm
	m.session = s
	d := s.Draft()
	m.title.SetValue(d.Title)
	m.title.CursorEnd()
	m.desc.SetValue(d.Description)
	return m.focusField(fieldTitle)
}

func (m *Model) closeForm() {
	m.mode = modeList
	m.session = nil
	m.title.Blur()
	m.desc.Blur()
	m.title.SetValue("")
	m.desc.SetValue("")
}

func (m *Model) focusField(f field) tea.Cmd {
	m.focus = f
	if f == fieldTitle {
		m.desc.Blur()
		return m.title.Focus()
	}
	m.title.Blur()
	return m.desc.Focus()
}

// confirm commits the draft. An invalid draft leaves the form open.
func (m *Model) confirm() tea.Cmd {
	editing := m.session.IsEditing()
	t, err := m.session.Confirm()
	if err != nil {
		if errors.Is(err, form.ErrEmptyTitle) {
			return nil
		}
		m.report("save", err)
		m.closeForm()
		m.refresh()
		return nil
	}
	m.closeForm()
	m.refresh()
	if editing {
		m.status = "saved"
	} else {
		m.status = "created"
		m.list.Select(0)
	}
	m.log.Debug("draft committed", "id", t.ID, "editing", editing)
	return nil
}

func (m *Model) report(op string, err error) {
	m.status = fmt.Sprintf("%s: %v", op, err)
	if errors.Is(err, store.ErrNotFound) {
		m.log.Warn("todo vanished", "op", op, "err", err)
		return
	}
	m.log.Error("operation failed", "op", op, "err", err)
}

func (m *Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

// refresh re-reads the store and keeps the cursor on the same index.
func (m *Model) refresh() {
	m.items = m.store.ListAll()
	li := make([]list.Item, 0, len(m.items))
	for _, t := range m.items {
		li = append(li, listItem{todo: t})
	}
	idx := m.list.Index()
	m.list.SetItems(li)
	if idx >= len(li) {
		idx = len(li) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}

	d, p := ui.Stats(m.items)
	m.list.Title = fmt.Sprintf("Todos   %s %d  %s %d  %s %d",
		successStyle.Render("✔"), d,
		pendingStyle.Render("•"), p,
		accentStyle.Render("Total"), len(m.items),
	)
}

func (m *Model) resize() {
	w := m.width - 4
	h := m.height - 4 // panel border + progress line
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	m.list.SetSize(w, h)
	m.title.Width = w - 2
	m.desc.SetWidth(w)
}
