package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newTestRunner(t *testing.T, opt Options) (*Runner, *store.Store, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	ui.SetTheme("mono")
	t.Cleanup(func() { ui.SetTheme("classic") })
	s := store.New()
	var out, errOut bytes.Buffer
	return NewRunner(s, &out, &errOut, opt, nil), s, &out, &errOut
}

func TestRunAdd(t *testing.T) {
	r, s, out, _ := newTestRunner(t, Options{})

	code := r.Run([]string{"add", "Buy", "milk", "--", "2%", "please"})
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "added")

	first := s.ListAll()[0]
	assert.Equal(t, "Buy milk", first.Title)
	assert.Equal(t, "2% please", first.Description)
	assert.Equal(t, 2, s.Len())
}

func TestRunAddEmptyTitle(t *testing.T) {
	r, s, _, errOut := newTestRunner(t, Options{})

	code := r.Run([]string{"add", "   ", "--", "desc"})
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut.String(), "Title cannot be empty.")
	assert.Equal(t, 1, s.Len())

	assert.Equal(t, 2, r.Run([]string{"add"}))
}

func TestRunToggleAndRemove(t *testing.T) {
	r, s, _, errOut := newTestRunner(t, Options{})
	seed := s.ListAll()[0]

	require.Equal(t, 0, r.Run([]string{"done", "1"}))
	got, err := s.Get(seed.ID)
	require.NoError(t, err)
	assert.True(t, got.IsComplete)

	require.Equal(t, 0, r.Run([]string{"rm", seed.ID.String()}))
	assert.Equal(t, 0, s.Len())

	assert.Equal(t, 1, r.Run([]string{"rm", seed.ID.String()}), "missing id is an operation error")
	assert.Contains(t, errOut.String(), "todo not found")

	assert.Equal(t, 2, r.Run([]string{"done", "1"}), "index out of range is a usage error")
	assert.Equal(t, 2, r.Run([]string{"done", "abc"}))
	assert.Equal(t, 2, r.Run([]string{"done"}))
}

func TestRunEdit(t *testing.T) {
	r, s, _, _ := newTestRunner(t, Options{})
	seed := s.ListAll()[0]

	require.Equal(t, 0, r.Run([]string{"edit", "1", "Renamed"}))
	got, err := s.Get(seed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, seed.Description, got.Description, "description kept without --")

	require.Equal(t, 0, r.Run([]string{"edit", "1", "Renamed", "--"}))
	got, _ = s.Get(seed.ID)
	assert.Equal(t, "", got.Description)

	assert.Equal(t, 2, r.Run([]string{"edit", "1", " "}))
	got, _ = s.Get(seed.ID)
	assert.Equal(t, "Renamed", got.Title)
}

func TestRunList(t *testing.T) {
	r, s, out, _ := newTestRunner(t, Options{})
	_, err := s.Create("Buy milk", "2%")
	require.NoError(t, err)
	require.Equal(t, 0, r.Run([]string{"done", "2"}))
	out.Reset()

	require.Equal(t, 0, r.Run([]string{"ls"}))
	text := out.String()
	assert.Contains(t, text, " 1. [ ] Buy milk")
	assert.Contains(t, text, " 2. [x] Testing Task.")
	assert.Contains(t, text, "Total 2")
	assert.Less(t, strings.Index(text, "Buy milk"), strings.Index(text, "Testing Task."))
}

func TestRunListGroupedKeepsIndexes(t *testing.T) {
	r, s, out, _ := newTestRunner(t, Options{Group: true})
	_, err := s.Create("Buy milk", "")
	require.NoError(t, err)
	require.Equal(t, 0, r.Run([]string{"done", "1"}))
	out.Reset()

	require.Equal(t, 0, r.Run([]string{"ls"}))
	text := out.String()
	assert.Less(t, strings.Index(text, "Pending"), strings.Index(text, " 2. [ ] Testing Task."))
	assert.Less(t, strings.Index(text, "Done"), strings.Index(text, " 1. [x] Buy milk"))
}

func TestRunListEmpty(t *testing.T) {
	r, s, out, _ := newTestRunner(t, Options{})
	require.NoError(t, s.Delete(s.ListAll()[0].ID))

	require.Equal(t, 0, r.Run([]string{"ls"}))
	assert.Contains(t, out.String(), "Seems like there's no tasks here..  try adding one!")
}

func TestRunShowAndUnknown(t *testing.T) {
	r, s, out, errOut := newTestRunner(t, Options{})
	seed := s.ListAll()[0]

	require.Equal(t, 0, r.Run([]string{"show", "1"}))
	assert.Contains(t, out.String(), seed.ID.String())
	assert.Contains(t, out.String(), "This is a testing task!")

	assert.Equal(t, 2, r.Run([]string{"frobnicate"}))
	assert.Contains(t, errOut.String(), "unknown subcommand: frobnicate")
	assert.Equal(t, 0, r.Run([]string{"help"}))
}

func TestShellScenario(t *testing.T) {
	r, s, _, _ := newTestRunner(t, Options{})
	input := strings.Join([]string{
		`add "Buy milk" -- 2%`,
		`rm 2`,
		``,
		`done 1`,
		`add "   "`,
		`quit`,
		`add never reached`,
	}, "\n")

	code, err := r.Shell(context.Background(), strings.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, 2, code, "last command before quit was an invalid add")

	all := s.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, "Buy milk", all[0].Title)
	assert.True(t, all[0].IsComplete)
}

func TestShellCanceled(t *testing.T) {
	r, s, _, _ := newTestRunner(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Shell(ctx, strings.NewReader("add x\n"), "> ")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.Len())
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "add Buy milk", want: []string{"add", "Buy", "milk"}},
		{line: `add "Buy  milk" -- 'two words'`, want: []string{"add", "Buy  milk", "--", "two words"}},
		{line: `add ""`, want: []string{"add", ""}},
		{line: `add it\'s done`, want: []string{"add", "it's", "done"}},
		{line: `add "say \"hi\"" -- a\ b`, want: []string{"add", `say "hi"`, "--", "a b"}},
		{line: "add Fix bug #42", want: []string{"add", "Fix", "bug", "#42"}},
		{line: "   ", want: nil},
		{line: `add "oops`, wantErr: true},
		{line: `add 'oops`, wantErr: true},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.line)
		if tt.wantErr {
			assert.Error(t, err, tt.line)
			continue
		}
		require.NoError(t, err, tt.line)
		if tt.want == nil {
			assert.Empty(t, got, tt.line)
			continue
		}
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestShellEscapedQuote(t *testing.T) {
	r, s, _, _ := newTestRunner(t, Options{})
	code, err := r.Shell(context.Background(), strings.NewReader(`add it\'s done -- don\'t wait`+"\n"), "")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "it's done", s.ListAll()[0].Title)
	assert.Equal(t, "don't wait", s.ListAll()[0].Description)
}

func TestShellStopsWhileReadBlocks(t *testing.T) {
	r, _, _, _ := newTestRunner(t, Options{})
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Shell(ctx, pr, "")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not return after cancel")
	}
}
