package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/kballard/go-shellquote"
)

type line struct {
	text string
	err  error
}

// Shell reads one command per line from in until EOF, "quit", or ctx is done.
// It returns the exit code of the last command run. A canceled ctx returns
// ctx.Err() even while a read is blocked.
func (r *Runner) Shell(ctx context.Context, in io.Reader, prompt string) (int, error) {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := readLines(readCtx, in)
	last := 0
	for {
		if prompt != "" {
			fmt.Fprint(r.out, prompt)
		}
		var ln line
		var ok bool
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case ln, ok = <-lines:
		}
		if !ok {
			return last, nil
		}
		if ln.err != nil {
			return last, fmt.Errorf("read input: %w", ln.err)
		}
		if err := ctx.Err(); err != nil {
			return last, err
		}

		args, err := splitArgs(ln.text)
		if err != nil {
			r.fail(err.Error())
			last = 2
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return last, nil
		}
		last = r.Run(args)
		r.log.Debug("command", "args", args, "code", last)
	}
}

// readLines scans in on its own goroutine. The channel is closed at EOF; a
// scan error is delivered as the last value.
func readLines(ctx context.Context, in io.Reader) <-chan line {
	ch := make(chan line)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- line{text: sc.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case ch <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// splitArgs splits a line with POSIX shell quoting and escapes.
func splitArgs(s string) ([]string, error) {
	args, err := shellquote.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parse line: %w", err)
	}
	return args, nil
}
