package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/cli"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

const usage = `Usage: todo [flags] [tui|shell|serve|help]

Commands:
  tui     full-screen list and editor (default)
  shell   read list commands from stdin, one per line
  serve   HTTP API with websocket watch and /metrics

Flags:
`

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	cfg, args, err := config.Load(fs, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "todo:", err)
		return 2
	}

	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if cmd == "help" {
		fs.SetOutput(os.Stdout)
		fs.Usage()
		return 0
	}

	ui.SetTheme(cfg.Theme)

	// The TUI owns the terminal: only log there when a file is configured.
	var fallback io.Writer = os.Stderr
	if cmd == "tui" {
		fallback = nil
	}
	logger, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		File:     cfg.LogFile,
		Fallback: fallback,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "todo:", err)
		return 1
	}
	defer logger.Close()
	if cfg.ConfigFile != "" {
		logger.Debug("config loaded", "file", cfg.ConfigFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []store.Option{store.WithLogger(logger.Logger)}
	if !cfg.Seed {
		opts = append(opts, store.WithoutSeed())
	}
	s := store.New(opts...)

	switch cmd {
	case "tui":
		if err := tui.Run(ctx, s, tui.WithLogger(logger.Logger)); err != nil {
			logger.Error("tui exited", "err", err)
			fmt.Fprintln(os.Stderr, "todo:", err)
			return 1
		}
		return 0

	case "shell":
		r := cli.NewRunner(s, os.Stdout, os.Stderr, cli.Options{Group: cfg.Group}, logger.Logger)
		code, err := r.Shell(ctx, os.Stdin, "> ")
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stdout)
			return code
		}
		if err != nil {
			logger.Error("shell stopped", "err", err)
			return 1
		}
		return code

	case "serve":
		srv := api.NewServer(s, api.WithLogger(logger.Logger), api.WithToken(cfg.Token))
		defer srv.Close()
		if err := srv.Run(ctx, cfg.Listen); err != nil {
			logger.Error("server stopped", "err", err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "todo: unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}
}
