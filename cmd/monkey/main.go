package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/podhmo/monkey"
	"github.com/podhmo/monkey/internal/config"
	"github.com/podhmo/monkey/internal/history"
	"github.com/podhmo/monkey/internal/logging"
	"github.com/podhmo/monkey/repl"
	"github.com/podhmo/monkey/server"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv); err != nil {
		log.Fatalf("Error: %+v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) error {
	cfg, files, err := config.Parse("monkey", args, lookupEnv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := logging.New(stderr, cfg.Level())

	var store *history.Store
	if cfg.Database != "" {
		store, err = history.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	switch cfg.Mode {
	case "repl":
		return runREPL(ctx, cfg, stdout, logger, store)
	case "api":
		s := server.New(
			server.WithLogger(logger),
			server.WithStdout(stdout),
			server.WithTimeout(cfg.EvalTimeout.Duration),
			server.WithHistory(store),
		)
		return s.Run(ctx, cfg.Addr)
	case "run":
		return runFiles(ctx, files, stdout, logger, cfg.EvalTimeout.Duration)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func runREPL(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger, store *history.Store) error {
	name := "there"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	fmt.Fprintf(stdout, "Hello %s! This is the Monkey programming language!\n", name)
	fmt.Fprintf(stdout, "Feel free to type in commands\n")

	ln := repl.NewLiner(cfg.HistoryFile)
	defer func() {
		if err := ln.Close(); err != nil {
			logger.WarnContext(ctx, "closing terminal", "error", err)
		}
	}()

	return repl.Start(ctx, repl.Config{
		In:      ln,
		Out:     stdout,
		Prompt:  cfg.Prompt,
		AST:     cfg.AST,
		Options: []monkey.Option{monkey.WithStdout(stdout), monkey.WithLogger(logger)},
		Timeout: cfg.EvalTimeout.Duration,
		History: store,
		Logger:  logger,
	})
}

type fileResult struct {
	output string
	failed bool
}

// lockedBuffer collects a script's output. An evaluation abandoned on timeout
// may still be writing to it while the result is assembled.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runFiles evaluates each file concurrently in its own environment and prints
// the outputs in argument order.
func runFiles(ctx context.Context, files []string, stdout io.Writer, logger *slog.Logger, timeout time.Duration) error {
	if len(files) == 0 {
		return errors.New("run mode needs at least one file")
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			results[i] = runFile(gctx, file, logger, timeout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, r := range results {
		if len(files) > 1 {
			fmt.Fprintf(stdout, "==> %s <==\n", files[i])
		}
		io.WriteString(stdout, r.output)
		if r.failed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(files))
	}
	return nil
}

func runFile(ctx context.Context, file string, logger *slog.Logger, timeout time.Duration) fileResult {
	source, err := os.ReadFile(file)
	if err != nil {
		return fileResult{output: fmt.Sprintf("ERROR: %v\n", err), failed: true}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := &lockedBuffer{}
	interp := monkey.NewInterpreter(monkey.WithStdout(out), monkey.WithLogger(logger.With("file", file)))
	obj, err := interp.Eval(ctx, string(source))
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("evaluation timed out after %s", timeout)
	}
	if text := monkey.Format(obj, err); text != "" {
		if text[len(text)-1] != '\n' {
			text += "\n"
		}
		io.WriteString(out, text)
	}
	if err != nil {
		logger.DebugContext(ctx, "script failed", "error", err)
	}
	return fileResult{output: out.String(), failed: err != nil}
}
