// Package repl implements the interactive read-eval-print loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/podhmo/monkey"
	"github.com/podhmo/monkey/internal/history"
	"github.com/podhmo/monkey/internal/logging"
)

// DefaultPrompt is shown when Config.Prompt is empty.
const DefaultPrompt = ">> "

// LineReader reads one line of input at a time. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Config holds the collaborators of a REPL session.
type Config struct {
	In     LineReader
	Out    io.Writer
	Prompt string
	// AST prints the canonical rendering of each line instead of evaluating it.
	AST bool
	// Options configure the session interpreter. The session is recreated
	// with the same options after an evaluation times out.
	Options []monkey.Option
	// Timeout bounds a single evaluation; zero means no limit.
	Timeout time.Duration
	// History records every evaluated line when set.
	History *history.Store
	Logger  *slog.Logger
}

// Start runs the loop until the input ends, the user types `exit`, or ctx is
// cancelled. Bindings persist from one line to the next.
func Start(ctx context.Context, cfg Config) error {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	s := &session{cfg: cfg, interp: monkey.NewInterpreter(cfg.Options...)}
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := cfg.In.Prompt(cfg.Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(cfg.Out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		source := strings.TrimSpace(line)
		if source == "" {
			continue
		}
		if source == "exit" {
			return nil
		}
		cfg.In.AppendHistory(line)

		text, isError := s.handle(ctx, source)
		if text != "" {
			io.WriteString(cfg.Out, text)
			if !strings.HasSuffix(text, "\n") {
				io.WriteString(cfg.Out, "\n")
			}
		}
		s.record(ctx, source, text, isError)
	}
}

type session struct {
	cfg    Config
	interp *monkey.Interpreter
}

// handle returns the text to print for one line of input.
func (s *session) handle(ctx context.Context, source string) (string, bool) {
	if s.cfg.AST {
		rendered, err := monkey.RenderAST(source)
		if err != nil {
			return monkey.Format(nil, err), true
		}
		return rendered, false
	}

	evalCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	obj, err := s.interp.Eval(evalCtx, source)
	var reason string
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timed out"
	case errors.Is(err, context.Canceled):
		reason = "canceled"
	}
	if reason != "" {
		s.cfg.Logger.WarnContext(ctx, "evaluation abandoned, starting a new session", "error", err)
		s.interp = monkey.NewInterpreter(s.cfg.Options...)
		return fmt.Sprintf("ERROR: evaluation %s (bindings were reset)", reason), true
	}
	return monkey.Format(obj, err), err != nil
}

func (s *session) record(ctx context.Context, source, result string, isError bool) {
	if s.cfg.History == nil {
		return
	}
	entry := history.Entry{Source: source, Result: result, IsError: isError}
	if err := s.cfg.History.Record(ctx, entry); err != nil {
		s.cfg.Logger.WarnContext(ctx, "failed to record history", "error", err)
	}
}
