// Package monkey evaluates monkey source text.
//
// The Interpreter ties the lexer, parser and evaluator together and keeps one
// session environment so that bindings survive across calls, which is what a
// REPL needs. Hosts that want isolation create one Interpreter per request.
package monkey

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/iancoleman/orderedmap"
	"github.com/podhmo/monkey/ast"
	"github.com/podhmo/monkey/evaluator"
	"github.com/podhmo/monkey/internal/logging"
	"github.com/podhmo/monkey/object"
	"github.com/podhmo/monkey/parser"
)

// Interpreter evaluates source text in a session environment.
// It is not safe for concurrent use.
type Interpreter struct {
	env      *object.Environment
	stdout   io.Writer
	logger   *slog.Logger
	maxDepth int
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithStdout sets the writer used by `puts`.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stdout = w
	}
}

// WithLogger sets the logger passed to the evaluator.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithEnvironment evaluates in env instead of a fresh root environment.
func WithEnvironment(env *object.Environment) Option {
	return func(i *Interpreter) {
		i.env = env
	}
}

// WithMaxDepth bounds nested function calls.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) {
		i.maxDepth = n
	}
}

// NewInterpreter creates a new interpreter instance, configured with options.
func NewInterpreter(options ...Option) *Interpreter {
	i := &Interpreter{
		stdout: os.Stdout,
	}
	for _, opt := range options {
		opt(i)
	}
	if i.env == nil {
		i.env = object.NewEnvironment()
	}
	if i.logger == nil {
		i.logger = logging.Default()
	}
	return i
}

// Env returns the session environment.
func (i *Interpreter) Env() *object.Environment {
	return i.env
}

// Parse parses source into a program. It returns a *ParseError if the parser
// reported anything.
func Parse(source string) (*ast.Program, error) {
	program, errs := parser.ParseString(source)
	if len(errs) > 0 {
		return program, &ParseError{Messages: errs}
	}
	return program, nil
}

// Eval parses and evaluates source in the session environment.
//
// A program with parse errors is never evaluated. An evaluation that ends in
// an error value is reported as a *RuntimeError. A nil object with a nil
// error means the program produced no value, for example `let x = 1;`.
//
// If ctx is done first Eval returns ctx.Err(). The abandoned evaluation stops
// at its next function call; the environment must not be reused after that.
func (i *Interpreter) Eval(ctx context.Context, source string) (object.Object, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return i.EvalProgram(ctx, program)
}

// EvalProgram evaluates an already parsed program. See Eval.
func (i *Interpreter) EvalProgram(ctx context.Context, program *ast.Program) (object.Object, error) {
	ev := evaluator.New(evaluator.Config{
		Stdout:   i.stdout,
		Logger:   i.logger,
		MaxDepth: i.maxDepth,
	})

	done := make(chan object.Object, 1)
	go func() {
		done <- ev.EvalContext(ctx, program, i.env)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case obj := <-done:
		// the evaluator reports cancellation as an error object; surface ctx.Err instead
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if errObj, ok := obj.(*object.Error); ok {
			return obj, &RuntimeError{Object: errObj}
		}
		return obj, nil
	}
}

// Render evaluates source and returns the text a user should see. See Format.
func (i *Interpreter) Render(ctx context.Context, source string) string {
	return Format(i.Eval(ctx, source))
}

// Format returns the text a user should see for the results of Eval: the
// parser error banner, `ERROR: ...` for a failed evaluation, or the display
// text of the value.
func Format(obj object.Object, err error) string {
	if err != nil {
		var parseErr *ParseError
		var runtimeErr *RuntimeError
		switch {
		case errors.As(err, &parseErr):
			return parseErr.Banner()
		case errors.As(err, &runtimeErr):
			return runtimeErr.Object.Inspect()
		default:
			return (&object.Error{Message: err.Error()}).Inspect()
		}
	}
	return Inspect(obj)
}

// Inspect returns the display text of obj, or "" for no value.
func Inspect(obj object.Object) string {
	if obj == nil {
		return ""
	}
	return obj.Inspect()
}

// RenderAST returns the canonical, fully parenthesized text of source.
func RenderAST(source string) (string, error) {
	program, err := Parse(source)
	if err != nil {
		return "", err
	}
	return program.String(), nil
}

// DumpAST returns a JSON-ready tree of source.
func DumpAST(source string) (*orderedmap.OrderedMap, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return ast.Dump(program), nil
}
