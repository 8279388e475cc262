// Package monkeytest provides helpers for tests that run monkey scripts.
package monkeytest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/podhmo/monkey"
	"github.com/podhmo/monkey/ast"
	"github.com/podhmo/monkey/object"
)

// Result provides access to the results of a script execution.
type Result struct {
	// Value is the value of the last statement, nil for no value.
	// A runtime error is reported here as an *object.Error.
	Value object.Object
	// Stdout is everything the script wrote with `puts`.
	Stdout string

	env *object.Environment
}

// Get retrieves a global binding by name from the script's environment.
func (r *Result) Get(name string) (object.Object, bool) {
	return r.env.Get(name)
}

// Inspect returns the display text of the value.
func (r *Result) Inspect() string {
	return monkey.Inspect(r.Value)
}

// Run evaluates source in a fresh environment. It fails the test on parse
// errors; runtime errors are left in Result.Value for the caller to check.
func Run(t testing.TB, source string) *Result {
	t.Helper()

	var stdout bytes.Buffer
	interp := monkey.NewInterpreter(monkey.WithStdout(&stdout))

	obj, err := interp.Eval(context.Background(), source)
	if err != nil {
		var runtimeErr *monkey.RuntimeError
		if !errors.As(err, &runtimeErr) {
			t.Fatalf("failed to evaluate %q: %v", source, err)
		}
	}
	return &Result{Value: obj, Stdout: stdout.String(), env: interp.Env()}
}

// MustParse parses source and fails the test on parse errors.
func MustParse(t testing.TB, source string) *ast.Program {
	t.Helper()
	program, err := monkey.Parse(source)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", source, err)
	}
	return program
}
