package monkey_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/monkey"
	"github.com/podhmo/monkey/monkeytest"
	"github.com/podhmo/monkey/object"
)

func TestInterpreter_Eval(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "precedence", source: "3 + 4 * 5", want: "23"},
		{name: "grouping", source: "(3 + 4) * 5", want: "35"},
		{name: "closure", source: "let newAdder = fn(x) { fn(y) { x + y } }; let addTwo = newAdder(2); addTwo(3);", want: "5"},
		{name: "array", source: "push([1, 2], 3)", want: "[1, 2, 3]"},
		{name: "hash", source: `{"b": 1, "a": true}`, want: "{b: 1, a: true}"},
		{name: "no value", source: "let a = 1;", want: ""},
		{name: "function", source: "fn(x) { x }", want: "fn(x) {\nx\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := monkeytest.Run(t, tt.source)
			if diff := cmp.Diff(tt.want, r.Inspect()); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInterpreter_SessionEnvironment(t *testing.T) {
	ctx := context.Background()
	interp := monkey.NewInterpreter()

	if _, err := interp.Eval(ctx, "let x = 10;"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj, err := interp.Eval(ctx, "x * 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := monkey.Inspect(obj); got != "20" {
		t.Errorf("got %q, want 20", got)
	}
}

func TestInterpreter_WithEnvironment(t *testing.T) {
	env := object.NewEnvironment()
	env.Set("answer", &object.Integer{Value: 42})

	interp := monkey.NewInterpreter(monkey.WithEnvironment(env))
	obj, err := interp.Eval(context.Background(), "answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := monkey.Inspect(obj); got != "42" {
		t.Errorf("got %q", got)
	}
	if interp.Env() != env {
		t.Errorf("Env() is not the given environment")
	}
}

func TestInterpreter_Errors(t *testing.T) {
	ctx := context.Background()
	interp := monkey.NewInterpreter()

	t.Run("parse error", func(t *testing.T) {
		obj, err := interp.Eval(ctx, "let = 5;")
		if obj != nil {
			t.Errorf("a program with parse errors must not be evaluated, got %v", obj)
		}
		var parseErr *monkey.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %T (%v)", err, err)
		}
		want := []string{"expected next token to be IDENT, got = instead"}
		if diff := cmp.Diff(want, parseErr.Messages[:1]); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("runtime error", func(t *testing.T) {
		obj, err := interp.Eval(ctx, "foobar")
		var runtimeErr *monkey.RuntimeError
		if !errors.As(err, &runtimeErr) {
			t.Fatalf("expected *RuntimeError, got %T (%v)", err, err)
		}
		if runtimeErr.Error() != "identifier not found: foobar" {
			t.Errorf("Error() = %q", runtimeErr.Error())
		}
		if obj != runtimeErr.Object {
			t.Errorf("the error value is also returned as the object")
		}
	})
}

func TestInterpreter_Timeout(t *testing.T) {
	interp := monkey.NewInterpreter(monkey.WithMaxDepth(1 << 20))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// exponential work with shallow recursion
	source := "let fib = fn(n) { if (n < 2) { n } else { fib(n - 1) + fib(n - 2) } }; fib(60)"
	_, err := interp.Eval(ctx, source)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestInterpreter_Render(t *testing.T) {
	ctx := context.Background()
	interp := monkey.NewInterpreter()

	if got := interp.Render(ctx, "1 + 2"); got != "3" {
		t.Errorf("Render() = %q", got)
	}
	if got := interp.Render(ctx, "5 + true"); got != "ERROR: type mismatch: INTEGER + BOOLEAN" {
		t.Errorf("Render() = %q", got)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	got := interp.Render(canceled, "1")
	if got != "1" && got != "ERROR: context canceled" {
		t.Errorf("Render() with canceled context = %q", got)
	}

	banner := interp.Render(ctx, "let x 5;")
	for _, want := range []string{
		"Woops! We ran into some monkey business here!\n",
		" parser errors:\n",
		"\texpected next token to be =, got INT instead\n",
	} {
		if !strings.Contains(banner, want) {
			t.Errorf("banner %q does not contain %q", banner, want)
		}
	}
}

func TestFormatParserErrors(t *testing.T) {
	got := monkey.FormatParserErrors([]string{"first", "second"})
	if !strings.HasPrefix(got, "            __,__\n") {
		t.Errorf("banner should start with the monkey face: %q", got)
	}
	if !strings.HasSuffix(got, "Woops! We ran into some monkey business here!\n parser errors:\n\tfirst\n\tsecond\n") {
		t.Errorf("unexpected banner tail: %q", got)
	}

	err := &monkey.ParseError{Messages: []string{"first", "second"}}
	if err.Error() != "parse error: first; second" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Banner() != got {
		t.Errorf("Banner() differs from FormatParserErrors")
	}
}

func TestRenderAST(t *testing.T) {
	got, err := monkey.RenderAST("-a * b; if (x < y) { x } else { y }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "((-a) * b)if(x < y) xelse y"; got != want {
		t.Errorf("RenderAST() = %q, want %q", got, want)
	}

	if _, err := monkey.RenderAST("let = 1"); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestDumpAST(t *testing.T) {
	tree, err := monkey.DumpAST("let x = 1;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"type": "Program",
		"statements": []any{
			map[string]any{
				"type":  "LetStatement",
				"name":  map[string]any{"type": "Identifier", "value": "x"},
				"value": map[string]any{"type": "IntegerLiteral", "value": float64(1)},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}

	if _, err := monkey.DumpAST("{[1]: 2}"); err == nil {
		t.Errorf("expected parse error for an invalid hash key")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		obj  object.Object
		err  error
		want string
	}{
		{name: "value", obj: &object.Integer{Value: 1}, want: "1"},
		{name: "no value", want: ""},
		{name: "runtime error", obj: &object.Error{Message: "boom"}, err: &monkey.RuntimeError{Object: &object.Error{Message: "boom"}}, want: "ERROR: boom"},
		{name: "other error", err: context.DeadlineExceeded, want: "ERROR: context deadline exceeded"},
		{name: "parse error", err: &monkey.ParseError{Messages: []string{"x"}}, want: monkey.FormatParserErrors([]string{"x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := monkey.Format(tt.obj, tt.err); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}
