package monkeytest

import (
	"testing"

	"github.com/podhmo/monkey/object"
)

func TestRun(t *testing.T) {
	r := Run(t, `let x = 2; puts("hi"); x * 21`)

	if got := r.Inspect(); got != "42" {
		t.Errorf("Inspect() = %q, want %q", got, "42")
	}
	if r.Stdout != "hi\n" {
		t.Errorf("Stdout = %q", r.Stdout)
	}
	x, ok := r.Get("x")
	if !ok {
		t.Fatalf("x is not bound")
	}
	if i, ok := x.(*object.Integer); !ok || i.Value != 2 {
		t.Errorf("x = %v, want 2", x)
	}
}

func TestRun_RuntimeError(t *testing.T) {
	r := Run(t, "1 + true")
	if _, ok := r.Value.(*object.Error); !ok {
		t.Fatalf("Value is not Error. got=%T", r.Value)
	}
	if got := r.Inspect(); got != "ERROR: type mismatch: INTEGER + BOOLEAN" {
		t.Errorf("Inspect() = %q", got)
	}
}

func TestMustParse(t *testing.T) {
	program := MustParse(t, "-a * b")
	if got := program.String(); got != "((-a) * b)" {
		t.Errorf("String() = %q", got)
	}
}
