package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterh/liner"
	"github.com/podhmo/monkey"
	"github.com/podhmo/monkey/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader replays lines and then reports end, io.EOF by default.
type fakeReader struct {
	lines   []string
	end     error
	prompts []string
	history []string
}

func (r *fakeReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		if r.end != nil {
			return "", r.end
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *fakeReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

func run(t *testing.T, cfg Config, lines ...string) (string, *fakeReader) {
	t.Helper()
	in := &fakeReader{lines: lines}
	var out bytes.Buffer
	cfg.In = in
	cfg.Out = &out
	require.NoError(t, Start(context.Background(), cfg))
	return out.String(), in
}

func TestStart_Evaluates(t *testing.T) {
	out, in := run(t, Config{},
		"let add = fn(a, b) { a + b };",
		"add(1, 2)",
		"",
		`"mon" + "key"`,
		"foobar",
	)

	want := "3\nmonkey\nERROR: identifier not found: foobar\n\n"
	assert.Equal(t, want, out)
	assert.Equal(t, []string{">> ", ">> ", ">> ", ">> ", ">> ", ">> "}, in.prompts)
	assert.Equal(t, []string{"let add = fn(a, b) { a + b };", "add(1, 2)", `"mon" + "key"`, "foobar"}, in.history)
}

func TestStart_Puts(t *testing.T) {
	var stdout bytes.Buffer
	out, _ := run(t, Config{Options: []monkey.Option{monkey.WithStdout(&stdout)}}, `puts("hi")`)
	assert.Equal(t, "null\n\n", out)
	assert.Equal(t, "hi\n", stdout.String())
}

func TestStart_ParseErrors(t *testing.T) {
	out, _ := run(t, Config{}, "let x 5;", "1 + 1")
	assert.Contains(t, out, "Woops! We ran into some monkey business here!\n parser errors:\n\texpected next token to be =, got INT instead\n")
	assert.True(t, strings.HasSuffix(out, "2\n\n"), "the loop continues after parse errors: %q", out)
}

func TestStart_AST(t *testing.T) {
	out, _ := run(t, Config{AST: true, Prompt: "ast> "}, "-a * b", "let x = 1 + 2 * 3;", "let = 1")
	lines := strings.SplitN(out, "\n", 3)
	assert.Equal(t, "((-a) * b)", lines[0])
	assert.Equal(t, "let x = (1 + (2 * 3));", lines[1])
	assert.Contains(t, lines[2], "parser errors:")
}

func TestStart_Exit(t *testing.T) {
	out, in := run(t, Config{}, "1", "exit", "2")
	assert.Equal(t, "1\n", out)
	assert.Equal(t, []string{"2"}, in.lines)
}

func TestStart_Aborted(t *testing.T) {
	in := &fakeReader{lines: []string{"1"}, end: liner.ErrPromptAborted}
	var out bytes.Buffer
	require.NoError(t, Start(context.Background(), Config{In: in, Out: &out}))
	assert.Equal(t, "1\n\n", out.String())
}

func TestStart_ReadError(t *testing.T) {
	boom := errors.New("boom")
	in := &fakeReader{end: boom}
	err := Start(context.Background(), Config{In: in, Out: io.Discard})
	assert.ErrorIs(t, err, boom)
}

func TestStart_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := &fakeReader{lines: []string{"1"}}
	require.NoError(t, Start(ctx, Config{In: in, Out: io.Discard}))
	assert.Empty(t, in.prompts)
}

func TestStart_TimeoutResetsSession(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	out, _ := run(t, Config{Timeout: 20 * time.Millisecond, Logger: logger},
		"let x = 1;",
		"let fib = fn(n) { if (n < 2) { n } else { fib(n - 1) + fib(n - 2) } }; fib(60)",
		"x",
	)
	assert.Contains(t, out, "ERROR: evaluation timed out (bindings were reset)\n")
	assert.Contains(t, out, "ERROR: identifier not found: x\n")
	assert.Contains(t, logs.String(), "evaluation abandoned")
}

func TestHandle_CanceledIsNotATimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &session{cfg: Config{Timeout: time.Minute, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, interp: monkey.NewInterpreter()}
	before := s.interp

	text, isError := s.handle(ctx, "1 + 1")
	assert.Equal(t, "ERROR: evaluation canceled (bindings were reset)", text)
	assert.True(t, isError)
	assert.NotSame(t, before, s.interp)
}

func TestStart_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	store, err := history.Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	run(t, Config{History: store}, "1 + 1", "nope")

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "nope", entries[0].Source)
	assert.Equal(t, "ERROR: identifier not found: nope", entries[0].Result)
	assert.True(t, entries[0].IsError)
	assert.Equal(t, "2", entries[1].Result)
	assert.False(t, entries[1].IsError)
}

func TestComplete(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"le", []string{"len", "let"}},
		{"let x = fi", []string{"let x = first"}},
		{"pu", []string{"push", "puts"}},
		{"1 + ", nil},
		{"", nil},
		{"len", nil},
		{"é r", []string{"é rest", "é return"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, complete(tt.line))
		})
	}
}
