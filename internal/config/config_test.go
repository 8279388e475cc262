package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func env(kv map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := kv[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monkey.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "", cfg.Mode)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, ">> ", cfg.Prompt)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.EvalTimeout.Duration)
	assert.Equal(t, ".monkey_history", filepath.Base(cfg.HistoryFile))
	assert.False(t, cfg.AST)
}

func TestParse_Flags(t *testing.T) {
	cfg, rest, err := Parse("monkey", []string{
		"--mode", "run",
		"--log-level", "debug",
		"--timeout", "250ms",
		"--history-db", "history.db",
		"a.monkey", "b.monkey",
	}, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "run", cfg.Mode)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 250*time.Millisecond, cfg.EvalTimeout.Duration)
	assert.Equal(t, "history.db", cfg.Database)
	assert.Equal(t, []string{"a.monkey", "b.monkey"}, rest)
}

func TestParse_Precedence(t *testing.T) {
	path := writeFile(t, `
mode = "api"
addr = "127.0.0.1:9000"
prompt = "monkey> "
eval_timeout = "2s"
ast = true
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, _, err := Parse("monkey", []string{"--config", path}, noEnv)
		require.NoError(t, err)
		assert.Equal(t, "api", cfg.Mode)
		assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
		assert.Equal(t, "monkey> ", cfg.Prompt)
		assert.Equal(t, 2*time.Second, cfg.EvalTimeout.Duration)
		assert.True(t, cfg.AST)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("PORT over file", func(t *testing.T) {
		cfg, _, err := Parse("monkey", []string{"--config", path}, env(map[string]string{"PORT": "3000"}))
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:3000", cfg.Addr)
	})

	t.Run("flags over PORT", func(t *testing.T) {
		cfg, _, err := Parse("monkey", []string{"--addr", "localhost:4000", "--config", path, "--mode", "repl"},
			env(map[string]string{"PORT": "3000"}))
		require.NoError(t, err)
		assert.Equal(t, "localhost:4000", cfg.Addr)
		assert.Equal(t, "repl", cfg.Mode)
		assert.True(t, cfg.AST)
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing mode", args: nil, wantErr: "--mode is required (repl|api|run)"},
		{name: "unknown mode", args: []string{"--mode", "web"}, wantErr: `unknown mode "web"`},
		{name: "unknown log level", args: []string{"--mode", "repl", "--log-level", "loud"}, wantErr: `unknown log level "loud"`},
		{name: "bad timeout", args: []string{"--mode", "repl", "--timeout", "soon"}, wantErr: "parsing flags"},
		{name: "zero timeout", args: []string{"--mode", "repl", "--timeout", "0s"}, wantErr: "timeout must be positive"},
		{name: "unknown flag", args: []string{"--mode", "repl", "--nope"}, wantErr: "unknown flag: --nope"},
		{name: "bad addr", args: []string{"--mode", "api", "--addr", "nocolon"}, wantErr: `invalid addr "nocolon"`},
		{name: "missing config", args: []string{"--config", "/no/such/file.toml"}, wantErr: "loading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse("monkey", tt.args, noEnv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_Help(t *testing.T) {
	_, _, err := Parse("monkey", []string{"--help"}, noEnv)
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestLoadFile_UnknownKeys(t *testing.T) {
	path := writeFile(t, "mode = \"repl\"\ncolour = \"blue\"\n")
	cfg := Default()
	err := cfg.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys colour")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{"PORT": "8081"})))
	assert.Equal(t, "0.0.0.0:8081", cfg.Addr)

	require.NoError(t, cfg.ApplyEnv(env(map[string]string{"PORT": ""})))
	assert.Equal(t, "0.0.0.0:8081", cfg.Addr)

	cfg.Addr = "broken"
	assert.Error(t, cfg.ApplyEnv(env(map[string]string{"PORT": "1"})))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"DEBUG": slog.LevelDebug,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.Set("1m30s"))
	assert.Equal(t, 90*time.Second, d.Duration)
	assert.Equal(t, "1m30s", d.String())
	assert.Equal(t, "duration", d.Type())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}
