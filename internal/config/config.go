// Package config resolves the settings of the monkey command.
//
// Sources are applied lowest to highest precedence: built-in defaults, a TOML
// file named by --config, the PORT environment variable, then flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

// Modes lists the accepted values of Config.Mode.
var Modes = []string{"repl", "api", "run"}

// Config holds the settings of the monkey command.
type Config struct {
	Mode        string   `toml:"mode"`
	Addr        string   `toml:"addr"`
	Prompt      string   `toml:"prompt"`
	HistoryFile string   `toml:"history_file"`
	Database    string   `toml:"database"`
	LogLevel    string   `toml:"log_level"`
	EvalTimeout Duration `toml:"eval_timeout"`
	AST         bool     `toml:"ast"`
}

// Default returns the built-in settings. Mode is left empty on purpose and
// must be chosen by the user.
func Default() Config {
	historyFile := ".monkey_history"
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, historyFile)
	}
	return Config{
		Addr:        "0.0.0.0:8080",
		Prompt:      ">> ",
		HistoryFile: historyFile,
		LogLevel:    "info",
		EvalTimeout: Duration{5 * time.Second},
	}
}

// LoadFile overlays the keys present in a TOML file. Unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("loading config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv applies PORT, which replaces the port of Addr.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	port, ok := lookupEnv("PORT")
	if !ok || port == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("applying PORT to %q: %w", c.Addr, err)
	}
	c.Addr = net.JoinHostPort(host, port)
	return nil
}

// BindFlags registers one flag per setting, writing into c.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Mode, "mode", c.Mode, "mode to run: "+strings.Join(Modes, "|"))
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address of the api mode")
	fs.StringVar(&c.Prompt, "prompt", c.Prompt, "prompt of the repl mode")
	fs.StringVar(&c.HistoryFile, "history-file", c.HistoryFile, "line history file of the repl mode")
	fs.StringVar(&c.Database, "history-db", c.Database, "sqlite database recording evaluations (empty disables it)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.Var(&c.EvalTimeout, "timeout", "time limit of a single evaluation")
	fs.BoolVar(&c.AST, "ast", c.AST, "print the canonical AST instead of evaluating (repl mode)")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Mode == "" {
		return fmt.Errorf("--mode is required (%s)", strings.Join(Modes, "|"))
	}
	if !slices.Contains(Modes, c.Mode) {
		return fmt.Errorf("unknown mode %q (%s)", c.Mode, strings.Join(Modes, "|"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.EvalTimeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.EvalTimeout)
	}
	if c.Mode == "api" {
		if _, _, err := net.SplitHostPort(c.Addr); err != nil {
			return fmt.Errorf("invalid addr %q: %w", c.Addr, err)
		}
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn and error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return level, nil
}

// Parse resolves the configuration from command-line arguments and the
// environment. It returns the remaining positional arguments.
//
// The arguments are scanned twice: once for --config, so the file can be
// loaded before flags are bound on top of it.
func Parse(name string, args []string, lookupEnv func(string) (string, bool)) (*Config, []string, error) {
	pre := pflag.NewFlagSet(name, pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	pre.BoolP("help", "h", false, "")
	configPath := pre.String("config", "", "")
	if err := pre.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.ApplyEnv(lookupEnv); err != nil {
		return nil, nil, err
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "TOML file with settings")
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), nil
}

// Duration is a time.Duration read from text such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Set implements pflag.Value.
func (d *Duration) Set(s string) error {
	return d.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (d *Duration) Type() string {
	return "duration"
}
