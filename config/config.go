// Package config turns command-line flags and BOOKSHELF_* environment
// variables into a validated Config. Flags win over the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"pollex.nl/bookshelf/store"
)

// ExitError carries the process exit code for a configuration failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type Config struct {
	Addr        string
	Store       string
	SeedPath    string
	GraphiQL    bool
	StrictEdits bool
	LogLevel    string
	LogFormat   string
}

// Parse returns the config, or true when the process should exit cleanly
// (after -help), or an *ExitError.
func Parse(args []string, getenv func(string) string, output io.Writer) (*Config, bool, error) {
	env := func(name, fallback string) string {
		if v := getenv("BOOKSHELF_" + name); v != "" {
			return v
		}
		return fallback
	}
	envBool := func(name string, fallback bool) (bool, error) {
		v := getenv("BOOKSHELF_" + name)
		if v == "" {
			return fallback, nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid BOOKSHELF_%s: %q is not a boolean", name, v)}
		}
		return b, nil
	}

	graphiql, err := envBool("GRAPHIQL", true)
	if err != nil {
		return nil, false, err
	}
	strict, err := envBool("STRICT_EDITS", false)
	if err != nil {
		return nil, false, err
	}

	flagSet := flag.NewFlagSet("bookshelf", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
bookshelf - a books and authors GraphQL API.

Usage:
  bookshelf [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	cfg := &Config{}
	flagSet.StringVar(&cfg.Addr, "addr", env("ADDR", ":5050"), "Address to listen on.")
	flagSet.StringVar(&cfg.Store, "store", env("STORE", store.Memory), "Store backend. Options: "+strings.Join(store.Backends, ", ")+".")
	flagSet.StringVar(&cfg.SeedPath, "seed", env("SEED", ""), "Path to an HCL seed file. Empty uses the built-in library.")
	flagSet.BoolVar(&cfg.GraphiQL, "graphiql", graphiql, "Serve GraphiQL on GET requests to /graphql.")
	flagSet.BoolVar(&cfg.StrictEdits, "strict-edits", strict, "Reject editBook calls that point a book at an unknown author.")
	flagSet.StringVar(&cfg.LogLevel, "log-level", env("LOG_LEVEL", "info"), "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&cfg.LogFormat, "log-format", env("LOG_FORMAT", "text"), "Log output format. Options: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument %q", flagSet.Arg(0))}
	}

	if err := cfg.validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return cfg, false, nil
}

func (cfg *Config) validate() error {
	cfg.Store = strings.ToLower(cfg.Store)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if cfg.Addr == "" {
		return errors.New("invalid addr: must not be empty")
	}
	if !slices.Contains(store.Backends, cfg.Store) {
		return fmt.Errorf("invalid store: must be one of %s", strings.Join(store.Backends, ", "))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return errors.New("invalid log-format: must be 'text' or 'json'")
	}
	if _, err := cfg.level(); err != nil {
		return err
	}

	return nil
}

func (cfg *Config) level() (slog.Level, error) {
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
}

// Logger builds the process logger writing to w.
func (cfg *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := cfg.level()
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
