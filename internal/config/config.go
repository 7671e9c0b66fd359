// Package config loads CLI configuration from CUE or JSON files.
//
// A config file is unified with the embedded #Config schema, validated as
// concrete, and decoded into Config. The schema is closed, so unknown fields
// are errors, and it carries every default, so Load("") returns a complete
// configuration without touching the filesystem.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Database string       `json:"database"`
	Log      LogConfig    `json:"log"`
	Sample   SampleConfig `json:"sample"`
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SampleConfig holds defaults for generate.
type SampleConfig struct {
	Points uint32 `json:"points"`
}

// SlogLevel maps Level to a slog.Level. Unknown levels map to Info; the
// schema rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Error is a configuration error with the CUE source position, if known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: config: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return "config: " + e.Message
}

// Default returns the configuration described by the schema defaults.
func Default() Config {
	cfg, err := decode(nil, "")
	if err != nil {
		// The embedded schema is fixed at build time.
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads the file at path and returns the validated configuration.
// An empty path returns Default(). Supported extensions are .cue and .json.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	switch ext := filepath.Ext(path); ext {
	case ".cue", ".json":
	default:
		return Config{}, &Error{Message: fmt.Sprintf("unsupported config file type %q (want .cue or .json)", ext)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return decode(data, path)
}

// Parse validates config source held in memory. name is used in error
// positions and may be empty.
func Parse(data []byte, name string) (Config, error) {
	return decode(data, name)
}

// decode unifies src (JSON is valid CUE) with #Config.
func decode(src []byte, name string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(src) > 0 {
		file := ctx.CompileBytes(src, cue.Filename(name))
		if err := file.Err(); err != nil {
			return Config{}, formatCUEError(err)
		}
		v = v.Unify(file)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}
	return cfg, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	first := errs[0]
	cfgErr := &Error{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
