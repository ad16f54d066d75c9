// Package config loads a logpipe pipeline description from YAML or JSON,
// applies LOGPIPE_* environment overrides and builds the Service.
package config

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Config describes a complete pipeline.
type Config struct {
	Level             LevelConfig     `koanf:"level"`
	Console           ConsoleConfig   `koanf:"console"`
	File              FileConfig      `koanf:"file"`
	Rolling           RollingConfig   `koanf:"rolling"`
	Enrichers         EnrichersConfig `koanf:"enrichers"`
	ShutdownTimeoutMS int             `koanf:"shutdown_timeout_ms" validate:"gte=0"`
	Diagnostics       bool            `koanf:"diagnostics"`
}

// LevelConfig holds the filter rules. Rules are lists rather than maps so
// that dotted category names survive the key delimiter.
type LevelConfig struct {
	Default    string          `koanf:"default" validate:"required,loglevel"`
	Categories []CategoryLevel `koanf:"categories" validate:"dive"`
	Namespaces []NamespaceRule `koanf:"namespaces" validate:"dive"`
}

// CategoryLevel is an exact category override.
type CategoryLevel struct {
	Name  string `koanf:"name" validate:"required"`
	Level string `koanf:"level" validate:"required,loglevel"`
}

// NamespaceRule is a case-insensitive prefix override.
type NamespaceRule struct {
	Prefix string `koanf:"prefix" validate:"required"`
	Level  string `koanf:"level" validate:"required,loglevel"`
}

// ConsoleConfig configures the console sink.
type ConsoleConfig struct {
	Enabled bool   `koanf:"enabled"`
	Format  string `koanf:"format" validate:"omitempty,oneof=line text json"`
	Stream  string `koanf:"stream" validate:"omitempty,oneof=stdout stderr"`
}

// FileConfig configures the size and time rotating file sink.
type FileConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Directory        string `koanf:"directory" validate:"required_if=Enabled true"`
	Prefix           string `koanf:"prefix" validate:"omitempty,excludesall=/\\"`
	MaxFileSizeBytes int64  `koanf:"max_file_size_bytes" validate:"gte=0"`
	RollingInterval  string `koanf:"rolling_interval" validate:"omitempty,oneof=none day daily hour hourly month monthly"`
	MaxBackupFiles   int    `koanf:"max_backup_files"`
	Format           string `koanf:"format" validate:"omitempty,oneof=line text json"`
}

// RollingConfig configures the lumberjack backed sink.
type RollingConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Filename   string `koanf:"filename" validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
	Compress   bool   `koanf:"compress"`
	LocalTime  bool   `koanf:"local_time"`
	Format     string `koanf:"format" validate:"omitempty,oneof=line text json"`
}

// EnrichersConfig switches the built-in enrichers on. They run in the order
// scope, host, trace, error_chain, static.
type EnrichersConfig struct {
	Scope      bool           `koanf:"scope"`
	Host       bool           `koanf:"host"`
	Trace      bool           `koanf:"trace"`
	ErrorChain bool           `koanf:"error_chain"`
	Static     map[string]any `koanf:"static"`
}

// Default returns the configuration used when nothing is loaded: info and
// above to stdout in line format with scope enrichment.
func Default() Config {
	return Config{
		Level:   LevelConfig{Default: "info"},
		Console: ConsoleConfig{Enabled: true, Format: "line", Stream: "stdout"},
		File: FileConfig{
			Directory:       "logs",
			RollingInterval: "day",
			Format:          "line",
		},
		Rolling:   RollingConfig{Format: "line"},
		Enrichers: EnrichersConfig{Scope: true},
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
			case "trace", "debug", "info", "information", "warn", "warning",
				"error", "critical", "fatal", "none", "off":
				return true
			}
			return false
		})
	})
	return validate
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return getValidator().Struct(c)
}

// applyDefaults fills the gaps a partial file leaves. When no sink is
// enabled the console sink is switched on.
func applyDefaults(c *Config) {
	d := Default()
	if c.Level.Default == "" {
		c.Level.Default = d.Level.Default
	}
	if c.Console.Format == "" {
		c.Console.Format = d.Console.Format
	}
	if c.Console.Stream == "" {
		c.Console.Stream = d.Console.Stream
	}
	if c.File.Directory == "" {
		c.File.Directory = d.File.Directory
	}
	if c.File.RollingInterval == "" {
		c.File.RollingInterval = d.File.RollingInterval
	}
	if c.File.Format == "" {
		c.File.Format = d.File.Format
	}
	if c.Rolling.Format == "" {
		c.Rolling.Format = d.Rolling.Format
	}
	if !c.Console.Enabled && !c.File.Enabled && !c.Rolling.Enabled {
		c.Console.Enabled = true
	}
}
