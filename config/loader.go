package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override file settings.
//
//	LOGPIPE_LEVEL_DEFAULT        -> level.default
//	LOGPIPE_FILE_DIRECTORY       -> file.directory
//	LOGPIPE_FILE_MAX_BACKUP_FILES -> file.max_backup_files
//	LOGPIPE_SHUTDOWN_TIMEOUT_MS  -> shutdown_timeout_ms
const EnvPrefix = "LOGPIPE_"

const maxConfigFileSize = 1024 * 1024

// Format names a configuration encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// topLevelKeys are the keys that have no section, so their underscores are
// part of the name.
var topLevelKeys = map[string]bool{
	"shutdown_timeout_ms": true,
	"diagnostics":         true,
}

// Load reads the file at path, choosing the parser from its extension
// (.json, otherwise YAML), and applies environment overrides. An empty path
// loads defaults plus environment only.
func Load(path string) (*Config, error) {
	if path == "" {
		return load(nil, FormatYAML)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(content) > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return load(content, format)
}

// LoadBytes parses data in the given format and applies environment
// overrides.
func LoadBytes(data []byte, format Format) (*Config, error) {
	return load(data, format)
}

func load(data []byte, format Format) (*Config, error) {
	k := koanf.New(".")

	if len(data) > 0 {
		var parser koanf.Parser
		switch format {
		case FormatJSON:
			parser = json.Parser()
		case FormatYAML, "":
			parser = yaml.Parser()
		default:
			return nil, fmt.Errorf("unknown config format %q", format)
		}
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps LOGPIPE_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if topLevelKeys[lower] {
		return lower
	}
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
