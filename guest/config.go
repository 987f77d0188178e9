package guest

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/pinned-runtime/errors"
)

// maxPages is the WebAssembly 32-bit memory limit in 64KiB pages.
const maxPages = 65536

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the WebAssembly maximum (65536 pages = 4GB).
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`

	// InitialPages is the memory a fresh instance starts with.
	InitialPages uint32 `yaml:"initial_pages"`

	// BatchConcurrency bounds the goroutines InitBatch uses. 0 means unbounded.
	BatchConcurrency int `yaml:"batch_concurrency"`

	// CloseOnContextDone aborts running guest calls when their context ends.
	CloseOnContextDone bool `yaml:"close_on_context_done"`
}

// DefaultConfig returns the configuration used by NewEngine.
func DefaultConfig() Config {
	return Config{
		MemoryLimitPages: 256,
		InitialPages:     1,
		BatchConcurrency: 8,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.InitialPages == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "initial_pages must be at least 1")
	}
	if c.MemoryLimitPages > maxPages {
		return errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("memory_limit_pages %d exceeds %d", c.MemoryLimitPages, maxPages))
	}
	if c.MemoryLimitPages > 0 && c.InitialPages > c.MemoryLimitPages {
		return errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("initial_pages %d exceeds memory_limit_pages %d", c.InitialPages, c.MemoryLimitPages))
	}
	if c.BatchConcurrency < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "batch_concurrency must not be negative")
	}
	return nil
}

// ParseConfig reads a YAML document over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse yaml")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig builds a configuration from defaults, the YAML file at path (if
// path is non-empty and the file exists) and PINNED_* environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
			}
		case os.IsNotExist(err):
			// defaults apply
		default:
			return cfg, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
		}
	}

	configFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func configFromEnv(cfg *Config) {
	if v := os.Getenv("PINNED_MEMORY_LIMIT_PAGES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.MemoryLimitPages = uint32(n)
		}
	}
	if v := os.Getenv("PINNED_INITIAL_PAGES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.InitialPages = uint32(n)
		}
	}
	if v := os.Getenv("PINNED_BATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BatchConcurrency = n
		}
	}
	if v := os.Getenv("PINNED_CLOSE_ON_CONTEXT_DONE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CloseOnContextDone = b
		}
	}
}
