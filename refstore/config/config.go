// Package config loads refstore's runtime configuration from
// environment variables, with an optional YAML file that overlays
// values on top of the defaults. Environment variables always take
// priority: a file overlay is applied first, then REFSTORE_* variables
// are read on top of it, matching the layering order
// "defaults < file < environment".
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/refstore/refname"
)

// Config holds every setting refstore needs to open a store and run
// transactions against it.
type Config struct {
	Store    StoreConfig
	Lock     LockConfig
	Reflog   ReflogConfig
	Logging  LoggingConfig
	Features FeatureFlagsConfig
}

// StoreConfig describes where the loose ref store lives and which
// hash width its peeled refs use.
type StoreConfig struct {
	// DataDir is the root directory of the reference store.
	DataDir string
	// HashAlgorithm is "sha1" or "sha256".
	HashAlgorithm string
}

// HashWidth returns the object id width implied by HashAlgorithm.
func (s StoreConfig) HashWidth() int {
	if s.HashAlgorithm == "sha256" {
		return refname.Sha256Len
	}
	return refname.Sha1Len
}

// LockConfig controls how a transaction waits for a contended lock.
type LockConfig struct {
	// FailMode is "immediate" or "retry".
	FailMode string
	// RetryBudget is the total time a "retry" FailMode will wait.
	RetryBudget time.Duration
	// RetryInterval is the poll interval for a "retry" FailMode.
	RetryInterval time.Duration
}

// ReflogConfig controls when the reflog writer is willing to create a
// new log file.
type ReflogConfig struct {
	// Disabled suppresses reflog writes globally, except where an edit
	// forces one with LogEdit.ForceCreate.
	Disabled bool
	// AutoCreatePrefixes lists name prefixes whose first change lazily
	// creates a reflog.
	AutoCreatePrefixes []string
}

// LoggingConfig controls the CLI's log output.
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// FeatureFlagsConfig toggles optional engine behavior.
type FeatureFlagsConfig struct {
	// ForceCreateOverridesDisable records whether an edit's
	// LogEdit.ForceCreate bypasses Reflog.Disabled. It is loaded but not
	// passed to the reflog writer, which always lets ForceCreate bypass
	// Reflog.Disabled; setting it to false changes nothing.
	ForceCreateOverridesDisable bool
	// PrefetchConcurrency is loaded and validated as positive, but it is
	// not passed to the transaction engine: Prepare's concurrent read
	// warm-up is bounded by the txn package's own constant of 8.
	PrefetchConcurrency int
}

// LoadFromEnv builds a Config from REFSTORE_* environment variables,
// applying defaults for anything unset. If REFSTORE_CONFIG_FILE names
// a YAML file, it is read and overlaid before the environment
// variables are applied, so environment variables still win.
func LoadFromEnv() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("REFSTORE_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	cfg.Store.DataDir = getEnv("REFSTORE_DATA_DIR", cfg.Store.DataDir)
	cfg.Store.HashAlgorithm = getEnv("REFSTORE_HASH_ALGORITHM", cfg.Store.HashAlgorithm)

	cfg.Lock.FailMode = getEnv("REFSTORE_LOCK_FAIL_MODE", cfg.Lock.FailMode)
	cfg.Lock.RetryBudget = getEnvDuration("REFSTORE_LOCK_RETRY_BUDGET", cfg.Lock.RetryBudget)
	cfg.Lock.RetryInterval = getEnvDuration("REFSTORE_LOCK_RETRY_INTERVAL", cfg.Lock.RetryInterval)

	cfg.Reflog.Disabled = getEnvBool("REFSTORE_REFLOG_DISABLED", cfg.Reflog.Disabled)
	cfg.Reflog.AutoCreatePrefixes = getEnvStringSlice("REFSTORE_REFLOG_AUTOCREATE_PREFIXES", cfg.Reflog.AutoCreatePrefixes)

	cfg.Logging.Level = getEnv("REFSTORE_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("REFSTORE_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Output = getEnv("REFSTORE_LOG_OUTPUT", cfg.Logging.Output)

	cfg.Features.ForceCreateOverridesDisable = getEnvBool("REFSTORE_FORCE_CREATE_OVERRIDES_DISABLE", cfg.Features.ForceCreateOverridesDisable)
	cfg.Features.PrefetchConcurrency = getEnvInt("REFSTORE_PREFETCH_CONCURRENCY", cfg.Features.PrefetchConcurrency)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir:       "./.refstore",
			HashAlgorithm: "sha1",
		},
		Lock: LockConfig{
			FailMode:      "immediate",
			RetryBudget:   5 * time.Second,
			RetryInterval: 20 * time.Millisecond,
		},
		Reflog: ReflogConfig{
			Disabled:           false,
			AutoCreatePrefixes: []string{"refs/heads/", "refs/remotes/", "refs/tags/"},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		Features: FeatureFlagsConfig{
			ForceCreateOverridesDisable: true,
			PrefetchConcurrency:         8,
		},
	}
}

// fileOverlay mirrors Config with pointer/optional fields so a YAML
// document only needs to name the settings it wants to override.
type fileOverlay struct {
	Store *struct {
		DataDir       *string `yaml:"dataDir"`
		HashAlgorithm *string `yaml:"hashAlgorithm"`
	} `yaml:"store"`
	Lock *struct {
		FailMode      *string `yaml:"failMode"`
		RetryBudget   *string `yaml:"retryBudget"`
		RetryInterval *string `yaml:"retryInterval"`
	} `yaml:"lock"`
	Reflog *struct {
		Disabled           *bool    `yaml:"disabled"`
		AutoCreatePrefixes []string `yaml:"autoCreatePrefixes"`
	} `yaml:"reflog"`
	Logging *struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
		Output *string `yaml:"output"`
	} `yaml:"logging"`
	Features *struct {
		ForceCreateOverridesDisable *bool `yaml:"forceCreateOverridesDisable"`
		PrefetchConcurrency         *int  `yaml:"prefetchConcurrency"`
	} `yaml:"features"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}

	if overlay.Store != nil {
		if overlay.Store.DataDir != nil {
			c.Store.DataDir = *overlay.Store.DataDir
		}
		if overlay.Store.HashAlgorithm != nil {
			c.Store.HashAlgorithm = *overlay.Store.HashAlgorithm
		}
	}
	if overlay.Lock != nil {
		if overlay.Lock.FailMode != nil {
			c.Lock.FailMode = *overlay.Lock.FailMode
		}
		if overlay.Lock.RetryBudget != nil {
			d, err := time.ParseDuration(*overlay.Lock.RetryBudget)
			if err != nil {
				return fmt.Errorf("lock.retryBudget: %w", err)
			}
			c.Lock.RetryBudget = d
		}
		if overlay.Lock.RetryInterval != nil {
			d, err := time.ParseDuration(*overlay.Lock.RetryInterval)
			if err != nil {
				return fmt.Errorf("lock.retryInterval: %w", err)
			}
			c.Lock.RetryInterval = d
		}
	}
	if overlay.Reflog != nil {
		if overlay.Reflog.Disabled != nil {
			c.Reflog.Disabled = *overlay.Reflog.Disabled
		}
		if overlay.Reflog.AutoCreatePrefixes != nil {
			c.Reflog.AutoCreatePrefixes = overlay.Reflog.AutoCreatePrefixes
		}
	}
	if overlay.Logging != nil {
		if overlay.Logging.Level != nil {
			c.Logging.Level = *overlay.Logging.Level
		}
		if overlay.Logging.Format != nil {
			c.Logging.Format = *overlay.Logging.Format
		}
		if overlay.Logging.Output != nil {
			c.Logging.Output = *overlay.Logging.Output
		}
	}
	if overlay.Features != nil {
		if overlay.Features.ForceCreateOverridesDisable != nil {
			c.Features.ForceCreateOverridesDisable = *overlay.Features.ForceCreateOverridesDisable
		}
		if overlay.Features.PrefetchConcurrency != nil {
			c.Features.PrefetchConcurrency = *overlay.Features.PrefetchConcurrency
		}
	}
	return nil
}

// Validate checks Config for values the engine cannot act on.
func (c *Config) Validate() error {
	if c.Store.DataDir == "" {
		return fmt.Errorf("config: store.dataDir must not be empty")
	}
	if c.Store.HashAlgorithm != "sha1" && c.Store.HashAlgorithm != "sha256" {
		return fmt.Errorf("config: store.hashAlgorithm must be sha1 or sha256, got %q", c.Store.HashAlgorithm)
	}
	if c.Lock.FailMode != "immediate" && c.Lock.FailMode != "retry" {
		return fmt.Errorf("config: lock.failMode must be immediate or retry, got %q", c.Lock.FailMode)
	}
	if c.Lock.FailMode == "retry" && c.Lock.RetryBudget <= 0 {
		return fmt.Errorf("config: lock.retryBudget must be positive when failMode is retry")
	}
	if c.Features.PrefetchConcurrency <= 0 {
		return fmt.Errorf("config: features.prefetchConcurrency must be positive")
	}
	return nil
}

// String returns a log-safe summary of c.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, Hash: %s, LockFailMode: %s, ReflogDisabled: %v}",
		c.Store.DataDir, c.Store.HashAlgorithm, c.Lock.FailMode, c.Reflog.Disabled,
	)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes" || v == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
