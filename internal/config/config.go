// Package config loads service configuration from a YAML file plus
// ROZANEWS_-prefixed environment overrides.
//
// The content API token is deliberately NOT a file setting: it comes only
// from the ROZANEWS_CONTENT_TOKEN environment variable, so no credential
// material can end up inside an artifact that is itself published.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Remote configures the content API target.
type Remote struct {
	// BaseURL is the API root of the hosting repository, everything
	// before /contents/{path}.
	BaseURL string `mapstructure:"base_url"`

	// Branch is the branch conditional writes commit to.
	Branch string `mapstructure:"branch"`

	// Paths are the candidate snapshot paths probed in order; the first
	// one that exists on the remote wins. The first entry is also the
	// creation target when none exist.
	Paths []string `mapstructure:"paths"`

	// Token is the bearer credential, environment-only.
	Token string `mapstructure:"token"`
}

// Config is the full service configuration.
type Config struct {
	// DataDir holds the SQLite store, the latest-event sidecar, and logs.
	DataDir string `mapstructure:"data_dir"`

	// BundlePath is the bundled "last known good" snapshot shipped with
	// the deploy, consumed once at startup by the reconciler.
	BundlePath string `mapstructure:"bundle_path"`

	// Debounce is the sync scheduler's quiet window.
	Debounce time.Duration `mapstructure:"debounce"`

	// LivePort is the WebSocket event server port.
	LivePort int `mapstructure:"live_port"`

	// LogFile, when set, routes logs through a rotating file in addition
	// to stderr.
	LogFile string `mapstructure:"log_file"`

	Remote Remote `mapstructure:"remote"`
}

// StorePath returns the SQLite database location under DataDir.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "rozanews.db")
}

// Load reads configuration from the given file, or from rozanews.yaml in
// the working directory and ~/.config/rozanews when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", ".rozanews")
	v.SetDefault("bundle_path", "seed/snapshot.json")
	v.SetDefault("debounce", 10*time.Second)
	v.SetDefault("live_port", 8674)
	v.SetDefault("log_file", "")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.branch", "main")
	v.SetDefault("remote.paths", []string{"data/content.json", "content/content.json"})

	v.SetEnvPrefix("ROZANEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Token is env-only; never write it into a config file.
	_ = v.BindEnv("remote.token", "ROZANEWS_CONTENT_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("rozanews")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/rozanews")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			// No config file is fine; defaults plus env apply.
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive (got %v)", c.Debounce)
	}
	if len(c.Remote.Paths) == 0 {
		return fmt.Errorf("remote.paths must list at least one candidate path")
	}
	return nil
}
