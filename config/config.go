// Package config loads daemon configuration from file and environment.
//
// Configuration is explicit: the loaded Config value is passed into
// component constructors. There are no package-level settings beyond
// the viper search paths used during Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all cortexd settings.
type Config struct {
	// SnapshotPath is the well-known path of the durable cache snapshot.
	SnapshotPath string `yaml:"snapshot_path" mapstructure:"snapshot_path"`

	// PluginPath is the native sensor plugin attempted at bootstrap.
	PluginPath string `yaml:"plugin_path" mapstructure:"plugin_path"`

	// Calibration is the additive Z-axis offset applied to sensor
	// vectors before fitting. Zero means raw Z data.
	Calibration float64 `yaml:"calibration" mapstructure:"calibration"`

	// PollInterval is how often the maintenance loop checks the clock.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// UpdateEvery is the elapsed time that triggers a maintenance update.
	UpdateEvery time.Duration `yaml:"update_every" mapstructure:"update_every"`

	// Listen is the address of the operator feed. Empty disables it.
	Listen string `yaml:"listen" mapstructure:"listen"`

	// LogPath is the operational log file.
	LogPath string `yaml:"log_path" mapstructure:"log_path"`

	Recall RecallConfig `yaml:"recall" mapstructure:"recall"`
}

// RecallConfig configures the episodic recall store.
type RecallConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// MinSimilarity filters recalled episodes [0.0-1.0].
	MinSimilarity float64 `yaml:"min_similarity" mapstructure:"min_similarity"`

	// PersistPath stores episodes on disk when set; empty keeps them
	// in memory only.
	PersistPath string `yaml:"persist_path" mapstructure:"persist_path"`
}

// DefaultConfig returns the defaults used when no file or env override
// is present.
func DefaultConfig() *Config {
	return &Config{
		SnapshotPath: "cortex-snapshot.db",
		PluginPath:   "sensors.so",
		Calibration:  0,
		PollInterval: 60 * time.Second,
		UpdateEvery:  24 * time.Hour,
		Listen:       "",
		LogPath:      "cortex.log",
		Recall: RecallConfig{
			Enabled:       true,
			MinSimilarity: 0.3,
		},
	}
}

// Load reads cortex.yaml from the working directory, $XDG_CONFIG_HOME/cortex,
// or ~/.config/cortex, merged over defaults, with CORTEX_* environment
// overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("cortex")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "cortex"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "cortex"))
	}

	v.SetEnvPrefix("CORTEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so
	// every key needs its default registered or env-only overrides
	// would be invisible to Unmarshal.
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file; defaults and env apply.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("snapshot_path", def.SnapshotPath)
	v.SetDefault("plugin_path", def.PluginPath)
	v.SetDefault("calibration", def.Calibration)
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("update_every", def.UpdateEvery)
	v.SetDefault("listen", def.Listen)
	v.SetDefault("log_path", def.LogPath)
	v.SetDefault("recall.enabled", def.Recall.Enabled)
	v.SetDefault("recall.min_similarity", def.Recall.MinSimilarity)
	v.SetDefault("recall.persist_path", def.Recall.PersistPath)
}

func (c *Config) validate() error {
	if c.SnapshotPath == "" {
		return fmt.Errorf("snapshot_path must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.UpdateEvery <= 0 {
		return fmt.Errorf("update_every must be positive, got %s", c.UpdateEvery)
	}
	return nil
}

// fileConfig mirrors Config with human-readable durations for
// generated sample files.
type fileConfig struct {
	SnapshotPath string       `yaml:"snapshot_path"`
	PluginPath   string       `yaml:"plugin_path"`
	Calibration  float64      `yaml:"calibration"`
	PollInterval string       `yaml:"poll_interval"`
	UpdateEvery  string       `yaml:"update_every"`
	Listen       string       `yaml:"listen"`
	LogPath      string       `yaml:"log_path"`
	Recall       RecallConfig `yaml:"recall"`
}

// WriteDefault writes a commented-free sample config with default
// values to path. Existing files are not overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	def := DefaultConfig()
	out, err := yaml.Marshal(fileConfig{
		SnapshotPath: def.SnapshotPath,
		PluginPath:   def.PluginPath,
		Calibration:  def.Calibration,
		PollInterval: def.PollInterval.String(),
		UpdateEvery:  def.UpdateEvery.String(),
		Listen:       def.Listen,
		LogPath:      def.LogPath,
		Recall:       def.Recall,
	})
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
