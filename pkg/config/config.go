package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete modelstage configuration.
//
// It captures everything the staging pipeline needs:
//   - Logging behavior
//   - Fetch settings (extension allow-list, depth cap, concurrency)
//   - Staging area location
//   - Storage backend options (S3 credentials, endpoint)
//   - Staged-version ledger
//   - Metrics exposure
//   - The models to resolve and stage
//
// Configuration sources (in order of precedence):
//  1. Environment variables (MODELSTAGE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Fetch controls the recursive fetch pipeline.
	Fetch FetchConfig `mapstructure:"fetch"`

	// Storage holds backend-specific options, keyed by scheme.
	Storage StorageConfig `mapstructure:"storage"`

	// Ledger configures the staged-version record database.
	Ledger LedgerConfig `mapstructure:"ledger"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Models lists the model repositories to stage.
	Models []ModelConfig `mapstructure:"models" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output is where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required"`
}

// FetchConfig controls the recursive fetch pipeline.
type FetchConfig struct {
	// StagingRoot is the local directory that receives staged model trees.
	StagingRoot string `mapstructure:"staging_root" validate:"required"`

	// AcceptedExtensions is the allow-list of file suffixes that get
	// staged. Empty accepts everything.
	AcceptedExtensions []string `mapstructure:"accepted_extensions"`

	// MaxDepth caps tree recursion depth.
	MaxDepth int `mapstructure:"max_depth" validate:"gte=0"`

	// Concurrency bounds parallel sibling file downloads. <= 1 keeps the
	// fetch sequential.
	Concurrency int `mapstructure:"concurrency" validate:"gte=0"`

	// RequestsPerSecond throttles listing and download requests against
	// the storage backend. 0 means unlimited.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`

	// Burst is the throttle's token bucket capacity. Only meaningful when
	// RequestsPerSecond is set.
	Burst int `mapstructure:"burst" validate:"gte=0"`
}

// StorageConfig holds backend-specific option maps. Only the section
// matching a model URI's scheme is used for that model.
type StorageConfig struct {
	// S3 contains S3-specific options (region, endpoint, credentials).
	S3 map[string]any `mapstructure:"s3"`
}

// LedgerConfig configures the staged-version ledger.
type LedgerConfig struct {
	// Enabled turns the ledger on.
	Enabled bool `mapstructure:"enabled"`

	// Path is the BadgerDB directory. Required when enabled.
	Path string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics HTTP listener on.
	Enabled bool `mapstructure:"enabled"`

	// Port for the metrics listener.
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// ModelConfig describes one model repository.
type ModelConfig struct {
	// Name is the model's unique identifier, used as the staging
	// subdirectory and ledger key.
	Name string `mapstructure:"name" validate:"required"`

	// Path is the model root URI. The scheme selects the backend:
	// s3://bucket/prefix or a local path.
	Path string `mapstructure:"path" validate:"required"`

	// Policy selects which resolved versions get staged.
	Policy PolicyConfig `mapstructure:"policy"`
}

// PolicyConfig selects model versions. Zero value stages all versions.
type PolicyConfig struct {
	// Latest stages only the N highest versions. 0 disables the rule.
	Latest int `mapstructure:"latest" validate:"gte=0"`

	// Versions stages exactly these versions.
	Versions []int64 `mapstructure:"versions" validate:"dive,gte=0"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable support and file lookup.
// Environment variables use the MODELSTAGE_ prefix with underscores,
// e.g. MODELSTAGE_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("MODELSTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is acceptable; defaults and environment variables still apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory, preferring
// XDG_CONFIG_HOME and falling back to ~/.config.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "modelstage")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "modelstage")
}
