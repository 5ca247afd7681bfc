package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/sendmessage/internal/tailoring"
)

const (
	// DefaultFileName is looked up next to the executable.
	DefaultFileName = "config.yml"

	defaultTimeout     = 10 * time.Second
	defaultConcurrency = 1
	defaultLogLevel    = "warn"

	optionsKey = "options"
	enabledKey = "enabled"
)

// Environment variables read by Load.
const (
	EnvTimeout        = "SENDMESSAGE_TIMEOUT"
	EnvConcurrency    = "SENDMESSAGE_CONCURRENCY"
	EnvLogLevel       = "SENDMESSAGE_LOG_LEVEL"
	EnvRateLimitRPS   = "SENDMESSAGE_RATE_LIMIT_RPS"
	EnvRateLimitBurst = "SENDMESSAGE_RATE_LIMIT_BURST"
)

// executable is swapped in tests.
var executable = os.Executable

// Channel is one channel section of the configuration file.
type Channel struct {
	Name   string
	Values tailoring.Values
}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: YAML options > Environment variables > Defaults
type Config struct {
	Path           string
	Channels       []Channel
	Timeout        time.Duration
	Concurrency    int
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
}

// yamlOptions represents the reserved options section.
type yamlOptions struct {
	Timeout     string        `yaml:"timeout"`
	Concurrency *int          `yaml:"concurrency"`
	RateLimit   yamlRateLimit `yaml:"rate_limit"`
	LogLevel    string        `yaml:"log_level"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides. The command line only
// names the configuration file.
type CLIOverrides struct {
	ConfigFile string
}

// Load reads the configuration file named by overrides (DefaultFileName when
// empty) and resolves the run options. Every failure wraps ErrConfigLoad.
func Load(overrides *CLIOverrides) (Config, error) {
	var file string
	if overrides != nil {
		file = overrides.ConfigFile
	}
	path, err := ResolvePath(file)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	cfg := defaultConfig()
	cfg.Path = path

	// Environment first so the file can override it
	applyEnvConfig(&cfg)

	channels, opts, err := loadFromFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrConfigLoad, path, err)
	}
	cfg.Channels = channels

	errs := applyYAMLOptions(&cfg, opts)
	errs = multierr.Append(errs, validateConfig(cfg))
	if errs != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrConfigLoad, path, errs)
	}

	return cfg, nil
}

// ResolvePath returns the configuration file path. A bare file name (or an
// empty one, meaning DefaultFileName) is looked up next to the executable.
func ResolvePath(file string) (string, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		file = DefaultFileName
	}
	if filepath.Base(file) != file {
		return file, nil
	}

	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), file), nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Timeout:     defaultTimeout,
		Concurrency: defaultConcurrency,
		LogLevel:    defaultLogLevel,
	}
}

// loadFromFile reads the channel sections in file order plus the options
// section.
func loadFromFile(path string) ([]Channel, *yamlOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("parse YAML: top level must be a mapping of channel names")
	}

	root := doc.Content[0]
	var (
		channels []Channel
		opts     yamlOptions
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		if key.Value == optionsKey {
			if err := value.Decode(&opts); err != nil {
				return nil, nil, fmt.Errorf("line %d: options: %w", value.Line, err)
			}
			continue
		}

		// Null and non-mapping sections are not channels.
		if value.Kind != yaml.MappingNode {
			continue
		}
		var values tailoring.Values
		if err := value.Decode(&values); err != nil {
			return nil, nil, fmt.Errorf("line %d: %s: %w", value.Line, key.Value, err)
		}
		if enabled, ok := values[enabledKey].(bool); ok && !enabled {
			continue
		}
		channels = append(channels, Channel{Name: key.Value, Values: values})
	}

	return channels, &opts, nil
}

// applyYAMLOptions applies the options section and reports values that
// cannot be parsed.
func applyYAMLOptions(cfg *Config, opts *yamlOptions) error {
	var errs error

	if raw := strings.TrimSpace(opts.Timeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("options.timeout: %w", err))
		} else {
			cfg.Timeout = d
		}
	}

	if opts.Concurrency != nil {
		cfg.Concurrency = *opts.Concurrency
	}

	if opts.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *opts.RateLimit.RPS
	}

	if opts.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *opts.RateLimit.Burst
	}

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.LogLevel = level
	}

	return errs
}

// applyEnvConfig applies environment variable configuration. Unparseable
// values are ignored.
func applyEnvConfig(cfg *Config) {
	if raw := strings.TrimSpace(os.Getenv(EnvTimeout)); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvConcurrency)); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.Concurrency = value
		}
	}

	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv(EnvRateLimitRPS)); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv(EnvRateLimitBurst)); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	var errs error
	if cfg.Timeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout))
	}
	if cfg.Concurrency < 1 {
		errs = multierr.Append(errs, fmt.Errorf("concurrency must be >= 1, got %d", cfg.Concurrency))
	}
	if cfg.RateLimitRPS < 0 {
		errs = multierr.Append(errs, fmt.Errorf("rate_limit.rps must be >= 0"))
	}
	if cfg.RateLimitBurst < 0 {
		errs = multierr.Append(errs, fmt.Errorf("rate_limit.burst must be >= 0"))
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errs
}
