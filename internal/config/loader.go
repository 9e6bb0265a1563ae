package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/engram-oss/engram/internal/errors"
)

// FileName is the project configuration file Load looks for.
const FileName = "engram.yaml"

// placeholderPattern matches ${VAR} and ${env.VAR} references. Names are
// restricted to environment identifier characters, so dotted forms such as
// ${memory.id} pass through untouched.
var placeholderPattern = regexp.MustCompile(`\$\{(?:env\.)?([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the project configuration from dir. A missing file is not an
// error; the built-in defaults are returned instead.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(dir, FileName))
	if stderrors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// LoadFile reads the configuration at an explicit path, for callers carrying
// a --config flag. Unlike Load, a missing file is an error here: the caller
// named a file and should hear when it is absent.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfigInvalid, "failed to read config file", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandPlaceholders(raw), &cfg); err != nil {
		return nil, errors.Wrap(errors.CodeConfigInvalid, "failed to parse config", err).
			WithSuggestion("check " + FileName + " for YAML syntax errors")
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandPlaceholders substitutes environment values for ${VAR} and
// ${env.VAR}. An unset or empty variable keeps the literal placeholder so
// the problem surfaces in validation instead of as a silent blank value.
func expandPlaceholders(raw []byte) []byte {
	return placeholderPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := string(placeholderPattern.FindSubmatch(match)[1])
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return []byte(val)
		}
		return match
	})
}

// Default returns the built-in configuration, the same one Load falls back
// to when no engram.yaml exists.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Name:    "engram-project",
		Version: "1.0",
		Storage: StorageConfig{
			Driver:  "sqlite",
			DataDir: "./data/memory",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Search: SearchConfig{
			DefaultLimit: 10,
		},
		Lifecycle: LifecycleConfig{
			RecencyDecayHours:         168.0,
			AccessCountWeight:         0.1,
			EmotionalWeightMultiplier: 1.5,
			BaseDecayRate:             0.01,
			Thresholds: ThresholdsConfig{
				High:   0.7,
				Medium: 0.4,
				Low:    0.1,
			},
		},
	}
}

// applyDefaults fills unset fields from defaultConfig so every default
// value lives in exactly one place.
func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = def.Storage.DataDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = def.Search.DefaultLimit
	}
	if cfg.Lifecycle.RecencyDecayHours == 0 {
		cfg.Lifecycle.RecencyDecayHours = def.Lifecycle.RecencyDecayHours
	}
	if cfg.Lifecycle.AccessCountWeight == 0 {
		cfg.Lifecycle.AccessCountWeight = def.Lifecycle.AccessCountWeight
	}
	if cfg.Lifecycle.EmotionalWeightMultiplier == 0 {
		cfg.Lifecycle.EmotionalWeightMultiplier = def.Lifecycle.EmotionalWeightMultiplier
	}
	if cfg.Lifecycle.BaseDecayRate == 0 {
		cfg.Lifecycle.BaseDecayRate = def.Lifecycle.BaseDecayRate
	}
	if cfg.Lifecycle.Thresholds == (ThresholdsConfig{}) {
		cfg.Lifecycle.Thresholds = def.Lifecycle.Thresholds
	}
}
