package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/engram-oss/engram/internal/errors"
)

// Validate checks a loaded configuration for contradictions the loader's
// defaults cannot repair.
func Validate(cfg *Config) error {
	var problems []string

	validDrivers := map[string]bool{
		"sqlite": true,
		"memory": true,
		"":       true, // empty defaults to sqlite
	}
	if !validDrivers[cfg.Storage.Driver] {
		problems = append(problems, fmt.Sprintf("invalid storage driver: %s (must be sqlite or memory)", cfg.Storage.Driver))
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"":      true,
	}
	if !validLevels[cfg.Logging.Level] {
		problems = append(problems, fmt.Sprintf("invalid logging level: %s", cfg.Logging.Level))
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"":     true,
	}
	if !validFormats[cfg.Logging.Format] {
		problems = append(problems, fmt.Sprintf("invalid logging format: %s", cfg.Logging.Format))
	}

	if cfg.Search.DefaultLimit < 0 {
		problems = append(problems, "search default_limit must be non-negative")
	}

	if cfg.Lifecycle.RecencyDecayHours < 0 {
		problems = append(problems, "lifecycle recency_decay_hours must be non-negative")
	}
	if cfg.Lifecycle.BaseDecayRate < 0 {
		problems = append(problems, "lifecycle base_decay_rate must be non-negative")
	}

	th := cfg.Lifecycle.Thresholds
	if th.High < th.Medium || th.Medium < th.Low {
		problems = append(problems, "lifecycle thresholds must be ordered high >= medium >= low")
	}
	if th.High > 1 || th.Low < 0 {
		problems = append(problems, "lifecycle thresholds must lie within [0, 1]")
	}

	if cfg.Agent.IdleTimeout != "" {
		if _, err := time.ParseDuration(cfg.Agent.IdleTimeout); err != nil {
			problems = append(problems, fmt.Sprintf("invalid agent idle_timeout %q: %s", cfg.Agent.IdleTimeout, err))
		}
	}

	problems = append(problems, validateHooks(&cfg.Hooks)...)

	if len(problems) > 0 {
		return errors.New(errors.CodeConfigInvalid,
			fmt.Sprintf("config validation failed: %s", strings.Join(problems, "; ")))
	}
	return nil
}

func validateHooks(cfg *HooksConfig) []string {
	var problems []string

	validTypes := map[string]bool{
		"shell":   true,
		"webhook": true,
		"log":     true,
	}
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"":      true, // empty defaults to info
	}

	names := make(map[string]bool)
	for _, h := range cfg.Hooks {
		if h.Name == "" {
			problems = append(problems, "hook name is required")
			continue
		}
		if names[h.Name] {
			problems = append(problems, fmt.Sprintf("duplicate hook name: %s", h.Name))
		}
		names[h.Name] = true

		if !validTypes[h.Type] {
			problems = append(problems, fmt.Sprintf("hook %s has invalid type: %s (must be shell, webhook, or log)", h.Name, h.Type))
		}
		if h.Type == "shell" && h.Command == "" {
			problems = append(problems, fmt.Sprintf("shell hook %s requires a command", h.Name))
		}
		if h.Type == "webhook" && h.URL == "" {
			problems = append(problems, fmt.Sprintf("webhook hook %s requires a url", h.Name))
		}
		if h.Type == "log" && !validLogLevels[h.Level] {
			problems = append(problems, fmt.Sprintf("log hook %s has invalid level: %s", h.Name, h.Level))
		}
	}

	return problems
}
