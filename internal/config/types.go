package config

import "time"

// Config represents the main project configuration (engram.yaml)
type Config struct {
	Name      string          `yaml:"name" json:"name"`
	Version   string          `yaml:"version" json:"version"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Lifecycle LifecycleConfig `yaml:"lifecycle" json:"lifecycle"`
	Agent     AgentConfig     `yaml:"agent" json:"agent"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Hooks     HooksConfig     `yaml:"hooks" json:"hooks"`
}

// StorageConfig configures memory storage
type StorageConfig struct {
	Driver  string `yaml:"driver" json:"driver"`     // sqlite, memory
	DataDir string `yaml:"data_dir" json:"data_dir"` // root for per-agent databases
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// SearchConfig configures search behavior
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
}

// LifecycleConfig configures the forgetting curve
type LifecycleConfig struct {
	DecayEnabled              *bool            `yaml:"decay_enabled,omitempty" json:"decay_enabled,omitempty"`
	RecencyDecayHours         float64          `yaml:"recency_decay_hours" json:"recency_decay_hours"`
	AccessCountWeight         float64          `yaml:"access_count_weight" json:"access_count_weight"`
	EmotionalWeightMultiplier float64          `yaml:"emotional_weight_multiplier" json:"emotional_weight_multiplier"`
	BaseDecayRate             float64          `yaml:"base_decay_rate" json:"base_decay_rate"`
	Thresholds                ThresholdsConfig `yaml:"thresholds" json:"thresholds"`
}

// ThresholdsConfig sets the relevance level bounds
type ThresholdsConfig struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
	Low    float64 `yaml:"low" json:"low"`
}

// AgentConfig configures agent runtime behavior
type AgentConfig struct {
	IdleTimeout string `yaml:"idle_timeout,omitempty" json:"idle_timeout,omitempty"` // e.g. "10m"; empty disables
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"` // JSONL file; empty disables
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, log
	Events   []string `yaml:"events" json:"events"` // event types to match
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks (debug, info, warn)
}

// Decay reports whether forgetting-curve calculations are on. Unset
// defaults to enabled.
func (l *LifecycleConfig) Decay() bool {
	return l.DecayEnabled == nil || *l.DecayEnabled
}

// ParsedIdleTimeout converts the idle timeout string to time.Duration
func (a *AgentConfig) ParsedIdleTimeout() (time.Duration, error) {
	if a.IdleTimeout == "" {
		return 0, nil // idle transition disabled
	}
	return time.ParseDuration(a.IdleTimeout)
}
