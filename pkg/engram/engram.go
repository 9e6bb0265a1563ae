// Package engram provides the public API for embedded agent memory.
//
// Example usage:
//
//	import "github.com/engram-oss/engram/pkg/engram"
//
//	// Open an agent (engram.yaml from the working directory, or defaults)
//	a, err := engram.Open("assistant")
//	defer a.Close()
//
//	id, err := a.Remember("Alice met Bob in Paris in 2023")
//	results, err := a.SearchMemories("Alice")
//
//	// One-shot helpers for scripts
//	id, err := engram.Remember("assistant", "Bob works at a tech company")
package engram

import (
	"github.com/engram-oss/engram/internal/agent"
	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/state"
)

// Agent is a runtime bound to one agent's memory store.
type Agent = agent.Runtime

// Memory is one stored record with its bookkeeping.
type Memory = memory.Record

// AgentState is a point-in-time snapshot of an agent's lifecycle.
type AgentState = state.Snapshot

// Status is an agent lifecycle state.
type Status = state.Status

// Config is the project configuration loaded from engram.yaml.
type Config = config.Config

// RememberOption adjusts how a memory is stored.
type RememberOption = agent.RememberOption

// SearchOption adjusts how a search runs.
type SearchOption = agent.SearchOption

const (
	StatusCreated = state.StatusCreated
	StatusActive  = state.StatusActive
	StatusIdle    = state.StatusIdle
	StatusStopped = state.StatusStopped
)

const (
	PriorityLow      = memory.PriorityLow
	PriorityNormal   = memory.PriorityNormal
	PriorityHigh     = memory.PriorityHigh
	PriorityCritical = memory.PriorityCritical

	KindEpisodic     = memory.KindEpisodic
	KindFact         = memory.KindFact
	KindConversation = memory.KindConversation
)

// Option configures an agent under construction.
type Option func(*agent.Builder)

// WithConfig supplies the configuration instead of loading engram.yaml.
func WithConfig(cfg *Config) Option {
	return func(b *agent.Builder) { b.Config(cfg) }
}

// WithDescription sets the agent's description.
func WithDescription(description string) Option {
	return func(b *agent.Builder) { b.Description(description) }
}

// WithDataDir overrides the storage root for this agent.
func WithDataDir(dir string) Option {
	return func(b *agent.Builder) { b.DataDir(dir) }
}

// New builds an agent from explicit options. Without WithConfig it uses the
// built-in defaults, not engram.yaml.
func New(id string, opts ...Option) (*Agent, error) {
	b := agent.NewBuilder().ID(id)
	for _, opt := range opts {
		opt(b)
	}
	return b.Build()
}

// Open builds an agent from engram.yaml in the working directory, falling
// back to defaults when no file exists.
func Open(id string) (*Agent, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	return OpenWithConfig(id, cfg)
}

// OpenWithConfig builds an agent from an already-loaded configuration.
func OpenWithConfig(id string, cfg *Config) (*Agent, error) {
	return agent.NewBuilder().ID(id).Config(cfg).Build()
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// WithTags attaches tags to the stored memory.
func WithTags(tags ...string) RememberOption {
	return agent.WithTags(tags...)
}

// WithPriority sets the stored memory's priority.
func WithPriority(priority string) RememberOption {
	return agent.WithPriority(priority)
}

// WithKind sets the stored memory's kind.
func WithKind(kind string) RememberOption {
	return agent.WithKind(kind)
}

// WithProperty attaches an arbitrary property to the stored memory.
func WithProperty(key string, value interface{}) RememberOption {
	return agent.WithProperty(key, value)
}

// WithLimit caps the number of search results.
func WithLimit(n int) SearchOption {
	return agent.WithLimit(n)
}

// Remember opens the agent, stores one memory and closes it again.
func Remember(agentID, text string, opts ...RememberOption) (string, error) {
	a, err := Open(agentID)
	if err != nil {
		return "", err
	}
	defer a.Close()
	return a.Remember(text, opts...)
}

// Search opens the agent, runs one search and closes it again.
func Search(agentID, query string, opts ...SearchOption) ([]*Memory, error) {
	a, err := Open(agentID)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.SearchMemories(query, opts...)
}

// IsNotFound reports whether err means a memory id does not exist.
func IsNotFound(err error) bool {
	return errors.IsNotFound(err)
}

// IsStopped reports whether err means the agent was stopped.
func IsStopped(err error) bool {
	return errors.IsStopped(err)
}

// ErrorCode returns the machine-readable code carried by err, or "".
func ErrorCode(err error) string {
	return errors.AsCode(err)
}
