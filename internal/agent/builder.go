package agent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/event"
	"github.com/engram-oss/engram/internal/ident"
	"github.com/engram-oss/engram/internal/lifecycle"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/search"
	"github.com/engram-oss/engram/internal/state"
	"github.com/engram-oss/engram/internal/telemetry"
)

// Builder assembles an agent Runtime. ID is required; everything else has
// a working default.
type Builder struct {
	id          string
	description string
	dataDir     string
	cfg         *config.Config
	clock       ident.Clock
	ids         ident.IDGenerator
	logger      *telemetry.Logger
	metrics     *telemetry.Metrics
	bus         *event.Bus
	store       memory.Store
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// ID sets the agent identifier. Required.
func (b *Builder) ID(id string) *Builder {
	b.id = id
	return b
}

// Description sets the agent description. Defaults to "Agent <id>".
func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// DataDir overrides the configured storage root.
func (b *Builder) DataDir(dir string) *Builder {
	b.dataDir = dir
	return b
}

// Config sets the configuration. Defaults to config.Default().
func (b *Builder) Config(cfg *config.Config) *Builder {
	b.cfg = cfg
	return b
}

// Clock injects a clock. Defaults to the system clock.
func (b *Builder) Clock(clock ident.Clock) *Builder {
	b.clock = clock
	return b
}

// IDs injects an id generator. Defaults to random UUIDs.
func (b *Builder) IDs(ids ident.IDGenerator) *Builder {
	b.ids = ids
	return b
}

// Logger injects a logger. Defaults to a stderr logger.
func (b *Builder) Logger(logger *telemetry.Logger) *Builder {
	b.logger = logger
	return b
}

// Metrics injects a metrics collector, letting several agents share one.
func (b *Builder) Metrics(metrics *telemetry.Metrics) *Builder {
	b.metrics = metrics
	return b
}

// Bus injects an event bus. When no bus is injected and hooks are enabled
// in the configuration, Build assembles a bus from the hooks section.
func (b *Builder) Bus(bus *event.Bus) *Builder {
	b.bus = bus
	return b
}

// Store injects a memory store instead of opening one from the storage
// configuration. This enables testing with scripted stores.
func (b *Builder) Store(store memory.Store) *Builder {
	b.store = store
	return b
}

// Build opens the agent's store, rebuilds the search index from it and
// returns a ready runtime. The caller owns the runtime and must Close it.
func (b *Builder) Build() (*Runtime, error) {
	if strings.TrimSpace(b.id) == "" {
		return nil, errors.New(errors.CodeInvalidInput, "agent id is required").
			WithSuggestion("Set an id with Builder.ID before calling Build")
	}
	if strings.ContainsAny(b.id, `/\`) {
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid agent id: %s", b.id)).
			WithSuggestion("Agent ids become directory names and cannot contain path separators")
	}

	cfg := b.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	clock := b.clock
	if clock == nil {
		clock = ident.SystemClock{}
	}
	ids := b.ids
	if ids == nil {
		ids = ident.UUIDGenerator{}
	}
	logger := b.logger
	if logger == nil {
		logger = telemetry.NewLogger(false)
	}
	metrics := b.metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	description := b.description
	if description == "" {
		description = "Agent " + b.id
	}
	dataDir := b.dataDir
	if dataDir == "" {
		dataDir = cfg.Storage.DataDir
	}

	idleTimeout, err := cfg.Agent.ParsedIdleTimeout()
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfigInvalid, "invalid agent.idle_timeout", err).
			WithSuggestion("Use a Go duration such as 10m or 1h30m")
	}

	bus := b.bus
	if bus == nil && cfg.Hooks.Enabled {
		bus = event.NewBus(logger)
		for _, h := range buildHooks(cfg.Hooks.Hooks, logger) {
			bus.Register(h)
		}
	}

	store := b.store
	if store == nil {
		dbPath := filepath.Join(dataDir, b.id, "memory.db")
		store, err = memory.Open(cfg.Storage.Driver, dbPath, ids, clock)
		if err != nil {
			return nil, err
		}
	}

	idx := search.NewIndex()
	entries := 0
	err = store.Iterate(func(rec *memory.Record) error {
		idx.Index(rec.ID, rec.Content)
		entries++
		return nil
	})
	if err != nil {
		store.Close()
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to rebuild search index", err)
	}

	r := &Runtime{
		id:          b.id,
		description: description,
		store:       store,
		index:       idx,
		tracker:     state.NewTracker(clock, idleTimeout),
		scopes:      map[string]string{"default": "Default scope"},
		curve:       lifecycle.NewCurve(curveConfig(cfg.Lifecycle)),
		thresholds:  searchThresholds(cfg.Lifecycle.Thresholds),
		searchLimit: searchLimit(cfg.Search.DefaultLimit),
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		bus:         bus,
	}

	if cfg.Metrics.Path != "" {
		exp, err := telemetry.NewJSONFileExporter(cfg.Metrics.Path)
		if err != nil {
			logger.Warn("Failed to open metrics exporter", "path", cfg.Metrics.Path, "error", err)
		} else {
			metrics.SetExporter(exp)
			r.exporter = exp
		}
	}

	metrics.AgentOpened()
	metrics.SetIndexEntries(int64(entries))
	r.emit(event.IndexRebuilt, map[string]interface{}{"entries": entries})
	r.emit(event.AgentStarted, map[string]interface{}{"memories": entries})
	logger.Info("Agent runtime started",
		"agent", b.id,
		"driver", driverName(cfg.Storage.Driver),
		"memories", entries,
	)

	return r, nil
}

// buildHooks constructs hooks from configuration. Unknown types are
// skipped with a warning so one bad hook cannot take down the agent.
func buildHooks(configs []config.HookConfig, logger *telemetry.Logger) []event.Hook {
	hooks := make([]event.Hook, 0, len(configs))
	for _, hc := range configs {
		events := make([]event.EventType, 0, len(hc.Events))
		for _, e := range hc.Events {
			events = append(events, event.EventType(e))
		}
		switch hc.Type {
		case "shell":
			hooks = append(hooks, event.NewShellHook(hc.Name, hc.Command, events, hc.Blocking))
		case "webhook":
			hooks = append(hooks, event.NewWebhookHook(hc.Name, hc.URL, events, hc.Blocking))
		case "log":
			hooks = append(hooks, event.NewLogHook(hc.Name, events, logger, hc.Level))
		default:
			logger.Warn("Unknown hook type", "hook", hc.Name, "type", hc.Type)
		}
	}
	return hooks
}

// curveConfig maps the lifecycle configuration onto curve parameters,
// filling unset values with the stock curve.
func curveConfig(lc config.LifecycleConfig) lifecycle.Config {
	cc := lifecycle.DefaultConfig()
	cc.Enabled = lc.Decay()
	if lc.RecencyDecayHours > 0 {
		cc.RecencyDecayHours = lc.RecencyDecayHours
	}
	if lc.AccessCountWeight > 0 {
		cc.AccessCountWeight = lc.AccessCountWeight
	}
	if lc.EmotionalWeightMultiplier > 0 {
		cc.EmotionalWeightMultiplier = lc.EmotionalWeightMultiplier
	}
	if lc.BaseDecayRate > 0 {
		cc.BaseDecayRate = lc.BaseDecayRate
	}
	return cc
}

func searchThresholds(tc config.ThresholdsConfig) lifecycle.Thresholds {
	if tc == (config.ThresholdsConfig{}) {
		return lifecycle.DefaultThresholds()
	}
	return lifecycle.Thresholds{High: tc.High, Medium: tc.Medium, Low: tc.Low}
}

func searchLimit(n int) int {
	if n <= 0 {
		return 10
	}
	return n
}

func driverName(driver string) string {
	if driver == "" {
		return "memory"
	}
	return driver
}
