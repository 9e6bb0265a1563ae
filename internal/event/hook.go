package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"
)

// Hook consumes lifecycle events.
type Hook interface {
	// Name identifies the hook in logs and error messages.
	Name() string
	// Subscriptions lists the event types the hook wants. Empty means
	// every type.
	Subscriptions() []EventType
	// IsBlocking reports whether Emit waits for the hook and surfaces
	// its error.
	IsBlocking() bool
	// Handle processes one event.
	Handle(ev Event) error
}

// hookMeta carries the identity fields shared by the built-in hooks.
type hookMeta struct {
	name     string
	events   []EventType
	blocking bool
}

func (m hookMeta) Name() string               { return m.name }
func (m hookMeta) Subscriptions() []EventType { return m.events }
func (m hookMeta) IsBlocking() bool           { return m.blocking }

const shellHookTimeout = 30 * time.Second

// ShellHook runs a command through sh -c with the event exposed in the
// environment:
//
//	ENGRAM_EVENT_TYPE   the event type string
//	ENGRAM_EVENT_AGENT  the agent the event belongs to
//	ENGRAM_EVENT_JSON   the full event encoded as JSON
//
// Commands are killed after 30 seconds so a wedged script cannot stall a
// blocking dispatch forever.
type ShellHook struct {
	hookMeta
	Command string
}

func NewShellHook(name, command string, events []EventType, blocking bool) *ShellHook {
	return &ShellHook{
		hookMeta: hookMeta{name: name, events: events, blocking: blocking},
		Command:  command,
	}
}

func (h *ShellHook) Handle(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shellHookTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = append(os.Environ(),
		"ENGRAM_EVENT_TYPE="+ev.Type.String(),
		"ENGRAM_EVENT_AGENT="+ev.Agent,
		"ENGRAM_EVENT_JSON="+string(payload),
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("command failed: %w: %s", err, bytes.TrimSpace(out))
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// WebhookHook POSTs the event as JSON to a URL. This is the only network
// touchpoint in the engine, it exists solely for operator notification and
// never participates in a memory operation's outcome unless configured
// blocking.
type WebhookHook struct {
	hookMeta
	URL    string
	client *http.Client
}

func NewWebhookHook(name, url string, events []EventType, blocking bool) *WebhookHook {
	return &WebhookHook{
		hookMeta: hookMeta{name: name, events: events, blocking: blocking},
		URL:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *WebhookHook) Handle(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// LevelLogger is the logging surface LogHook writes through.
type LevelLogger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
}

// LogHook writes events to the agent's log at a fixed level. Always
// non-blocking; there is nothing useful to fail.
type LogHook struct {
	hookMeta
	logger LevelLogger
	level  string
}

func NewLogHook(name string, events []EventType, logger LevelLogger, level string) *LogHook {
	if level == "" {
		level = "info"
	}
	return &LogHook{
		hookMeta: hookMeta{name: name, events: events, blocking: false},
		logger:   logger,
		level:    level,
	}
}

func (h *LogHook) Handle(ev Event) error {
	keyvals := make([]interface{}, 0, len(ev.Data)*2+4)
	keyvals = append(keyvals, "event", ev.Type.String())
	if ev.Agent != "" {
		keyvals = append(keyvals, "agent", ev.Agent)
	}
	for k, v := range ev.Data {
		keyvals = append(keyvals, k, v)
	}

	write := h.logger.Info
	switch h.level {
	case "debug":
		write = h.logger.Debug
	case "warn":
		write = h.logger.Warn
	}
	write("Lifecycle event", keyvals...)
	return nil
}
