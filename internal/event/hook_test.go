package event

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestHookMetaSubscriptions(t *testing.T) {
	hook := NewShellHook("filtered", "true", []EventType{MemoryStored, MemoryRemoved}, false)

	subs := hook.Subscriptions()
	if len(subs) != 2 || subs[0] != MemoryStored || subs[1] != MemoryRemoved {
		t.Errorf("unexpected subscriptions: %v", subs)
	}

	catchAll := NewShellHook("all", "true", nil, false)
	if len(catchAll.Subscriptions()) != 0 {
		t.Error("expected no subscriptions for a catch-all hook")
	}
}

func TestShellHookSeesEventEnvironment(t *testing.T) {
	hook := NewShellHook("env-check",
		`test "$ENGRAM_EVENT_TYPE" = "memory.stored" && test "$ENGRAM_EVENT_AGENT" = "agent-a"`,
		nil, true)

	err := hook.Handle(NewEvent(MemoryStored, "agent-a", map[string]interface{}{"id": "mem_1"}))
	if err != nil {
		t.Fatalf("expected the event environment to be visible: %v", err)
	}
}

func TestShellHookFailureCarriesOutput(t *testing.T) {
	hook := NewShellHook("noisy", "echo boom; exit 3", nil, true)

	err := hook.Handle(NewEvent(MemoryStored, "agent-a", nil))
	if err == nil {
		t.Fatal("expected an error from a failing command")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected the command output in the error, got %q", err.Error())
	}
}

func TestWebhookHookPostsEvent(t *testing.T) {
	var received struct {
		mu          sync.Mutex
		body        []byte
		contentType string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received.mu.Lock()
		received.body = body
		received.contentType = r.Header.Get("Content-Type")
		received.mu.Unlock()
	}))
	defer server.Close()

	hook := NewWebhookHook("notify", server.URL, []EventType{AgentStopped}, true)
	err := hook.Handle(NewEvent(AgentStopped, "agent-a", map[string]interface{}{"memories": 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	received.mu.Lock()
	defer received.mu.Unlock()

	if received.contentType != "application/json" {
		t.Errorf("expected application/json, got %q", received.contentType)
	}
	var payload Event
	if err := json.Unmarshal(received.body, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.Type != AgentStopped || payload.Agent != "agent-a" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestWebhookHookRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook := NewWebhookHook("notify", server.URL, nil, true)
	if err := hook.Handle(NewEvent(AgentStopped, "agent-a", nil)); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestWebhookHookUnreachableEndpoint(t *testing.T) {
	hook := NewWebhookHook("notify", "http://127.0.0.1:1/nope", nil, true)
	if err := hook.Handle(NewEvent(MemoryStored, "agent-a", nil)); err == nil {
		t.Fatal("expected an error for an unreachable endpoint")
	}
}

func TestLogHookWritesAtConfiguredLevel(t *testing.T) {
	logger := newTestLogger()
	hook := NewLogHook("audit", []EventType{MemoryStored}, logger, "warn")

	if err := hook.Handle(NewEvent(MemoryStored, "agent-a", map[string]interface{}{"id": "mem_1"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warnings) != 1 || logger.warnings[0] != "Lifecycle event" {
		t.Errorf("expected one warn-level event line, got %v", logger.warnings)
	}
}

func TestLogHookDefaultsToInfoAndNeverBlocks(t *testing.T) {
	logger := newTestLogger()
	hook := NewLogHook("audit", nil, logger, "")

	if hook.IsBlocking() {
		t.Error("log hooks must be non-blocking")
	}
	if err := hook.Handle(NewEvent(AgentStarted, "agent-a", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warnings) != 0 {
		t.Error("info-level hook must not write warnings")
	}
}
