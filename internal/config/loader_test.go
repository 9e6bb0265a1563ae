package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeProject drops an engram.yaml with the given content into dir.
func writeProject(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadReadsProjectFile(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, `
name: recall-service
version: "3.1"
storage:
  driver: memory
  data_dir: /tmp/recall
search:
  default_limit: 5
logging:
  level: warn
  format: json
  file: ./recall.log
lifecycle:
  recency_decay_hours: 72
  base_decay_rate: 0.05
agent:
  idle_timeout: 45s
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Name != "recall-service" || cfg.Version != "3.1" {
		t.Errorf("project identity not read: %s v%s", cfg.Name, cfg.Version)
	}
	if cfg.Storage.Driver != "memory" || cfg.Storage.DataDir != "/tmp/recall" {
		t.Errorf("storage not read: %+v", cfg.Storage)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("expected default_limit 5, got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" || cfg.Logging.File != "./recall.log" {
		t.Errorf("logging not read: %+v", cfg.Logging)
	}
	if cfg.Lifecycle.RecencyDecayHours != 72 {
		t.Errorf("expected recency_decay_hours 72, got %v", cfg.Lifecycle.RecencyDecayHours)
	}
	if cfg.Lifecycle.BaseDecayRate != 0.05 {
		t.Errorf("expected base_decay_rate 0.05, got %v", cfg.Lifecycle.BaseDecayRate)
	}
	if cfg.Agent.IdleTimeout != "45s" {
		t.Errorf("expected idle_timeout 45s, got %s", cfg.Agent.IdleTimeout)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("a missing file should not be an error, got %v", err)
	}

	def := Default()
	if cfg.Name != def.Name {
		t.Errorf("expected default name %s, got %s", def.Name, cfg.Name)
	}
	if cfg.Storage != def.Storage {
		t.Errorf("expected default storage %+v, got %+v", def.Storage, cfg.Storage)
	}
	if cfg.Lifecycle.Thresholds != def.Lifecycle.Thresholds {
		t.Errorf("expected default thresholds, got %+v", cfg.Lifecycle.Thresholds)
	}
}

func TestLoadFileRequiresExplicitPath(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("an explicitly named missing file should be an error")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "storage: [unbalanced")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoadRunsValidation(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "storage:\n  driver: postgres\n")

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected a validation error for an unknown driver")
	}
	if !strings.Contains(err.Error(), "postgres") {
		t.Errorf("error should name the offending driver: %v", err)
	}
}

func TestLoadFillsOmittedFields(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "name: sparse\nsearch:\n  default_limit: 3\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.DefaultLimit != 3 {
		t.Errorf("explicit value overwritten: got %d", cfg.Search.DefaultLimit)
	}

	def := Default()
	if cfg.Storage.DataDir != def.Storage.DataDir {
		t.Errorf("expected default data_dir, got %s", cfg.Storage.DataDir)
	}
	if cfg.Logging.Level != def.Logging.Level {
		t.Errorf("expected default level, got %s", cfg.Logging.Level)
	}
	if cfg.Lifecycle.Thresholds != def.Lifecycle.Thresholds {
		t.Errorf("expected default thresholds, got %+v", cfg.Lifecycle.Thresholds)
	}
	if !cfg.Lifecycle.Decay() {
		t.Error("decay should default on")
	}
}

func TestDecayStaysOffWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "lifecycle:\n  decay_enabled: false\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Lifecycle.Decay() {
		t.Error("decay_enabled: false should survive defaulting")
	}
}

func TestPlaceholderExpansionDuringLoad(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, `
name: ${RECALL_NAME}
storage:
  data_dir: ${env.RECALL_DIR}
`)
	t.Setenv("RECALL_NAME", "from-env")
	t.Setenv("RECALL_DIR", "/srv/recall")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("expected from-env, got %s", cfg.Name)
	}
	if cfg.Storage.DataDir != "/srv/recall" {
		t.Errorf("expected /srv/recall, got %s", cfg.Storage.DataDir)
	}
}

func TestExpandPlaceholderForms(t *testing.T) {
	t.Setenv("ENGRAM_TPL_A", "alpha")
	t.Setenv("ENGRAM_TPL_B", "beta")

	in := []byte("a: ${ENGRAM_TPL_A}\nb: ${env.ENGRAM_TPL_B}\nc: ${memory.id}\n")
	got := string(expandPlaceholders(in))
	want := "a: alpha\nb: beta\nc: ${memory.id}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPlaceholderSurvivesWhenUnset(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "name: ${RECALL_NOT_SET_ANYWHERE}\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "${RECALL_NOT_SET_ANYWHERE}" {
		t.Errorf("unset placeholder should stay literal, got %s", cfg.Name)
	}
}

func TestParsedIdleTimeout(t *testing.T) {
	a := &AgentConfig{}
	d, err := a.ParsedIdleTimeout()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Errorf("expected 0 for empty timeout, got %v", d)
	}

	a = &AgentConfig{IdleTimeout: "10m"}
	d, err = a.ParsedIdleTimeout()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 10*time.Minute {
		t.Errorf("expected 10m, got %v", d)
	}

	a = &AgentConfig{IdleTimeout: "not-a-duration"}
	if _, err := a.ParsedIdleTimeout(); err == nil {
		t.Error("expected error for bad duration")
	}
}
