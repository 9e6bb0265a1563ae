//go:build integration

package integration

import (
	"testing"

	"github.com/engram-oss/engram/internal/agent"
	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/telemetry"
)

func sqliteConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Driver = "sqlite"
	return cfg
}

func openRuntime(t *testing.T, id, dir string) *agent.Runtime {
	t.Helper()
	r, err := agent.NewBuilder().
		ID(id).
		Config(sqliteConfig()).
		DataDir(dir).
		Logger(telemetry.NewLogger(false)).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestMemoryPersistenceAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	// --- Run 1: store memories with options, close ---
	r1 := openRuntime(t, "persistent", dir)

	id1, err := r1.Remember("Alice met Bob in Paris in 2023")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := r1.Remember("Bob works at a tech company",
		agent.WithTags("work"), agent.WithPriority(memory.PriorityHigh))
	if err != nil {
		t.Fatal(err)
	}
	id3, err := r1.RememberFact("The API limit is 100 requests per minute")
	if err != nil {
		t.Fatal(err)
	}

	// Read one memory so its access bookkeeping has something to survive.
	if _, err := r1.GetMemory(id1); err != nil {
		t.Fatal(err)
	}

	if err := r1.Close(); err != nil {
		t.Fatal(err)
	}

	// --- Run 2: new instance, everything must still be there ---
	r2 := openRuntime(t, "persistent", dir)
	defer r2.Close()

	count, err := r2.CountMemories()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 persisted memories, got %d", count)
	}

	rec, err := r2.GetMemory(id1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Content != "Alice met Bob in Paris in 2023" {
		t.Errorf("expected content to survive restart, got %q", rec.Content)
	}
	if rec.AccessCount != 2 {
		t.Errorf("expected access count to survive restart and bump, got %d", rec.AccessCount)
	}

	tagged, err := r2.GetMemory(id2)
	if err != nil {
		t.Fatal(err)
	}
	if !tagged.HasTag("work") || tagged.Priority() != memory.PriorityHigh {
		t.Errorf("expected tags and priority to survive, got %v", tagged.Properties)
	}

	fact, err := r2.GetMemory(id3)
	if err != nil {
		t.Fatal(err)
	}
	if fact.Kind() != memory.KindFact {
		t.Errorf("expected kind to survive, got %q", fact.Kind())
	}

	// The rebuilt index answers searches over persisted data.
	results, err := r2.SearchMemories("Alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != id1 {
		t.Fatalf("expected rebuilt index to find Alice, got %d results", len(results))
	}
	results, err = r2.SearchMemories("Bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].ID != id2 || results[1].ID != id1 {
		t.Fatalf("expected most recent first after restart, got %d results", len(results))
	}

	// New memories land in the same database.
	if _, err := r2.Remember("Carol joined the team"); err != nil {
		t.Fatal(err)
	}
	count, err = r2.CountMemories()
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("expected 4 memories after the new write, got %d", count)
	}
}

func TestForgetPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	r1 := openRuntime(t, "forgetter", dir)
	id, err := r1.Remember("scratch data to drop")
	if err != nil {
		t.Fatal(err)
	}
	keep, err := r1.Remember("data to keep")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r1.Forget(id); err != nil {
		t.Fatal(err)
	}
	if err := r1.Close(); err != nil {
		t.Fatal(err)
	}

	r2 := openRuntime(t, "forgetter", dir)
	defer r2.Close()

	rec, err := r2.GetMemory(id)
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Error("expected forgotten memory to stay gone after restart")
	}
	rec, err = r2.GetMemory(keep)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Error("expected untouched memory to survive")
	}
	results, err := r2.SearchMemories("scratch")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no hits for forgotten content, got %d", len(results))
	}
}

func TestAgentIsolation(t *testing.T) {
	dir := t.TempDir()

	alice := openRuntime(t, "alice", dir)
	defer alice.Close()
	bob := openRuntime(t, "bob", dir)
	defer bob.Close()

	if _, err := alice.Remember("alice's secret project notes"); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Remember("bob's grocery list"); err != nil {
		t.Fatal(err)
	}

	results, err := alice.SearchMemories("grocery")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected alice not to see bob's memories, got %d hits", len(results))
	}

	results, err = bob.SearchMemories("secret")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected bob not to see alice's memories, got %d hits", len(results))
	}

	countA, err := alice.CountMemories()
	if err != nil {
		t.Fatal(err)
	}
	countB, err := bob.CountMemories()
	if err != nil {
		t.Fatal(err)
	}
	if countA != 1 || countB != 1 {
		t.Errorf("expected one memory each, got alice=%d bob=%d", countA, countB)
	}
}
