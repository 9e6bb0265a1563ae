package memory

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/ident"
)

func newMemTestStore() *MemStore {
	return NewMemStore(ident.NewSequence("mem"), ident.SystemClock{})
}

func TestOpen_Drivers(t *testing.T) {
	ids := ident.NewSequence("mem")
	clock := ident.SystemClock{}

	mem, err := Open("memory", "", ids, clock)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mem.(*MemStore); !ok {
		t.Errorf("expected *MemStore for driver 'memory', got %T", mem)
	}

	def, err := Open("", "", ids, clock)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := def.(*MemStore); !ok {
		t.Errorf("expected *MemStore for empty driver, got %T", def)
	}

	dir := t.TempDir()
	sq, err := Open("sqlite", filepath.Join(dir, "memory.db"), ids, clock)
	if err != nil {
		t.Fatal(err)
	}
	defer sq.Close()
	if _, ok := sq.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore for driver 'sqlite', got %T", sq)
	}

	if _, err := Open("postgres", "", ids, clock); !errors.Is(err, errors.CodeConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID for unknown driver, got %v", err)
	}
}

func TestMemStore_PutGet(t *testing.T) {
	store := newMemTestStore()
	defer store.Close()

	rec, err := store.Put("Alice prefers tea", map[string]interface{}{"topic": "preferences"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "mem_1" {
		t.Errorf("expected id mem_1, got %q", rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be stamped")
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "Alice prefers tea" {
		t.Errorf("expected content round-trip, got %q", got.Content)
	}
	if got.Properties["topic"] != "preferences" {
		t.Errorf("expected property round-trip, got %v", got.Properties)
	}
}

func TestMemStore_GetNotFound(t *testing.T) {
	store := newMemTestStore()
	defer store.Close()

	_, err := store.Get("mem_999")
	if !errors.Is(err, errors.CodeMemoryNotFound) {
		t.Errorf("expected MEMORY_NOT_FOUND, got %v", err)
	}
	if !errors.IsNotFound(err) {
		t.Error("expected IsNotFound to report true")
	}
}

func TestMemStore_CloneIsolation(t *testing.T) {
	store := newMemTestStore()
	defer store.Close()

	rec, err := store.Put("original", map[string]interface{}{"tags": []string{"a"}})
	if err != nil {
		t.Fatal(err)
	}

	// Mutating a returned record must not leak into the store.
	got, _ := store.Get(rec.ID)
	got.Content = "mutated"
	got.Properties["tags"] = []string{"b"}

	again, _ := store.Get(rec.ID)
	if again.Content != "original" {
		t.Errorf("expected stored content unchanged, got %q", again.Content)
	}
	tags := again.Tags()
	if len(tags) != 1 || tags[0] != "a" {
		t.Errorf("expected stored tags unchanged, got %v", tags)
	}
}

func TestMemStore_SetProperties(t *testing.T) {
	store := newMemTestStore()
	defer store.Close()

	rec, _ := store.Put("note", map[string]interface{}{"a": "1", "b": "2"})

	if err := store.SetProperties(rec.ID, map[string]interface{}{"b": "3", "c": "4"}); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(rec.ID)
	if got.Properties["a"] != "1" {
		t.Errorf("expected untouched key to survive, got %v", got.Properties)
	}
	if got.Properties["b"] != "3" {
		t.Errorf("expected key to be overwritten, got %v", got.Properties)
	}
	if got.Properties["c"] != "4" {
		t.Errorf("expected new key to be added, got %v", got.Properties)
	}

	if err := store.SetProperties("mem_999", map[string]interface{}{"x": "y"}); !errors.Is(err, errors.CodeMemoryNotFound) {
		t.Errorf("expected MEMORY_NOT_FOUND, got %v", err)
	}
}

func TestMemStore_DeleteCount(t *testing.T) {
	store := newMemTestStore()
	defer store.Close()

	rec, _ := store.Put("to delete", nil)

	if n, _ := store.Count(); n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}

	removed, err := store.Delete(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Error("expected delete to report true for existing id")
	}

	removed, err = store.Delete(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Error("expected delete to report false for absent id")
	}

	if n, _ := store.Count(); n != 0 {
		t.Errorf("expected 0 records after delete, got %d", n)
	}
}

func TestMemStore_IterateOrder(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	store := NewMemStore(ident.NewSequence("mem"), clock)
	defer store.Close()

	store.Put("first", nil)
	clock.Advance(time.Minute)
	store.Put("second", nil)
	clock.Advance(time.Minute)
	store.Put("third", nil)

	var contents []string
	err := store.Iterate(func(rec *Record) error {
		contents = append(contents, rec.Content)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 records, got %d", len(contents))
	}
	if contents[0] != "first" || contents[2] != "third" {
		t.Errorf("expected creation order, got %v", contents)
	}
}

func TestMemStore_IterateReentrant(t *testing.T) {
	store := newMemTestStore()
	defer store.Close()

	rec, _ := store.Put("outer", nil)

	// The snapshot makes it safe to read the store from inside the callback.
	err := store.Iterate(func(*Record) error {
		_, err := store.Get(rec.ID)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemStore_Touch(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	store := NewMemStore(ident.NewSequence("mem"), clock)
	defer store.Close()

	rec, _ := store.Put("touched", nil)
	clock.Advance(time.Hour)

	if err := store.Touch(rec.ID, clock.Now()); err != nil {
		t.Fatal(err)
	}
	if err := store.Touch(rec.ID, clock.Now()); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(rec.ID)
	if got.AccessCount != 2 {
		t.Errorf("expected access count 2, got %d", got.AccessCount)
	}
	if !got.LastAccessed.Equal(clock.Now()) {
		t.Errorf("expected last accessed %v, got %v", clock.Now(), got.LastAccessed)
	}

	if err := store.Touch("mem_999", clock.Now()); !errors.Is(err, errors.CodeMemoryNotFound) {
		t.Errorf("expected MEMORY_NOT_FOUND, got %v", err)
	}
}

func TestMemStore_ConcurrentPut(t *testing.T) {
	store := newMemTestStore()
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := store.Put("concurrent note", nil); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 200 {
		t.Errorf("expected 200 records, got %d", n)
	}
}

// fakeClock lets tests control time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
