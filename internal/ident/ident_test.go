package ident

import (
	"sync"
	"testing"
)

func TestUUIDGenerator_Unique(t *testing.T) {
	gen := UUIDGenerator{}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NewID()
		if id == "" {
			t.Fatal("expected non-empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSequence_Ordering(t *testing.T) {
	gen := NewSequence("mem")

	if id := gen.NewID(); id != "mem_1" {
		t.Errorf("expected mem_1, got %s", id)
	}
	if id := gen.NewID(); id != "mem_2" {
		t.Errorf("expected mem_2, got %s", id)
	}
}

func TestSequence_DefaultPrefix(t *testing.T) {
	gen := NewSequence("")
	if id := gen.NewID(); id != "mem_1" {
		t.Errorf("expected mem_1, got %s", id)
	}
}

func TestSequence_ConcurrentUnique(t *testing.T) {
	gen := NewSequence("rec")

	const workers = 10
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := gen.NewID()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id generated: %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d distinct ids, got %d", workers*perWorker, len(seen))
	}
}

func TestSystemClock_Monotone(t *testing.T) {
	clock := SystemClock{}

	a := clock.Now()
	b := clock.Now()
	if b.Before(a) {
		t.Error("clock went backwards")
	}
}
