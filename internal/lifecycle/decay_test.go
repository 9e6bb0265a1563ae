package lifecycle

import (
	"math"
	"testing"
	"time"

	"github.com/engram-oss/engram/internal/memory"
)

func TestCurve_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	curve := NewCurve(cfg)

	rec := &memory.Record{CreatedAt: time.Now().Add(-10000 * time.Hour)}
	if got := curve.Strength(rec, time.Now()); got != 1.0 {
		t.Errorf("expected full strength when disabled, got %v", got)
	}
}

func TestCurve_FreshMemoryIsStrong(t *testing.T) {
	curve := NewCurve(DefaultConfig())
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	rec := &memory.Record{CreatedAt: now}
	got := curve.Strength(rec, now)
	if got < 0.99 {
		t.Errorf("expected fresh memory near 1.0, got %v", got)
	}
}

func TestCurve_DecaysOverTime(t *testing.T) {
	curve := NewCurve(DefaultConfig())
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	rec := &memory.Record{CreatedAt: created}

	day := curve.Strength(rec, created.Add(24*time.Hour))
	week := curve.Strength(rec, created.Add(7*24*time.Hour))
	month := curve.Strength(rec, created.Add(30*24*time.Hour))

	if !(day > week && week > month) {
		t.Errorf("expected monotone decay, got day=%v week=%v month=%v", day, week, month)
	}
	if month <= 0 {
		t.Errorf("expected positive retention after a month, got %v", month)
	}
}

func TestCurve_AccessRefreshes(t *testing.T) {
	curve := NewCurve(DefaultConfig())
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	now := created.Add(14 * 24 * time.Hour)

	stale := &memory.Record{CreatedAt: created}
	refreshed := &memory.Record{
		CreatedAt:    created,
		LastAccessed: now.Add(-time.Hour),
		AccessCount:  5,
	}

	if curve.Strength(refreshed, now) <= curve.Strength(stale, now) {
		t.Error("expected recently accessed memory to be stronger")
	}
}

func TestCurve_PriorityStabilizes(t *testing.T) {
	curve := NewCurve(DefaultConfig())
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	now := created.Add(14 * 24 * time.Hour)

	low := &memory.Record{
		CreatedAt:  created,
		Properties: map[string]interface{}{memory.PropPriority: memory.PriorityLow},
	}
	normal := &memory.Record{CreatedAt: created}
	critical := &memory.Record{
		CreatedAt:  created,
		Properties: map[string]interface{}{memory.PropPriority: memory.PriorityCritical},
	}

	sLow := curve.Strength(low, now)
	sNormal := curve.Strength(normal, now)
	sCritical := curve.Strength(critical, now)

	if !(sLow < sNormal && sNormal < sCritical) {
		t.Errorf("expected priority ordering, got low=%v normal=%v critical=%v", sLow, sNormal, sCritical)
	}
}

func TestCurve_AgeFloor(t *testing.T) {
	cfg := DefaultConfig()
	curve := NewCurve(cfg)
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(5 * 365 * 24 * time.Hour)

	// Keep the access recent so only the age factor dominates.
	rec := &memory.Record{CreatedAt: created, LastAccessed: now}
	got := curve.Strength(rec, now)
	if math.Abs(got-0.1) > 1e-9 {
		t.Errorf("expected age decay floor 0.1, got %v", got)
	}
}

func TestCurve_Bounds(t *testing.T) {
	curve := NewCurve(DefaultConfig())
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	rec := &memory.Record{CreatedAt: created, AccessCount: 1000}
	for _, offset := range []time.Duration{0, time.Hour, 24 * time.Hour, 365 * 24 * time.Hour} {
		got := curve.Strength(rec, created.Add(offset))
		if got < 0 || got > 1 {
			t.Errorf("strength out of bounds at +%v: %v", offset, got)
		}
	}
}

func TestThresholds_Level(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		strength float64
		want     string
	}{
		{0.9, LevelHigh},
		{0.7, LevelHigh},
		{0.5, LevelMedium},
		{0.4, LevelMedium},
		{0.2, LevelLow},
		{0.1, LevelLow},
		{0.05, LevelNone},
		{0.0, LevelNone},
	}
	for _, tc := range cases {
		if got := th.Level(tc.strength); got != tc.want {
			t.Errorf("Level(%v): expected %q, got %q", tc.strength, tc.want, got)
		}
	}
}
