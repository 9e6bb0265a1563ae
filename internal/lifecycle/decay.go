// Package lifecycle implements the Ebbinghaus forgetting curve used to
// rank memories by retention strength.
package lifecycle

import (
	"math"
	"time"

	"github.com/engram-oss/engram/internal/memory"
)

// Config controls the forgetting curve.
type Config struct {
	Enabled                   bool
	RecencyDecayHours         float64
	AccessCountWeight         float64
	EmotionalWeightMultiplier float64
	BaseDecayRate             float64
}

// DefaultConfig returns the stock curve: one-week recency decay with a
// gentle age falloff.
func DefaultConfig() Config {
	return Config{
		Enabled:                   true,
		RecencyDecayHours:         168.0,
		AccessCountWeight:         0.1,
		EmotionalWeightMultiplier: 1.5,
		BaseDecayRate:             0.01,
	}
}

// Curve computes retention strength for memory records.
type Curve struct {
	config Config
}

// NewCurve returns a curve with the given configuration.
func NewCurve(config Config) *Curve {
	return &Curve{config: config}
}

// Strength returns the record's retention in [0, 1] at the given instant.
//
// The curve is R = e^(-t/S): t is hours since last access (creation if
// never accessed) and S is stability. Stability grows with access count
// and the record's priority, so frequently used or important memories
// fade slower. A separate age factor decays from creation time down to a
// 10% floor. Disabled curves always report full strength.
func (c *Curve) Strength(rec *memory.Record, now time.Time) float64 {
	if !c.config.Enabled {
		return 1.0
	}

	last := rec.LastAccessed
	if last.IsZero() {
		last = rec.CreatedAt
	}
	hoursSinceAccess := now.Sub(last).Hours()

	stability := c.config.RecencyDecayHours + float64(rec.AccessCount)*c.config.AccessCountWeight
	stability *= importance(rec) * c.config.EmotionalWeightMultiplier
	if stability <= 0 {
		return 0
	}

	timeDecay := math.Exp(-hoursSinceAccess / stability)

	ageHours := now.Sub(rec.CreatedAt).Hours()
	ageDecay := clamp(math.Exp(-ageHours*c.config.BaseDecayRate), 0.1, 1.0)

	return clamp(timeDecay*ageDecay, 0.0, 1.0)
}

// importance maps the record's priority onto a stability multiplier.
func importance(rec *memory.Record) float64 {
	switch rec.Priority() {
	case memory.PriorityLow:
		return 0.5
	case memory.PriorityHigh:
		return 1.5
	case memory.PriorityCritical:
		return 2.0
	default:
		return 1.0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Relevance level names reported for a strength value.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
	LevelNone   = "none"
)

// Thresholds set the lower strength bound of each relevance level.
type Thresholds struct {
	High   float64
	Medium float64
	Low    float64
}

// DefaultThresholds returns the stock relevance bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.7, Medium: 0.4, Low: 0.1}
}

// Level buckets a strength value into a relevance level.
func (t Thresholds) Level(strength float64) string {
	switch {
	case strength >= t.High:
		return LevelHigh
	case strength >= t.Medium:
		return LevelMedium
	case strength >= t.Low:
		return LevelLow
	default:
		return LevelNone
	}
}
