package memory

import (
	stderrors "errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mattn/go-sqlite3"
)

// RetryConfig controls retry behavior for transient storage errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64
}

// DefaultRetryConfig returns the policy applied to sqlite stores.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		JitterFraction: 0.2,
	}
}

// RetryStore wraps a Store with automatic retry for transient errors, such as
// a sqlite file briefly locked by another process. Non-transient errors pass
// through on the first attempt.
type RetryStore struct {
	inner  Store
	config RetryConfig
}

// NewRetryStore creates a RetryStore wrapping inner.
func NewRetryStore(inner Store, cfg RetryConfig) *RetryStore {
	return &RetryStore{inner: inner, config: cfg}
}

func (r *RetryStore) Put(content string, properties map[string]interface{}) (*Record, error) {
	var rec *Record
	err := r.retry(func() error {
		var err error
		rec, err = r.inner.Put(content, properties)
		return err
	})
	return rec, err
}

func (r *RetryStore) Get(id string) (*Record, error) {
	var rec *Record
	err := r.retry(func() error {
		var err error
		rec, err = r.inner.Get(id)
		return err
	})
	return rec, err
}

func (r *RetryStore) SetProperties(id string, properties map[string]interface{}) error {
	return r.retry(func() error {
		return r.inner.SetProperties(id, properties)
	})
}

func (r *RetryStore) Delete(id string) (bool, error) {
	var removed bool
	err := r.retry(func() error {
		var err error
		removed, err = r.inner.Delete(id)
		return err
	})
	return removed, err
}

func (r *RetryStore) Count() (int, error) {
	var n int
	err := r.retry(func() error {
		var err error
		n, err = r.inner.Count()
		return err
	})
	return n, err
}

// Iterate is not retried: fn may already have observed part of the snapshot.
func (r *RetryStore) Iterate(fn func(*Record) error) error {
	return r.inner.Iterate(fn)
}

func (r *RetryStore) Touch(id string, at time.Time) error {
	return r.retry(func() error {
		return r.inner.Touch(id, at)
	})
}

func (r *RetryStore) HealthCheck() error {
	return r.retry(r.inner.HealthCheck)
}

func (r *RetryStore) Close() error {
	return r.inner.Close()
}

func (r *RetryStore) retry(op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return err
		}

		if attempt == r.config.MaxRetries {
			break
		}
		time.Sleep(r.backoff(attempt))
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", r.config.MaxRetries, lastErr)
}

// isTransient reports whether the error is worth retrying. Only sqlite
// busy/locked conditions qualify; everything else fails fast.
func isTransient(err error) bool {
	var sqlErr sqlite3.Error
	if stderrors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}
	return false
}

// backoff calculates the delay for a given attempt using exponential backoff with jitter.
func (r *RetryStore) backoff(attempt int) time.Duration {
	base := float64(r.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(r.config.MaxBackoff) {
		base = float64(r.config.MaxBackoff)
	}

	jitter := base * r.config.JitterFraction * (rand.Float64()*2 - 1) // ±jitter
	delay := time.Duration(base + jitter)
	if delay < 0 {
		delay = 0
	}
	return delay
}
