package memory

import (
	"fmt"
	"time"

	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/ident"
)

// Store is durable keyed storage for memory records. One store instance owns
// its backing medium exclusively; opening the same path from two instances at
// once is the caller's responsibility to avoid.
//
// Every method is a plain blocking call. Put must not return success unless
// the record survives an abrupt process termination immediately afterwards.
type Store interface {
	// Put allocates a fresh id, stamps the creation time and persists the
	// record atomically. Content validation is the runtime's job; the store
	// persists what it is given.
	Put(content string, properties map[string]interface{}) (*Record, error)

	// Get returns the record with the given id, or a MEMORY_NOT_FOUND error.
	Get(id string) (*Record, error)

	// SetProperties merges the given keys into the record's property map,
	// overwriting existing keys. MEMORY_NOT_FOUND if the id is absent.
	SetProperties(id string, properties map[string]interface{}) error

	// Delete removes a record. Returns false if the id was absent.
	Delete(id string) (bool, error)

	// Count returns the number of stored records.
	Count() (int, error)

	// Iterate calls fn for every record in creation order, observing a
	// snapshot taken when iteration starts. fn must not call back into the
	// store. Returning an error from fn stops iteration.
	Iterate(fn func(*Record) error) error

	// Touch records a read access: bumps LastAccessed and AccessCount.
	Touch(id string, at time.Time) error

	// HealthCheck verifies the backing medium is reachable.
	HealthCheck() error

	// Close flushes and releases the backing medium.
	Close() error
}

// Open creates a store for the configured driver.
func Open(driver, path string, ids ident.IDGenerator, clock ident.Clock) (Store, error) {
	switch driver {
	case "memory", "":
		return NewMemStore(ids, clock), nil
	case "sqlite":
		s, err := NewSQLiteStore(path, ids, clock)
		if err != nil {
			return nil, err
		}
		// Another process can hold the file lock past the driver's busy
		// timeout; retries cover that window.
		return NewRetryStore(s, DefaultRetryConfig()), nil
	default:
		return nil, errors.New(errors.CodeConfigInvalid,
			fmt.Sprintf("unsupported storage driver: %s", driver)).
			WithSuggestion("Use 'sqlite' or 'memory' for storage.driver")
	}
}
