package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/ident"
)

// SQLiteStore persists memory records in a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	ids   ident.IDGenerator
	clock ident.Clock
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, ids ident.IDGenerator, clock ident.Clock) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to create storage directory", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to open memory database", err)
	}

	// One shared connection avoids writer lock contention between goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, ids: ids, clock: clock}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to migrate memory database", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	// WAL keeps committed writes recoverable after an abrupt process kill;
	// the busy timeout covers brief contention from the driver side.
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return err
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		last_accessed DATETIME,
		access_count INTEGER NOT NULL DEFAULT 0,
		properties JSON NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put allocates an id, stamps the creation time and persists the record.
func (s *SQLiteStore) Put(content string, properties map[string]interface{}) (*Record, error) {
	rec := &Record{
		ID:        s.ids.NewID(),
		Content:   content,
		CreatedAt: s.clock.Now(),
	}
	if len(properties) > 0 {
		rec.Properties = cloneProperties(properties)
	}

	props, err := marshalProperties(rec.Properties)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to encode properties", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO memories (id, content, created_at, access_count, properties)
		VALUES (?, ?, ?, 0, ?)
	`, rec.ID, rec.Content, rec.CreatedAt, props)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailed,
			fmt.Sprintf("failed to persist memory %s", rec.ID), err)
	}

	return rec, nil
}

// Get returns the record with the given id.
func (s *SQLiteStore) Get(id string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT id, content, created_at, last_accessed, access_count, properties
		FROM memories WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.CodeMemoryNotFound, fmt.Sprintf("no memory with id %s", id))
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailed,
			fmt.Sprintf("failed to read memory %s", id), err)
	}
	return rec, nil
}

// SetProperties merges the given keys into the record's property map.
func (s *SQLiteStore) SetProperties(id string, properties map[string]interface{}) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRow(`SELECT properties FROM memories WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return errors.New(errors.CodeMemoryNotFound, fmt.Sprintf("no memory with id %s", id))
	}
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed,
			fmt.Sprintf("failed to read properties of %s", id), err)
	}

	merged := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &merged); err != nil {
			return errors.Wrap(errors.CodeStorageFailed,
				fmt.Sprintf("corrupt properties for %s", id), err)
		}
	}
	for k, v := range properties {
		merged[k] = v
	}

	data, err := marshalProperties(merged)
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to encode properties", err)
	}

	if _, err := tx.Exec(`UPDATE memories SET properties = ? WHERE id = ?`, data, id); err != nil {
		return errors.Wrap(errors.CodeStorageFailed,
			fmt.Sprintf("failed to update properties of %s", id), err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to commit properties update", err)
	}
	return nil
}

// Delete removes a record. Returns false if the id was absent.
func (s *SQLiteStore) Delete(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(errors.CodeStorageFailed,
			fmt.Sprintf("failed to delete memory %s", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.CodeStorageFailed, "failed to read delete result", err)
	}
	return n > 0, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, errors.Wrap(errors.CodeStorageFailed, "failed to count memories", err)
	}
	return n, nil
}

// Iterate streams every record in creation order. The single shared
// connection is held for the duration, so fn must not call back into the
// store.
func (s *SQLiteStore) Iterate(fn func(*Record) error) error {
	rows, err := s.db.Query(`
		SELECT id, content, created_at, last_accessed, access_count, properties
		FROM memories ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to iterate memories", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return errors.Wrap(errors.CodeStorageFailed, "failed to scan memory row", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "iteration failed", err)
	}
	return nil
}

// Touch records a read access.
func (s *SQLiteStore) Touch(id string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE memories SET last_accessed = ?, access_count = access_count + 1 WHERE id = ?
	`, at, id)
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed,
			fmt.Sprintf("failed to touch memory %s", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to read touch result", err)
	}
	if n == 0 {
		return errors.New(errors.CodeMemoryNotFound, fmt.Sprintf("no memory with id %s", id))
	}
	return nil
}

// HealthCheck verifies the database answers queries.
func (s *SQLiteStore) HealthCheck() error {
	var one int
	if err := s.db.QueryRow(`SELECT 1`).Scan(&one); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "memory database unreachable", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var lastAccessed sql.NullTime
	var props []byte

	if err := row.Scan(&rec.ID, &rec.Content, &rec.CreatedAt, &lastAccessed, &rec.AccessCount, &props); err != nil {
		return nil, err
	}

	if lastAccessed.Valid {
		rec.LastAccessed = lastAccessed.Time
	}
	if len(props) > 0 && string(props) != "{}" {
		rec.Properties = map[string]interface{}{}
		if err := json.Unmarshal(props, &rec.Properties); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func marshalProperties(props map[string]interface{}) ([]byte, error) {
	if len(props) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(props)
}
