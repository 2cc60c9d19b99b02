// Package duckdb provides a persistent query-result cache backed by a
// DuckDB database, for reuse of AGVD responses across runs.
package duckdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/h3abionet/agvd-cli/internal/agvd"
)

// Store is an agvd.Cache that persists results to DuckDB. Entries
// older than the TTL are treated as misses and pruned. A zero TTL
// means entries never expire.
type Store struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Open opens or creates a DuckDB cache at the given path.
// Use an empty string for an in-memory database.
func Open(path string, ttl time.Duration) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, ttl: ttl, now: time.Now, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetLogger sets the logger for cache warnings.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// SetClock replaces the clock used for TTL checks. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// ensureSchema creates the cache table if it doesn't exist.
// fetched_at is stored as Unix seconds.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS query_cache (
		key VARCHAR PRIMARY KEY,
		fetched_at BIGINT,
		results VARCHAR
	)`)
	return err
}

// Get returns the cached results for key, if present and unexpired.
// Database errors are logged and reported as misses so a damaged
// cache never fails a run.
func (s *Store) Get(key string) ([]agvd.Result, bool) {
	var fetchedAt int64
	var raw string
	err := s.db.QueryRow(`SELECT fetched_at, results FROM query_cache WHERE key = ?`, key).
		Scan(&fetchedAt, &raw)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("query cache read failed", zap.Error(err))
		return nil, false
	}

	if s.ttl > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > s.ttl {
		if _, err := s.db.Exec(`DELETE FROM query_cache WHERE key = ?`, key); err != nil {
			s.logger.Warn("query cache prune failed", zap.Error(err))
		}
		return nil, false
	}

	var results []agvd.Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		s.logger.Warn("query cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return results, true
}

// Put stores results under key, replacing any existing entry.
func (s *Store) Put(key string, results []agvd.Result) {
	raw, err := json.Marshal(results)
	if err != nil {
		s.logger.Warn("query cache encode failed", zap.Error(err))
		return
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO query_cache (key, fetched_at, results) VALUES (?, ?, ?)`,
		key, s.now().Unix(), string(raw))
	if err != nil {
		s.logger.Warn("query cache write failed", zap.Error(err))
	}
}

// Prune deletes all expired entries and returns how many were removed.
func (s *Store) Prune() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.Exec(`DELETE FROM query_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune query cache: %w", err)
	}
	return res.RowsAffected()
}
