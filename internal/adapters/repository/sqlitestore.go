package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/matchxai/pkg/logger"
	"github.com/okian/matchxai/pkg/metrics"
	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS models (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	version    TEXT    NOT NULL UNIQUE,
	trained_at INTEGER NOT NULL,
	samples    INTEGER NOT NULL,
	loss       REAL    NOT NULL,
	blob       BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_models_trained_at ON models(trained_at);
`

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// SQLiteStore keeps every saved model as a row; Load returns the newest.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

var (
	_ Store     = (*SQLiteStore)(nil)
	_ Historian = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRecord)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create model dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	for _, p := range sqlitePragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	o := buildOptions(opts)
	o.logger.Info(context.Background(), "sqlite model store initialized", logger.String("path", path))
	return &SQLiteStore{db: db, logger: o.logger}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (Record, error) {
	var (
		rec     Record
		trained int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, trained_at, samples, loss, blob FROM models ORDER BY id DESC LIMIT 1`,
	).Scan(&rec.Version, &trained, &rec.Samples, &rec.Loss, &rec.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreOperation("load", "not_found")
		return Record{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreOperation("load", "error")
		return Record{}, fmt.Errorf("query latest model: %w", err)
	}
	rec.TrainedAt = time.Unix(0, trained).UTC()
	if err := validate(rec); err != nil {
		metrics.RecordStoreOperation("load", "corrupt")
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	metrics.RecordStoreOperation("load", "success")
	return rec, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO models (version, trained_at, samples, loss, blob) VALUES (?, ?, ?, ?, ?)`,
		rec.Version, rec.TrainedAt.UnixNano(), rec.Samples, rec.Loss, rec.Blob)
	if err != nil {
		metrics.RecordStoreOperation("save", "error")
		return fmt.Errorf("insert model: %w", err)
	}
	metrics.RecordStoreOperation("save", "success")
	s.logger.Debug(ctx, "model state inserted", logger.String("version", rec.Version))
	return nil
}

// History implements Historian. A non-positive limit returns every row.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, trained_at, samples, loss FROM models ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			trained int64
		)
		if err := rows.Scan(&rec.Version, &trained, &rec.Samples, &rec.Loss); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.TrainedAt = time.Unix(0, trained).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }
