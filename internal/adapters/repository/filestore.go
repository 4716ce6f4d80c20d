package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/matchxai/pkg/logger"
	"github.com/okian/matchxai/pkg/metrics"
)

// envelope is the on-disk layout of a FileStore.
type envelope struct {
	Version   string          `json:"version"`
	TrainedAt time.Time       `json:"trained_at"`
	Samples   int             `json:"samples"`
	Loss      float64         `json:"loss"`
	Model     json.RawMessage `json:"model"`
}

// FileStore keeps a single record in a JSON file. Writes go through a temp
// file and a rename so readers never observe a partial file.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger logger.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store at path, creating the parent directory.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRecord)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	o := buildOptions(opts)
	return &FileStore{path: path, logger: o.logger}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		metrics.RecordStoreOperation("load", "not_found")
		return Record{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreOperation("load", "error")
		return Record{}, fmt.Errorf("read model file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.RecordStoreOperation("load", "corrupt")
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	rec := Record{
		Version:   env.Version,
		Blob:      []byte(env.Model),
		TrainedAt: env.TrainedAt,
		Samples:   env.Samples,
		Loss:      env.Loss,
	}
	if err := validate(rec); err != nil {
		metrics.RecordStoreOperation("load", "corrupt")
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	metrics.RecordStoreOperation("load", "success")
	return rec, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}
	if !json.Valid(rec.Blob) {
		return fmt.Errorf("%w: blob is not JSON", ErrInvalidRecord)
	}
	data, err := json.Marshal(envelope{
		Version:   rec.Version,
		TrainedAt: rec.TrainedAt.UTC(),
		Samples:   rec.Samples,
		Loss:      rec.Loss,
		Model:     json.RawMessage(rec.Blob),
	})
	if err != nil {
		return fmt.Errorf("encode model file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.path, data); err != nil {
		metrics.RecordStoreOperation("save", "error")
		return err
	}
	metrics.RecordStoreOperation("save", "success")
	s.logger.Debug(ctx, "model state written",
		logger.String("path", s.path),
		logger.String("version", rec.Version))
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}
