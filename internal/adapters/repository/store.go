// Package repository persists trained model state between process runs.
package repository

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Record is one persisted model. Blob is the encoded network.
type Record struct {
	Version   string
	Blob      []byte
	TrainedAt time.Time
	Samples   int
	Loss      float64
}

// Store provides read/write access to persisted model state.
type Store interface {
	// Load returns the most recently saved record.
	// Returns ErrNotFound when nothing was saved yet and ErrCorrupt when the
	// stored state cannot be decoded.
	Load(ctx context.Context) (Record, error)

	// Save persists rec, replacing what Load returns.
	Save(ctx context.Context, rec Record) error

	// Close releases underlying resources.
	Close() error
}

// Historian is implemented by stores that keep every saved model.
type Historian interface {
	// History lists saved models newest first, without their blobs.
	History(ctx context.Context, limit int) ([]Record, error)
}

// Open returns the store for backend rooted at path.
func Open(backend, path string, opts ...Option) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path, opts...)
	case BackendSQLite:
		return NewSQLiteStore(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func validate(rec Record) error {
	if rec.Version == "" {
		return fmt.Errorf("%w: empty version", ErrInvalidRecord)
	}
	if len(rec.Blob) == 0 {
		return fmt.Errorf("%w: empty blob", ErrInvalidRecord)
	}
	return nil
}
