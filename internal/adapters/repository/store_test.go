package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/matchxai/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func sampleRecord(version string) Record {
	return Record{
		Version:   version,
		Blob:      []byte(`{"config":{"inputSize":4}}`),
		TrainedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Samples:   1000,
		Loss:      0.0123,
	}
}

func assertRecord(t *testing.T, got, want Record) {
	t.Helper()
	if got.Version != want.Version {
		t.Errorf("expected version %s, got %s", want.Version, got.Version)
	}
	if string(got.Blob) != string(want.Blob) {
		t.Errorf("expected blob %s, got %s", want.Blob, got.Blob)
	}
	if !got.TrainedAt.Equal(want.TrainedAt) {
		t.Errorf("expected trained_at %v, got %v", want.TrainedAt, got.TrainedAt)
	}
	if got.Samples != want.Samples {
		t.Errorf("expected samples %d, got %d", want.Samples, got.Samples)
	}
	if got.Loss != want.Loss {
		t.Errorf("expected loss %f, got %f", want.Loss, got.Loss)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	fs, err := Open(BackendFile, filepath.Join(dir, "model.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fs.(*FileStore); !ok {
		t.Errorf("expected *FileStore, got %T", fs)
	}

	sq, err := Open(BackendSQLite, filepath.Join(dir, "models.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sq.Close()
	if _, ok := sq.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", sq)
	}

	if _, err := Open("redis", "x"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "model.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	first := sampleRecord("v1")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRecord(t, got, first)

	second := sampleRecord("v2")
	second.Loss = 0.01
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRecord(t, got, second)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(store.Path()), ".model-*.tmp"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("expected no temp files, got %v", leftovers)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "model.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]string{
		"garbage":       "not json at all",
		"truncated":     `{"version":"v1","model":{"config"`,
		"missing model": `{"version":"v1","samples":10}`,
		"empty version": `{"version":"","model":{}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := store.Load(ctx); !errors.Is(err, ErrCorrupt) {
				t.Errorf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestFileStore_InvalidRecord(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "model.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Save(ctx, Record{Blob: []byte("{}")}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for empty version, got %v", err)
	}
	if err := store.Save(ctx, Record{Version: "v1"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for empty blob, got %v", err)
	}
	if err := store.Save(ctx, Record{Version: "v1", Blob: []byte("{oops")}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for non-JSON blob, got %v", err)
	}
}

func TestSQLiteStore_RoundTripAndHistory(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	versions := []string{"v1", "v2", "v3"}
	for i, v := range versions {
		rec := sampleRecord(v)
		rec.TrainedAt = rec.TrainedAt.Add(time.Duration(i) * time.Hour)
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("unexpected error saving %s: %v", v, err)
		}
	}

	latest := sampleRecord("v3")
	latest.TrainedAt = latest.TrainedAt.Add(2 * time.Hour)
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRecord(t, got, latest)

	history, err := store.History(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
	if history[0].Version != "v3" || history[1].Version != "v2" {
		t.Errorf("expected newest first, got %s then %s", history[0].Version, history[1].Version)
	}
	if history[0].Blob != nil {
		t.Error("expected history rows without blobs")
	}

	all, err := store.History(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != len(versions) {
		t.Errorf("expected %d rows, got %d", len(versions), len(all))
	}

	if err := store.Save(ctx, sampleRecord("v1")); err == nil {
		t.Error("expected duplicate version to be rejected")
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := sampleRecord("persisted")
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRecord(t, got, want)
}

func TestSQLiteStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	if err := store.Save(ctx, sampleRecord("mem")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != "mem" {
		t.Errorf("expected version mem, got %s", got.Version)
	}
}
