package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"TradeSim/internal/domain/models"
	domrepo "TradeSim/internal/domain/repository"
	"TradeSim/pkg/cache"
	"TradeSim/pkg/sqlite"
)

func sampleSnapshot() models.PolicySnapshot {
	return models.PolicySnapshot{
		models.NewState(1.02, 0.55, 1.23, false, 0.3): {0.1, -0.7300000000000001, 0.123456789012345},
		models.NewState(0.98, 0.41, 2.05, true, 0):    {-0.999, 1e-12, 0.5},
		models.State{}: {0, 0, 0},
	}
}

func newStores(t *testing.T) map[string]domrepo.PolicyStore {
	t.Helper()
	file, err := NewFilePolicyStore(filepath.Join(t.TempDir(), "models"))
	if err != nil {
		t.Fatalf("NewFilePolicyStore: %v", err)
	}

	database, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	sqlStore, err := NewSQLitePolicyStore(context.Background(), database)
	if err != nil {
		t.Fatalf("NewSQLitePolicyStore: %v", err)
	}

	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	return map[string]domrepo.PolicyStore{
		"file":   file,
		"sqlite": sqlStore,
		"cache":  NewCachePolicyStore(mem),
	}
}

func TestPolicyStores(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.Load(ctx, "AAPL"); !errors.Is(err, domrepo.ErrPolicyNotFound) {
				t.Fatalf("expected ErrPolicyNotFound, got %v", err)
			}

			snap := sampleSnapshot()
			if err := store.Save(ctx, "AAPL", snap); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := store.Load(ctx, "AAPL")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != len(snap) {
				t.Fatalf("loaded %d states, want %d", len(got), len(snap))
			}
			for s, v := range snap {
				if got[s] != v {
					t.Fatalf("state %v: %v want %v", s, got[s], v)
				}
			}

			// Save overwrites the whole mapping.
			small := models.PolicySnapshot{models.State{PriceRatio: 101}: {1, 2, 3}}
			if err := store.Save(ctx, "AAPL", small); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err = store.Load(ctx, "AAPL")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != 1 || got[models.State{PriceRatio: 101}] != (models.ActionValues{1, 2, 3}) {
				t.Fatalf("overwrite failed: %v", got)
			}

			if _, err := store.Load(ctx, "MSFT"); !errors.Is(err, domrepo.ErrPolicyNotFound) {
				t.Fatalf("symbols must not share policies, got %v", err)
			}
		})
	}
}

func TestFilePolicyStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilePolicyStore(dir)
	if err != nil {
		t.Fatalf("NewFilePolicyStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "AAPL_policy.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = store.Load(context.Background(), "AAPL")
	if err == nil || errors.Is(err, domrepo.ErrPolicyNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFilePolicyStoreMissingStates(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilePolicyStore(dir)
	if err != nil {
		t.Fatalf("NewFilePolicyStore: %v", err)
	}
	doc := []byte(`{"symbol":"AAPL","saved_at":"2025-06-30T00:00:00Z"}`)
	if err := os.WriteFile(filepath.Join(dir, "AAPL_policy.json"), doc, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := store.Load(context.Background(), "AAPL")
	if err == nil || errors.Is(err, domrepo.ErrPolicyNotFound) {
		t.Fatalf("expected decode error, got %v (%d states)", err, len(snap))
	}
}

func TestFileSafe(t *testing.T) {
	if got := fileSafe("BRK.B/../x"); got != "BRK.B_.._x" {
		t.Fatalf("unexpected name %q", got)
	}
}
