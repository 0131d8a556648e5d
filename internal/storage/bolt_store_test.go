package storage

import (
	"testing"
	"time"

	"github.com/samvad-hq/bookcart-smoke/internal/domain"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(t.TempDir()+"/runs.db", normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreSavesAndLoadsRuns(t *testing.T) {
	store := openTestStore(t, Options{})

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := domain.RunReport{RunID: "r1", StartedAt: base, Passed: true}
	newer := domain.RunReport{
		RunID:     "r2",
		StartedAt: base.Add(time.Minute),
		Steps:     []domain.StepResult{{Name: "login", Passed: false, StatusCode: 401}},
	}
	for _, r := range []domain.RunReport{older, newer} {
		if err := store.SaveRun(r); err != nil {
			t.Fatalf("SaveRun %s: %v", r.RunID, err)
		}
	}

	got, ok, err := store.Run("r2")
	if err != nil || !ok {
		t.Fatalf("Run r2: ok=%v err=%v", ok, err)
	}
	if step, failed := got.FailedStep(); !failed || step.StatusCode != 401 {
		t.Fatalf("unexpected report %#v", got)
	}

	runs, err := store.RecentRuns(0)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r2" || runs[1].RunID != "r1" {
		t.Fatalf("expected newest first, got %#v", runs)
	}

	runs, err = store.RecentRuns(1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("RecentRuns(1): %d runs err=%v", len(runs), err)
	}
}

func TestBoltStoreExpiresRuns(t *testing.T) {
	store := openTestStore(t, Options{RunTTL: time.Hour, CleanupInterval: time.Hour})

	now := time.Now()
	store.now = func() time.Time { return now }
	if err := store.SaveRun(domain.RunReport{RunID: "old"}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	// Move past both the ttl and the cleanup cadence.
	now = now.Add(2 * time.Hour)

	if _, ok, err := store.Run("old"); err != nil || ok {
		t.Fatalf("expected expired run to be hidden, ok=%v err=%v", ok, err)
	}
	runs, err := store.RecentRuns(0)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs after expiry, got %d", len(runs))
	}
}

func TestBoltStoreRequiresRunID(t *testing.T) {
	store := openTestStore(t, Options{})
	if err := store.SaveRun(domain.RunReport{}); err == nil {
		t.Fatalf("expected error for empty run id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveRun(domain.RunReport{RunID: "x"}); err != nil {
		t.Fatalf("noop store SaveRun: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}
