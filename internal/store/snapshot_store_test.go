package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"loom/internal/types"
)

func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := OpenSnapshotStore(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	err := store.Put(&types.SessionSnapshot{
		SessionID:       "s1",
		Title:           "Platform engineer resume",
		Status:          types.PipelineStatusRunning,
		Stage:           "positioning",
		DraftedSections: []string{"summary"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Platform engineer resume" || got.Stage != "positioning" {
		t.Fatalf("unexpected snapshot: %#v", got)
	}
	if len(got.DraftedSections) != 1 || got.DraftedSections[0] != "summary" {
		t.Fatalf("unexpected drafted sections: %#v", got.DraftedSections)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("UpdatedAt not stamped")
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get("absent"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestPutPrunesToMostRecentSessions(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < maxCachedSessions+5; i++ {
		err := store.Put(&types.SessionSnapshot{SessionID: fmt.Sprintf("s%02d", i)})
		if err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	snapshots, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snapshots) != maxCachedSessions {
		t.Fatalf("expected %d snapshots, got %d", maxCachedSessions, len(snapshots))
	}
	if snapshots[0].SessionID != "s24" {
		t.Fatalf("newest snapshot should survive: %#v", snapshots[0])
	}
	for _, snapshot := range snapshots {
		if snapshot.SessionID == "s00" || snapshot.SessionID == "s04" {
			t.Fatalf("oldest snapshots should be pruned, found %s", snapshot.SessionID)
		}
	}
}

func TestPutTouchingExistingSessionRefreshesRecency(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < maxCachedSessions; i++ {
		if err := store.Put(&types.SessionSnapshot{SessionID: fmt.Sprintf("s%02d", i)}); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	// Touch the oldest, then add one more; the second-oldest goes instead.
	if err := store.Put(&types.SessionSnapshot{SessionID: "s00"}); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := store.Put(&types.SessionSnapshot{SessionID: "fresh"}); err != nil {
		t.Fatalf("Put fresh: %v", err)
	}

	if _, err := store.Get("s00"); err != nil {
		t.Fatalf("touched session should survive: %v", err)
	}
	if _, err := store.Get("s01"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected s01 pruned, got %v", err)
	}
}

func TestDeleteRemovesSnapshot(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put(&types.SessionSnapshot{SessionID: "s1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete("s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("s1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestPutRejectsBlankSessionID(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put(&types.SessionSnapshot{SessionID: "  "}); err == nil {
		t.Fatalf("expected error for blank session id")
	}
}
