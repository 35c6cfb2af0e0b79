package repo

import (
	"context"
	"testing"
	"time"
)

func TestHistory_AppendListNewestFirst(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := AppendHistory(ctx, db, "VLI 1", "Jean", "entry", base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	got, err := ListHistory(ctx, db, 2)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Fatalf("not newest-first: %v then %v", got[0].CreatedAt, got[1].CreatedAt)
	}
}

func TestHistory_RenamePropagation(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	AppendHistory(ctx, db, "VLI 1", "Jean", "a", now)
	AppendHistory(ctx, db, "VLI 1", "Marie", "b", now.Add(time.Minute))
	AppendHistory(ctx, db, "VLI 2", "Jean", "c", now)

	n, err := RenameHistoryBag(ctx, db, "VLI 1", "VLI Alpha")
	if err != nil || n != 2 {
		t.Fatalf("RenameHistoryBag: n=%d err=%v", n, err)
	}

	all, _ := ListHistory(ctx, db, 0)
	for _, e := range all {
		if e.BagName == "VLI 1" {
			t.Fatalf("stale name survived rename: %+v", e)
		}
	}
}

func TestHistory_DeleteByIndexFromNewest(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	AppendHistory(ctx, db, "VLI 1", "Jean", "oldest", base)
	AppendHistory(ctx, db, "VLI 1", "Jean", "middle", base.Add(time.Hour))
	AppendHistory(ctx, db, "VLI 1", "Jean", "newest", base.Add(2*time.Hour))

	// Index 0 = newest.
	if err := DeleteHistoryByIndex(ctx, db, 0); err != nil {
		t.Fatalf("DeleteHistoryByIndex(0): %v", err)
	}
	got, _ := ListHistory(ctx, db, 0)
	if len(got) != 2 || got[0].Details != "middle" {
		t.Fatalf("after delete: %+v", got)
	}

	if err := DeleteHistoryByIndex(ctx, db, 10); err != ErrNotFound {
		t.Fatalf("out-of-range index: %v, want ErrNotFound", err)
	}
	if err := DeleteHistoryByIndex(ctx, db, -1); err != ErrNotFound {
		t.Fatalf("negative index: %v, want ErrNotFound", err)
	}
}
