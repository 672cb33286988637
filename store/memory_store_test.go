package store

import (
	"context"
	"testing"
	"time"

	"github.com/aquametrics/aquametrics/models"
)

func newUser(email string) *models.User {
	return &models.User{Email: email, Name: "Test", PasswordHash: "hash"}
}

func TestCreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	got, err := s.Get(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID == 0 {
		t.Fatalf("create must assign an id")
	}
	if got.Revision != 0 {
		t.Fatalf("fresh record must start at revision 0, got %d", got.Revision)
	}

	if _, err := s.Get(ctx, "missing@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u := newUser("a@example.com")
	if err := s.Create(ctx, u); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := s.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if got.Email != "a@example.com" {
		t.Fatalf("wrong record: %+v", got)
	}
	if _, err := s.GetByID(ctx, 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Create(ctx, newUser("a@example.com")); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestConditionalPutBumpsRevision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec, _ := s.Get(ctx, "a@example.com")
	rec.Points = 10
	rec.RewardHistory = append(rec.RewardHistory, models.RewardEntry{Points: 10, Reason: "grant", Date: time.Now()})
	if err := s.ConditionalPut(ctx, rec.Revision, rec); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, _ := s.Get(ctx, "a@example.com")
	if got.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", got.Revision)
	}
	if got.Points != 10 {
		t.Fatalf("expected 10 points, got %d", got.Points)
	}
	if len(got.RewardHistory) != 1 || got.RewardHistory[0].ID == 0 {
		t.Fatalf("history entry must be persisted with an id: %+v", got.RewardHistory)
	}
}

func TestConditionalPutStaleRevisionConflicts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Two readers load revision 0; only the first write lands.
	first, _ := s.Get(ctx, "a@example.com")
	second, _ := s.Get(ctx, "a@example.com")

	first.Points = 5
	if err := s.ConditionalPut(ctx, first.Revision, first); err != nil {
		t.Fatalf("first put failed: %v", err)
	}

	second.Points = 99
	if err := s.ConditionalPut(ctx, second.Revision, second); err != ErrConflict {
		t.Fatalf("expected ErrConflict on stale revision, got %v", err)
	}

	got, _ := s.Get(ctx, "a@example.com")
	if got.Points != 5 {
		t.Fatalf("stale write must not land, got %d points", got.Points)
	}
}

func TestConditionalPutUnknownUser(t *testing.T) {
	s := NewMemoryStore()
	if err := s.ConditionalPut(context.Background(), 0, newUser("ghost@example.com")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u := newUser("a@example.com")
	u.RewardHistory = []models.RewardEntry{{Points: 1, Reason: "seed", Date: time.Now()}}
	if err := s.Create(ctx, u); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, _ := s.Get(ctx, "a@example.com")
	got.Points = 999
	got.RewardHistory[0].Points = 999

	fresh, _ := s.Get(ctx, "a@example.com")
	if fresh.Points != 0 || fresh.RewardHistory[0].Points != 1 {
		t.Fatalf("mutating a returned record must not touch the store")
	}
}

func TestSetMirrorStatusDoesNotBumpRevision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	now := time.Now()
	if err := s.SetMirrorStatus(ctx, "a@example.com", MirrorStatus{Pending: false, LastMirroredAt: &now}); err != nil {
		t.Fatalf("set mirror status failed: %v", err)
	}

	got, _ := s.Get(ctx, "a@example.com")
	if got.Revision != 0 {
		t.Fatalf("mirror bookkeeping must not consume a revision, got %d", got.Revision)
	}
	if got.PendingMirror || got.LastMirroredAt == nil {
		t.Fatalf("mirror status not applied: %+v", got)
	}
}

func TestSetMirrorStatusNilTimestampKeepsWatermark(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	mirrored := time.Now()
	if err := s.SetMirrorStatus(ctx, "a@example.com", MirrorStatus{Pending: false, LastMirroredAt: &mirrored}); err != nil {
		t.Fatalf("set mirror status failed: %v", err)
	}

	// A later pending stamp carries no timestamp and must not erase it.
	if err := s.SetMirrorStatus(ctx, "a@example.com", MirrorStatus{Pending: true, LastError: "node down"}); err != nil {
		t.Fatalf("set mirror status failed: %v", err)
	}

	got, _ := s.Get(ctx, "a@example.com")
	if !got.PendingMirror || got.LastMirrorError != "node down" {
		t.Fatalf("pending stamp not applied: %+v", got)
	}
	if got.LastMirroredAt == nil || !got.LastMirroredAt.Equal(mirrored) {
		t.Fatalf("pending stamp must keep the watermark, got %v", got.LastMirroredAt)
	}
}

func TestConditionalPutPreservesMirrorFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.SetMirrorStatus(ctx, "a@example.com", MirrorStatus{Pending: true, LastError: "boom"}); err != nil {
		t.Fatalf("set mirror status failed: %v", err)
	}

	rec, _ := s.Get(ctx, "a@example.com")
	rec.Points = 1
	rec.PendingMirror = false
	rec.LastMirrorError = ""
	if err := s.ConditionalPut(ctx, rec.Revision, rec); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, _ := s.Get(ctx, "a@example.com")
	if !got.PendingMirror || got.LastMirrorError != "boom" {
		t.Fatalf("put must not clobber mirror bookkeeping: %+v", got)
	}
}

func TestPendingMirrorList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := s.Create(ctx, newUser(email)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	s.SetMirrorStatus(ctx, "b@example.com", MirrorStatus{Pending: true})
	s.SetMirrorStatus(ctx, "c@example.com", MirrorStatus{Pending: true})

	out, err := s.PendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("pending mirror failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 pending records, got %d", len(out))
	}

	limited, _ := s.PendingMirror(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit not applied, got %d", len(limited))
	}
}

func TestTopOrdersByPoints(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	scores := map[string]int{"a@example.com": 5, "b@example.com": 50, "c@example.com": 20}
	for email, pts := range scores {
		u := newUser(email)
		if err := s.Create(ctx, u); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		rec, _ := s.Get(ctx, email)
		rec.Points = pts
		if err := s.ConditionalPut(ctx, rec.Revision, rec); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	top, err := s.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if len(top) != 2 || top[0].Email != "b@example.com" || top[1].Email != "c@example.com" {
		t.Fatalf("unexpected leaderboard: %+v", top)
	}
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Create(ctx, newUser("a@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Delete(ctx, "a@example.com"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "a@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "a@example.com"); err != ErrNotFound {
		t.Fatalf("double delete must report ErrNotFound, got %v", err)
	}
}
