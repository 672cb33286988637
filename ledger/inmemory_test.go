package ledger

import (
	"context"
	"testing"
	"time"
)

func TestAppendRewardEntryKeyedByID(t *testing.T) {
	led := NewInMemory()
	ctx := context.Background()
	entry := RewardEntry{ID: 7, Points: 5, Reason: "first", Date: time.Now()}

	if err := led.AppendRewardEntry(ctx, "a@example.com", entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Replaying the same row overwrites its slot.
	entry.Points = 8
	if err := led.AppendRewardEntry(ctx, "a@example.com", entry); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := led.Rewards("a@example.com")
	if len(got) != 1 {
		t.Fatalf("replay must not duplicate, got %d rows", len(got))
	}
	if got[0].Points != 8 {
		t.Fatalf("replay must overwrite the slot, got %+v", got[0])
	}

	// A distinct ID is a genuine append.
	if err := led.AppendRewardEntry(ctx, "a@example.com", RewardEntry{ID: 8, Points: 2, Reason: "second", Date: time.Now()}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := led.Rewards("a@example.com"); len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
}
