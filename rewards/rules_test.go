package rewards

import (
	"testing"
	"time"

	"github.com/aquametrics/aquametrics/models"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC)
}

func TestEvaluateLoginFirstEver(t *testing.T) {
	rec := &models.User{}
	res := EvaluateLogin(rec, day(1))
	if res.Skip {
		t.Fatalf("first login must not be skipped")
	}
	if res.StreakCount != 1 || res.PointsDelta != 1 {
		t.Fatalf("expected streak 1 worth 1 point, got streak=%d delta=%d", res.StreakCount, res.PointsDelta)
	}
	if res.Entry.Points != 1 {
		t.Fatalf("history entry must match the delta, got %d", res.Entry.Points)
	}
}

func TestEvaluateLoginConsecutiveRun(t *testing.T) {
	rec := &models.User{}
	total := 0
	for d := 1; d <= 5; d++ {
		res := EvaluateLogin(rec, day(d))
		if res.Skip {
			t.Fatalf("day %d unexpectedly skipped", d)
		}
		if res.StreakCount != d {
			t.Fatalf("day %d: expected streak %d, got %d", d, d, res.StreakCount)
		}
		if res.PointsDelta != d {
			t.Fatalf("day %d: expected %d points, got %d", d, d, res.PointsDelta)
		}
		rec.StreakCount = res.StreakCount
		last := res.LastLogin
		rec.LastLogin = &last
		total += res.PointsDelta
	}
	// Five consecutive days pay 1+2+3+4+5.
	if total != 15 {
		t.Fatalf("expected 15 points over the run, got %d", total)
	}
}

func TestEvaluateLoginSameDayIsNoop(t *testing.T) {
	last := day(3)
	rec := &models.User{StreakCount: 3, LastLogin: &last}
	res := EvaluateLogin(rec, last.Add(2*time.Hour))
	if !res.Skip {
		t.Fatalf("second login on the same day must be skipped")
	}
	if res.StreakCount != 3 {
		t.Fatalf("skip must preserve streak, got %d", res.StreakCount)
	}
}

func TestEvaluateLoginMissedDayResets(t *testing.T) {
	last := day(3)
	rec := &models.User{StreakCount: 7, LastLogin: &last}
	res := EvaluateLogin(rec, day(5))
	if res.Skip {
		t.Fatalf("login after a gap must not be skipped")
	}
	if res.StreakCount != 1 || res.PointsDelta != 1 {
		t.Fatalf("missed day must reset to streak 1, got streak=%d delta=%d", res.StreakCount, res.PointsDelta)
	}
}

func TestEvaluateProfileUpdateAwardsNewFieldsOnly(t *testing.T) {
	rec := &models.User{Name: "Amina"}
	res := EvaluateProfileUpdate(rec, ProfileUpdate{Name: "Amina B", Mobile: "0788"}, day(1))
	// Name was already set; only mobile is newly filled.
	if res.PointsDelta != FieldBonus {
		t.Fatalf("expected %d points for one new field, got %d", FieldBonus, res.PointsDelta)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(res.Entries))
	}
	if res.Complete {
		t.Fatalf("profile is not complete yet")
	}
}

func TestEvaluateProfileUpdateCompletionBonusOnce(t *testing.T) {
	rec := &models.User{}
	full := ProfileUpdate{Name: "A", DateOfBirth: "1990-01-01", Gender: "female", Mobile: "0788", Address: "Kigali"}

	res := EvaluateProfileUpdate(rec, full, day(1))
	if !res.Complete || !res.CompletionAwarded {
		t.Fatalf("filling every field must complete and award, got complete=%v awarded=%v", res.Complete, res.CompletionAwarded)
	}
	want := 5*FieldBonus + CompletionBonus
	if res.PointsDelta != want {
		t.Fatalf("expected %d points, got %d", want, res.PointsDelta)
	}

	// Apply and resubmit: nothing new, no second completion bonus.
	rec.Name, rec.DateOfBirth, rec.Gender, rec.Mobile, rec.Address = "A", "1990-01-01", "female", "0788", "Kigali"
	rec.ProfileCompletedRewardGiven = true
	again := EvaluateProfileUpdate(rec, full, day(2))
	if again.PointsDelta != 0 || again.CompletionAwarded {
		t.Fatalf("resubmission must award nothing, got delta=%d awarded=%v", again.PointsDelta, again.CompletionAwarded)
	}
	if !again.Complete {
		t.Fatalf("a complete profile stays complete")
	}
}

func TestManualGrantDefaultsReason(t *testing.T) {
	e := ManualGrant(-10, "", day(1))
	if e.Points != -10 {
		t.Fatalf("expected -10, got %d", e.Points)
	}
	if e.Reason != "Manual adjustment" {
		t.Fatalf("expected default reason, got %q", e.Reason)
	}
}

func TestHistoryTotalMatchesBalance(t *testing.T) {
	entries := []models.RewardEntry{
		{Points: 1}, {Points: 2}, {Points: 5}, {Points: 30}, {Points: -8},
	}
	if got := HistoryTotal(entries); got != 30 {
		t.Fatalf("expected total 30, got %d", got)
	}
}
