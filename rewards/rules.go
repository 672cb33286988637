package rewards

import (
	"fmt"
	"time"

	"github.com/aquametrics/aquametrics/models"
)

const (
	// FieldBonus is awarded once per required profile field filled.
	FieldBonus = 5
	// CompletionBonus is awarded once when every required field is set.
	CompletionBonus = 30
)

// RequiredProfileFields are the fields that count toward profile completion.
var RequiredProfileFields = []string{"name", "dateOfBirth", "gender", "mobile", "address"}

// LoginResult is the outcome of evaluating a login against the current
// record. When Skip is true the user already logged in today and nothing
// changes.
type LoginResult struct {
	Skip        bool
	StreakCount int
	PointsDelta int
	LastLogin   time.Time
	Entry       models.RewardEntry
}

// EvaluateLogin computes the streak transition and reward for a login at
// now. The reward scales linearly with the streak: day N of a run earns N
// points. A login on the same calendar day is a no-op; a login the day
// after the last one extends the streak; anything else resets it to 1.
// The record is never mutated.
func EvaluateLogin(rec *models.User, now time.Time) LoginResult {
	if rec.LastLogin != nil && SameCalendarDay(*rec.LastLogin, now) {
		return LoginResult{Skip: true, StreakCount: rec.StreakCount}
	}

	streak := 1
	if rec.LastLogin != nil && IsYesterday(*rec.LastLogin, now) {
		streak = rec.StreakCount + 1
	}

	return LoginResult{
		StreakCount: streak,
		PointsDelta: streak,
		LastLogin:   now,
		Entry: models.RewardEntry{
			Points: streak,
			Reason: fmt.Sprintf("Daily login streak day %d", streak),
			Date:   now,
		},
	}
}

// ProfileUpdate carries the proposed profile field values. Empty strings
// mean "not supplied".
type ProfileUpdate struct {
	Name        string
	DateOfBirth string
	Gender      string
	Mobile      string
	Address     string
}

// ProfileResult is the outcome of evaluating a profile update.
type ProfileResult struct {
	PointsDelta int
	Entries     []models.RewardEntry
	Complete    bool
	// CompletionAwarded is true when the one-time completion bonus fired.
	CompletionAwarded bool
}

// EvaluateProfileUpdate awards a fixed bonus for each required field that
// was previously empty and is supplied now, and a one-time completion bonus
// when all required fields end up populated. Re-submitting an already set
// field never re-awards. The record is never mutated.
func EvaluateProfileUpdate(rec *models.User, upd ProfileUpdate, now time.Time) ProfileResult {
	current := map[string]string{
		"name":        rec.Name,
		"dateOfBirth": rec.DateOfBirth,
		"gender":      rec.Gender,
		"mobile":      rec.Mobile,
		"address":     rec.Address,
	}
	proposed := map[string]string{
		"name":        upd.Name,
		"dateOfBirth": upd.DateOfBirth,
		"gender":      upd.Gender,
		"mobile":      upd.Mobile,
		"address":     upd.Address,
	}

	var res ProfileResult
	for _, field := range RequiredProfileFields {
		if current[field] == "" && proposed[field] != "" {
			res.PointsDelta += FieldBonus
			res.Entries = append(res.Entries, models.RewardEntry{
				Points: FieldBonus,
				Reason: fmt.Sprintf("Filled missing field: %s", field),
				Date:   now,
			})
		}
	}

	res.Complete = true
	for _, field := range RequiredProfileFields {
		if current[field] == "" && proposed[field] == "" {
			res.Complete = false
			break
		}
	}

	if res.Complete && !rec.ProfileCompletedRewardGiven {
		res.PointsDelta += CompletionBonus
		res.CompletionAwarded = true
		res.Entries = append(res.Entries, models.RewardEntry{
			Points: CompletionBonus,
			Reason: "Completed profile",
			Date:   now,
		})
	}

	return res
}

// ManualGrant builds the history entry for an arbitrary signed adjustment.
// Every grant is recorded regardless of sign so the balance stays
// reconciled with history.
func ManualGrant(delta int, reason string, now time.Time) models.RewardEntry {
	if reason == "" {
		reason = "Manual adjustment"
	}
	return models.RewardEntry{Points: delta, Reason: reason, Date: now}
}

// HistoryTotal sums the deltas of a reward history. The points balance on a
// record must always equal this total.
func HistoryTotal(entries []models.RewardEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Points
	}
	return total
}
