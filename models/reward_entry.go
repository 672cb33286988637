package models

import "time"

// RewardEntry is one append-only reward history row. Entries are created by
// the reward rules, never edited or reordered; only wholesale account
// deletion removes them with their parent record.
type RewardEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"-"`
	Points    int       `json:"points"`
	Reason    string    `gorm:"size:255" json:"reason"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	CreatedAt time.Time `json:"-"`
}
