package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the mutable, authoritative per-identity record. Passwords are
// stored as bcrypt hashes only. Revision guards every read-modify-write:
// conditional updates match against it and bump it by one, so concurrent
// writers on the same identity cannot silently overwrite each other.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:64" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	IsVerified   bool   `gorm:"default:false" json:"is_verified"`
	Revision     uint64 `gorm:"default:0" json:"-"`

	// Reward state. Points always equals the sum of reward history deltas.
	Points                      int        `gorm:"default:0" json:"points"`
	StreakCount                 int        `gorm:"default:0" json:"streak_count"`
	LastLogin                   *time.Time `json:"last_login"`
	ProfileCompletedRewardGiven bool       `gorm:"default:false" json:"profile_completed_reward_given"`

	// Profile fields. Filling each for the first time earns a bonus.
	DateOfBirth string `gorm:"size:32" json:"date_of_birth"`
	Gender      string `gorm:"size:16" json:"gender"`
	Mobile      string `gorm:"size:32" json:"mobile"`
	Address     string `gorm:"size:255" json:"address"`

	// OTP state: both nil or both set, cleared together.
	Otp           *string    `gorm:"size:8" json:"-"`
	OtpExpiration *time.Time `json:"-"`

	ConsumedWaterFootprint float64 `gorm:"default:0" json:"consumed_water_footprint"`

	// Ledger mirror status. Advisory only: a failed or absent mirror never
	// invalidates the mutable record.
	PendingMirror   bool       `gorm:"default:false" json:"-"`
	LastMirroredAt  *time.Time `json:"-"`
	LastMirrorError string     `gorm:"size:512" json:"-"`

	RewardHistory []RewardEntry `gorm:"foreignKey:UserID" json:"reward_history,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// HasOtp reports whether an OTP is currently pending on the record.
func (u *User) HasOtp() bool {
	return u.Otp != nil && u.OtpExpiration != nil
}

// SetOtp stores a code and its expiry as a pair.
func (u *User) SetOtp(code string, expiry time.Time) {
	u.Otp = &code
	u.OtpExpiration = &expiry
}

// ClearOtp removes the code and expiry as a pair.
func (u *User) ClearOtp() {
	u.Otp = nil
	u.OtpExpiration = nil
}
