// Package ledger defines the append-only ledger boundary. The ledger is a
// durability/audit mirror, not the system of record: nothing on the mutable
// path reads from it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BasicFields is the identity subset mirrored by WriteBasic.
type BasicFields struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	Points       int    `json:"points"`
	IsVerified   bool   `json:"isVerified"`
}

// AdditionalFields is the reward/profile subset mirrored by WriteAdditional.
type AdditionalFields struct {
	LastLogin                   string `json:"lastLogin"`
	StreakCount                 int    `json:"streakCount"`
	ProfileCompletedRewardGiven bool   `json:"profileCompletedRewardGiven"`
	DateOfBirth                 string `json:"dateOfBirth"`
	Gender                      string `json:"gender"`
	Mobile                      string `json:"mobile"`
	Address                     string `json:"addressDetails"`
}

// RewardEntry is one serialized history row appended to the ledger. ID is
// the row's identity on the mutable side; the ledger keys appends on it,
// so replaying a row overwrites the same slot instead of duplicating it.
type RewardEntry struct {
	ID     uint      `json:"id"`
	Points int       `json:"points"`
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

// Client is the fixed remote call set the ledger contract exposes. Every
// call may fail transiently (retry) or fatally (abort retries).
type Client interface {
	WriteBasic(ctx context.Context, identity string, fields BasicFields) error
	WriteAdditional(ctx context.Context, identity string, fields AdditionalFields) error
	AppendRewardEntry(ctx context.Context, identity string, entry RewardEntry) error
	UpdateOtp(ctx context.Context, identity string, code string, expiry int64) error
}

// TransientError marks a failure worth retrying (network, timeout, node
// overload).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("ledger transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a failure retries cannot fix (bad credentials, contract
// revert, malformed call).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("ledger fatal: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Fatal wraps err as non-retryable.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err (anywhere in its chain) is fatal. Unknown
// errors count as transient so the mirror keeps trying.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
