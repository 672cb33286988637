package store

import (
	"context"
	"errors"
	"time"

	"github.com/aquametrics/aquametrics/models"
)

var (
	// ErrNotFound indicates no record exists for the identity.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a conditional write lost the race against a
	// concurrent update of the same record.
	ErrConflict = errors.New("record revision conflict")
	// ErrEmailTaken indicates the identity already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// MirrorStatus is the advisory ledger mirror state stamped onto a record.
// A nil LastMirroredAt leaves the stored watermark untouched: marking a
// record pending must never erase when it last reached the ledger.
type MirrorStatus struct {
	Pending        bool
	LastMirroredAt *time.Time
	LastError      string
}

// Store is the mutable record adapter. Records are keyed by email. All
// mutations except Create go through ConditionalPut, which only applies
// when the caller read the revision it names.
type Store interface {
	// Get loads a record with its reward history.
	Get(ctx context.Context, email string) (*models.User, error)

	// GetByID loads a record by its numeric ID, without history.
	GetByID(ctx context.Context, id uint) (*models.User, error)

	// Create inserts a fresh record at revision 0.
	Create(ctx context.Context, rec *models.User) error

	// ConditionalPut writes rec if the stored revision still equals
	// expectedRevision, bumping the revision by one. New reward history
	// entries carried on rec (zero ID) are appended in the same write.
	ConditionalPut(ctx context.Context, expectedRevision uint64, rec *models.User) error

	// SetMirrorStatus stamps mirror bookkeeping without touching the
	// revision; mirror status is advisory and must never conflict with
	// domain writes.
	SetMirrorStatus(ctx context.Context, email string, st MirrorStatus) error

	// Delete removes the record and its reward history.
	Delete(ctx context.Context, email string) error

	// PendingMirror lists records whose latest state has not reached the
	// ledger yet.
	PendingMirror(ctx context.Context, limit int) ([]models.User, error)

	// Top returns the n highest-point records.
	Top(ctx context.Context, n int) ([]models.User, error)
}
