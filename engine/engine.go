// Package engine coordinates every logical operation: validate, compute
// deltas through the reward rules and OTP manager, apply them to the
// mutable record under an optimistic-concurrency write, then hand the new
// revision to the ledger mirror without waiting on it.
package engine

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aquametrics/aquametrics/models"
	"github.com/aquametrics/aquametrics/otp"
	"github.com/aquametrics/aquametrics/rewards"
	"github.com/aquametrics/aquametrics/store"
)

// conflictRetries bounds how often an operation recomputes after losing a
// revision race before surfacing ErrConflict.
const conflictRetries = 3

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)

// Mirrorer is the asynchronous ledger mirror the engine notifies after
// every confirmed write. Enqueue must never block.
type Mirrorer interface {
	Enqueue(email string, revision uint64)
	Cancel(email string)
}

// Hasher is the credential hashing collaborator.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Sender delivers an OTP code to an identity. Failures are logged, never
// fatal to the triggering operation.
type Sender interface {
	Send(email, code string) error
}

// Engine is the reconciliation coordinator.
type Engine struct {
	store  store.Store
	mirror Mirrorer
	hasher Hasher
	sender Sender
	log    *zap.SugaredLogger
	now    func() time.Time
}

// New wires an Engine from its collaborators.
func New(st store.Store, m Mirrorer, h Hasher, s Sender, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{store: st, mirror: m, hasher: h, sender: s, log: log, now: time.Now}
}

// WithClock overrides the engine's clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// update runs one read-compute-conditional-write cycle with bounded retry.
// mutate sees a private snapshot; returning an error aborts without any
// state change. A nil return from update guarantees the mutation landed at
// exactly one revision.
func (e *Engine) update(ctx context.Context, email string, mutate func(*models.User) error) (*models.User, error) {
	var lastErr error
	for i := 0; i < conflictRetries; i++ {
		rec, err := e.store.Get(ctx, email)
		if err != nil {
			return nil, err
		}
		if err := mutate(rec); err != nil {
			return nil, err
		}
		expected := rec.Revision
		if err := e.store.ConditionalPut(ctx, expected, rec); err != nil {
			if errors.Is(err, store.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return rec, nil
	}
	return nil, lastErr
}

// RegisterResult reports a created, not-yet-verified account.
type RegisterResult struct {
	Email               string
	PendingVerification bool
}

// Register creates an unverified zero-point record, issues the first OTP,
// emails it, and schedules the initial ledger mirror. Email delivery and
// ledger mirroring failures never fail a registration that reached the
// record store.
func (e *Engine) Register(ctx context.Context, name, email, password string) (RegisterResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) {
		return RegisterResult{}, validationErr("invalid email format")
	}
	if err := validatePassword(password); err != nil {
		return RegisterResult{}, err
	}

	hash, err := e.hasher.Hash(password)
	if err != nil {
		return RegisterResult{}, err
	}

	now := e.now()
	rec := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	code := otp.Issue(rec, now)

	if err := e.store.Create(ctx, rec); err != nil {
		return RegisterResult{}, err
	}

	if err := e.sender.Send(email, code); err != nil {
		e.log.Errorw("otp email delivery failed", "email", email, "error", err)
	}
	e.mirror.Enqueue(email, rec.Revision)

	return RegisterResult{Email: email, PendingVerification: true}, nil
}

// LoginResult reports the reward state after a successful login.
type LoginResult struct {
	Streak        int
	Points        int
	PointsAwarded int
	Name          string
	UserID        uint
}

// Login checks credentials and applies the streak reward. A second login on
// the same calendar day changes nothing.
func (e *Engine) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	probe, err := e.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !e.hasher.Verify(password, probe.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	var awarded int
	rec, err := e.update(ctx, email, func(rec *models.User) error {
		res := rewards.EvaluateLogin(rec, e.now())
		awarded = 0
		if res.Skip {
			return nil
		}
		awarded = res.PointsDelta
		rec.StreakCount = res.StreakCount
		rec.Points += res.PointsDelta
		last := res.LastLogin
		rec.LastLogin = &last
		rec.RewardHistory = append(rec.RewardHistory, res.Entry)
		return nil
	})
	if err != nil {
		return LoginResult{}, err
	}
	if awarded > 0 {
		e.mirror.Enqueue(email, rec.Revision)
	}

	return LoginResult{
		Streak:        rec.StreakCount,
		Points:        rec.Points,
		PointsAwarded: awarded,
		Name:          rec.Name,
		UserID:        rec.ID,
	}, nil
}

// ForgotPassword issues a fresh OTP for the identity, replacing any pending
// one, and emails it.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	var code string
	rec, err := e.update(ctx, email, func(rec *models.User) error {
		code = otp.Issue(rec, e.now())
		return nil
	})
	if err != nil {
		return err
	}
	if err := e.sender.Send(email, code); err != nil {
		e.log.Errorw("otp email delivery failed", "email", email, "error", err)
	}
	e.mirror.Enqueue(email, rec.Revision)
	return nil
}

// VerifyOtp validates the supplied code and, on success, marks the identity
// verified and consumes the code.
func (e *Engine) VerifyOtp(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	rec, err := e.update(ctx, email, func(rec *models.User) error {
		return otp.Verify(rec, code, e.now())
	})
	if err != nil {
		return err
	}
	e.mirror.Enqueue(email, rec.Revision)
	return nil
}

// ResetPassword replaces the credential and consumes any pending OTP so a
// stale code cannot be replayed afterward.
func (e *Engine) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	rec, err := e.update(ctx, email, func(rec *models.User) error {
		rec.PasswordHash = hash
		otp.Consume(rec)
		return nil
	})
	if err != nil {
		return err
	}
	e.mirror.Enqueue(email, rec.Revision)
	return nil
}

// ProfileResult reports the outcome of a profile edit.
type ProfileResult struct {
	PointsAwarded   int
	ProfileComplete bool
}

// EditProfile applies the supplied profile fields and awards first-fill and
// completion bonuses through the reward rules. Re-submitting an already
// populated field never re-awards.
func (e *Engine) EditProfile(ctx context.Context, email string, upd rewards.ProfileUpdate) (ProfileResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	var out ProfileResult
	rec, err := e.update(ctx, email, func(rec *models.User) error {
		res := rewards.EvaluateProfileUpdate(rec, upd, e.now())
		if upd.Name != "" {
			rec.Name = upd.Name
		}
		if upd.DateOfBirth != "" {
			rec.DateOfBirth = upd.DateOfBirth
		}
		if upd.Gender != "" {
			rec.Gender = upd.Gender
		}
		if upd.Mobile != "" {
			rec.Mobile = upd.Mobile
		}
		if upd.Address != "" {
			rec.Address = upd.Address
		}
		rec.Points += res.PointsDelta
		if res.CompletionAwarded {
			rec.ProfileCompletedRewardGiven = true
		}
		rec.RewardHistory = append(rec.RewardHistory, res.Entries...)
		out = ProfileResult{PointsAwarded: res.PointsDelta, ProfileComplete: res.Complete}
		return nil
	})
	if err != nil {
		return ProfileResult{}, err
	}
	e.mirror.Enqueue(email, rec.Revision)
	return out, nil
}

// ManualPointAdjust applies an arbitrary signed delta, always recording a
// history entry so the balance stays reconciled with history.
func (e *Engine) ManualPointAdjust(ctx context.Context, email string, delta int, reason string) (int, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	rec, err := e.update(ctx, email, func(rec *models.User) error {
		entry := rewards.ManualGrant(delta, reason, e.now())
		rec.Points += delta
		rec.RewardHistory = append(rec.RewardHistory, entry)
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.mirror.Enqueue(email, rec.Revision)
	return rec.Points, nil
}

// AddProduct accumulates a product's water footprint onto the record and
// returns the new total.
func (e *Engine) AddProduct(ctx context.Context, email string, footprint float64) (float64, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	rec, err := e.update(ctx, email, func(rec *models.User) error {
		rec.ConsumedWaterFootprint += footprint
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.mirror.Enqueue(email, rec.Revision)
	return rec.ConsumedWaterFootprint, nil
}

// DeleteAccount removes the record and cancels any pending mirror work for
// the identity.
func (e *Engine) DeleteAccount(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	e.mirror.Cancel(email)
	return e.store.Delete(ctx, email)
}

// Rewards returns the current points balance and streak.
func (e *Engine) Rewards(ctx context.Context, email string) (points, streak int, err error) {
	rec, err := e.store.Get(ctx, email)
	if err != nil {
		return 0, 0, err
	}
	return rec.Points, rec.StreakCount, nil
}

// History returns the append-only reward history for the identity.
func (e *Engine) History(ctx context.Context, email string) ([]models.RewardEntry, error) {
	rec, err := e.store.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	return rec.RewardHistory, nil
}

// Leaderboard returns the top n records by points.
func (e *Engine) Leaderboard(ctx context.Context, n int) ([]models.User, error) {
	return e.store.Top(ctx, n)
}

// Username resolves a user's display name by numeric ID, for public
// attribution surfaces.
func (e *Engine) Username(ctx context.Context, id uint) (string, error) {
	rec, err := e.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.Name, nil
}

// Get exposes the record snapshot for read-only surfaces.
func (e *Engine) Get(ctx context.Context, email string) (*models.User, error) {
	return e.store.Get(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// validatePassword enforces the registration password policy: at least 8
// characters, one uppercase letter, one special character, and only
// letters, digits and @$!%?&#.
func validatePassword(password string) error {
	if len(password) < 8 {
		return validationErr("password must be at least 8 characters long, with one uppercase letter and one special character")
	}
	var hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case strings.ContainsRune("@$!%?&#", r):
			hasSpecial = true
		default:
			return validationErr("password contains unsupported characters")
		}
	}
	if !hasUpper || !hasSpecial {
		return validationErr("password must be at least 8 characters long, with one uppercase letter and one special character")
	}
	return nil
}
