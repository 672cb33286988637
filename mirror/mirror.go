// Package mirror replays confirmed mutable-record changes onto the
// append-only ledger. Mirroring is fire-and-forget from the caller's point
// of view: a ledger outage marks the record pending and a sweep retries
// later, but the triggering operation has already succeeded.
package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquametrics/aquametrics/ledger"
	"github.com/aquametrics/aquametrics/models"
	"github.com/aquametrics/aquametrics/store"
)

// Job asks the mirror to project one identity's state at one revision. ID
// plus Email+Revision form the idempotency key: replaying a job overwrites
// the same ledger slots, it never double-counts.
type Job struct {
	ID       string
	Email    string
	Revision uint64
}

// Options tune the mirror. Zero values fall back to defaults.
type Options struct {
	Workers        int
	QueueSize      int
	Attempts       int
	BaseBackoff    time.Duration
	AttemptTimeout time.Duration
	SweepInterval  time.Duration
}

func (o *Options) fill() {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 200 * time.Millisecond
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 10 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
}

// Mirror owns the job queue, the worker pool, and the reconciliation sweep.
type Mirror struct {
	store  store.Store
	client ledger.Client
	log    *zap.SugaredLogger
	opts   Options

	jobs chan Job
	quit chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	latest map[string]uint64
}

// New builds a Mirror; call Start before enqueueing.
func New(st store.Store, client ledger.Client, log *zap.SugaredLogger, opts Options) *Mirror {
	opts.fill()
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Mirror{
		store:  st,
		client: client,
		log:    log,
		opts:   opts,
		jobs:   make(chan Job, opts.QueueSize),
		quit:   make(chan struct{}),
		latest: map[string]uint64{},
	}
}

// Start launches the worker pool and the pending sweep.
func (m *Mirror) Start() {
	for i := 0; i < m.opts.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	m.wg.Add(1)
	go m.sweepLoop()
}

// Stop shuts the mirror down and waits for in-flight jobs to finish.
func (m *Mirror) Stop() {
	close(m.quit)
	m.wg.Wait()
}

// Enqueue schedules mirroring of email at revision. A later revision
// supersedes any queued earlier one; only the latest snapshot ever lands on
// the ledger. When the queue is full the record is marked pending for the
// sweep instead of blocking the caller.
func (m *Mirror) Enqueue(email string, revision uint64) {
	m.mu.Lock()
	if cur, ok := m.latest[email]; ok && cur >= revision {
		m.mu.Unlock()
		return
	}
	m.latest[email] = revision
	m.mu.Unlock()

	job := Job{ID: uuid.NewString(), Email: email, Revision: revision}
	select {
	case m.jobs <- job:
	default:
		m.log.Warnw("mirror queue full, deferring to sweep", "email", email, "revision", revision)
		m.mu.Lock()
		if m.latest[email] == revision {
			delete(m.latest, email)
		}
		m.mu.Unlock()
		m.markPending(email, "mirror queue full")
	}
}

// Cancel drops any queued or future mirror work for email. Used by account
// deletion.
func (m *Mirror) Cancel(email string) {
	m.mu.Lock()
	delete(m.latest, email)
	m.mu.Unlock()
}

func (m *Mirror) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.quit:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case job := <-m.jobs:
					m.process(job)
				default:
					return
				}
			}
		case job := <-m.jobs:
			m.process(job)
		}
	}
}

// current reports whether job still represents the newest known revision
// for its identity. Cancelled or superseded jobs are skipped.
func (m *Mirror) current(job Job) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rev, ok := m.latest[job.Email]
	return ok && rev == job.Revision
}

func (m *Mirror) process(job Job) {
	if !m.current(job) {
		return
	}

	rec, err := m.store.Get(context.Background(), job.Email)
	if err != nil {
		if err != store.ErrNotFound {
			m.log.Errorw("mirror snapshot load failed", "job", job.ID, "email", job.Email, "error", err)
		}
		return
	}

	err = m.replay(rec)
	if err != nil {
		m.log.Errorw("mirror replay failed", "job", job.ID, "email", job.Email, "revision", job.Revision, "error", err)
		// Forget the revision so a sweep re-enqueue of the same one is
		// accepted; leaving it would swallow every retry forever.
		m.mu.Lock()
		if m.latest[job.Email] == job.Revision {
			delete(m.latest, job.Email)
		}
		m.mu.Unlock()
		m.markPending(job.Email, err.Error())
		return
	}

	now := time.Now()
	if err := m.store.SetMirrorStatus(context.Background(), job.Email, store.MirrorStatus{
		Pending:        false,
		LastMirroredAt: &now,
	}); err != nil && err != store.ErrNotFound {
		m.log.Errorw("mirror status stamp failed", "email", job.Email, "error", err)
	}

	m.mu.Lock()
	if m.latest[job.Email] == job.Revision {
		delete(m.latest, job.Email)
	}
	m.mu.Unlock()
}

// replay pushes the snapshot onto the ledger with bounded retries and
// exponential backoff. Fatal errors abort immediately.
func (m *Mirror) replay(rec *models.User) error {
	var lastErr error
	for attempt := 0; attempt < m.opts.Attempts; attempt++ {
		if attempt > 0 {
			backoff := m.opts.BaseBackoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-m.quit:
				return lastErr
			}
		}
		lastErr = m.attempt(rec)
		if lastErr == nil {
			return nil
		}
		if ledger.IsFatal(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (m *Mirror) attempt(rec *models.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.AttemptTimeout)
	defer cancel()

	if err := m.client.WriteBasic(ctx, rec.Email, ledger.BasicFields{
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Points:       rec.Points,
		IsVerified:   rec.IsVerified,
	}); err != nil {
		return err
	}

	lastLogin := ""
	if rec.LastLogin != nil {
		lastLogin = rec.LastLogin.UTC().Format(time.RFC3339)
	}
	if err := m.client.WriteAdditional(ctx, rec.Email, ledger.AdditionalFields{
		LastLogin:                   lastLogin,
		StreakCount:                 rec.StreakCount,
		ProfileCompletedRewardGiven: rec.ProfileCompletedRewardGiven,
		DateOfBirth:                 rec.DateOfBirth,
		Gender:                      rec.Gender,
		Mobile:                      rec.Mobile,
		Address:                     rec.Address,
	}); err != nil {
		return err
	}

	// Rows are keyed by their entry ID on the ledger, so replaying one is
	// an overwrite, never a duplicate. Sending the full history every time
	// keeps the replay stateless.
	for _, e := range rec.RewardHistory {
		if err := m.client.AppendRewardEntry(ctx, rec.Email, ledger.RewardEntry{
			ID:     e.ID,
			Points: e.Points,
			Reason: e.Reason,
			Date:   e.Date,
		}); err != nil {
			return err
		}
	}

	if rec.HasOtp() {
		return m.client.UpdateOtp(ctx, rec.Email, *rec.Otp, rec.OtpExpiration.Unix())
	}
	return m.client.UpdateOtp(ctx, rec.Email, "", 0)
}

func (m *Mirror) markPending(email, reason string) {
	if err := m.store.SetMirrorStatus(context.Background(), email, store.MirrorStatus{
		Pending:   true,
		LastError: reason,
	}); err != nil && err != store.ErrNotFound {
		m.log.Errorw("mirror pending stamp failed", "email", email, "error", err)
	}
}
