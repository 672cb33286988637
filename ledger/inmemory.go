package ledger

import (
	"context"
	"sync"
)

// InMemory is a ledger fake for tests and local runs. FailWith makes every
// call return the given error until cleared, which is how tests exercise
// the mirror's retry and sweep paths.
type InMemory struct {
	mu         sync.Mutex
	basic      map[string]BasicFields
	additional map[string]AdditionalFields
	rewards    map[string][]RewardEntry
	otps       map[string]string
	writes     int
	failErr    error
}

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		basic:      map[string]BasicFields{},
		additional: map[string]AdditionalFields{},
		rewards:    map[string][]RewardEntry{},
		otps:       map[string]string{},
	}
}

// FailWith forces all subsequent calls to fail with err; pass nil to heal.
func (l *InMemory) FailWith(err error) {
	l.mu.Lock()
	l.failErr = err
	l.mu.Unlock()
}

func (l *InMemory) WriteBasic(ctx context.Context, identity string, fields BasicFields) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return l.failErr
	}
	l.basic[identity] = fields
	l.writes++
	return nil
}

func (l *InMemory) WriteAdditional(ctx context.Context, identity string, fields AdditionalFields) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return l.failErr
	}
	l.additional[identity] = fields
	l.writes++
	return nil
}

func (l *InMemory) AppendRewardEntry(ctx context.Context, identity string, entry RewardEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return l.failErr
	}
	// Keyed by entry ID: a replayed row lands in its existing slot.
	if entry.ID != 0 {
		for i, e := range l.rewards[identity] {
			if e.ID == entry.ID {
				l.rewards[identity][i] = entry
				l.writes++
				return nil
			}
		}
	}
	l.rewards[identity] = append(l.rewards[identity], entry)
	l.writes++
	return nil
}

func (l *InMemory) UpdateOtp(ctx context.Context, identity string, code string, expiry int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return l.failErr
	}
	l.otps[identity] = code
	l.writes++
	return nil
}

// Basic returns the mirrored basic fields for identity.
func (l *InMemory) Basic(identity string) (BasicFields, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.basic[identity]
	return f, ok
}

// Additional returns the mirrored reward/profile fields for identity.
func (l *InMemory) Additional(identity string) (AdditionalFields, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.additional[identity]
	return f, ok
}

// Rewards returns the ledger-side reward history for identity.
func (l *InMemory) Rewards(identity string) []RewardEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RewardEntry, len(l.rewards[identity]))
	copy(out, l.rewards[identity])
	return out
}

// Otp returns the mirrored OTP code for identity, empty when cleared.
func (l *InMemory) Otp(identity string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.otps[identity]
}

// Writes reports how many calls landed.
func (l *InMemory) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
