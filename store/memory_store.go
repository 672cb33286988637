package store

import (
	"context"
	"sort"
	"sync"

	"github.com/aquametrics/aquametrics/models"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It enforces the same revision semantics as the database-backed store.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	nextID  uint
	entryID uint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[string]*models.User{}, nextID: 1, entryID: 1}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.RewardHistory = make([]models.RewardEntry, len(u.RewardHistory))
	copy(c.RewardHistory, u.RewardHistory)
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	if u.Otp != nil {
		s := *u.Otp
		c.Otp = &s
	}
	if u.OtpExpiration != nil {
		t := *u.OtpExpiration
		c.OtpExpiration = &t
	}
	if u.LastMirroredAt != nil {
		t := *u.LastMirroredAt
		c.LastMirroredAt = &t
	}
	return &c
}

func (s *MemoryStore) Get(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Create(ctx context.Context, rec *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[rec.Email]; ok {
		return ErrEmailTaken
	}
	rec.ID = s.nextID
	s.nextID++
	for i := range rec.RewardHistory {
		rec.RewardHistory[i].ID = s.entryID
		rec.RewardHistory[i].UserID = rec.ID
		s.entryID++
	}
	s.users[rec.Email] = cloneUser(rec)
	return nil
}

func (s *MemoryStore) ConditionalPut(ctx context.Context, expectedRevision uint64, rec *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[rec.Email]
	if !ok {
		return ErrNotFound
	}
	if cur.Revision != expectedRevision {
		return ErrConflict
	}
	rec.Revision = expectedRevision + 1
	rec.ID = cur.ID
	for i := range rec.RewardHistory {
		if rec.RewardHistory[i].ID == 0 {
			rec.RewardHistory[i].ID = s.entryID
			rec.RewardHistory[i].UserID = cur.ID
			s.entryID++
		}
	}
	// Mirror bookkeeping is owned by SetMirrorStatus; keep the stored values.
	rec.PendingMirror = cur.PendingMirror
	rec.LastMirroredAt = cur.LastMirroredAt
	rec.LastMirrorError = cur.LastMirrorError
	s.users[rec.Email] = cloneUser(rec)
	return nil
}

func (s *MemoryStore) SetMirrorStatus(ctx context.Context, email string, st MirrorStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return ErrNotFound
	}
	u.PendingMirror = st.Pending
	if st.LastMirroredAt != nil {
		t := *st.LastMirroredAt
		u.LastMirroredAt = &t
	}
	u.LastMirrorError = st.LastError
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; !ok {
		return ErrNotFound
	}
	delete(s.users, email)
	return nil
}

func (s *MemoryStore) PendingMirror(ctx context.Context, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.PendingMirror {
			out = append(out, *cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Top(ctx context.Context, n int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	if n <= 0 {
		n = 10
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
