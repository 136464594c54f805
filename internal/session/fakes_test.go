package session

import (
	"context"
	"sync"
	"time"

	"campaign-platform/internal/users"
)

type fakeUsers struct {
	mu          sync.Mutex
	byID        map[string]users.User
	memberships map[string][]users.Membership
	lastLogin   map[string]time.Time
	failGet     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:        map[string]users.User{},
		memberships: map[string][]users.Membership{},
		lastLogin:   map[string]time.Time{},
	}
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return users.User{}, f.failGet
	}
	for _, u := range f.byID {
		if users.NormalizeEmail(u.Email) == users.NormalizeEmail(email) {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, u users.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if users.NormalizeEmail(existing.Email) == users.NormalizeEmail(u.Email) {
			return users.ErrEmailTaken
		}
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogin[id] = at
	return nil
}

func (f *fakeUsers) ActiveMemberships(_ context.Context, userID string) ([]users.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]users.Membership{}, f.memberships[userID]...)
	return out, nil
}

func (f *fakeUsers) ActiveMembership(_ context.Context, userID, tenantID string) (users.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships[userID] {
		if m.TenantID == tenantID {
			return m, nil
		}
	}
	return users.Membership{}, users.ErrNotFound
}

func (f *fakeUsers) setActive(id string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.IsActive = active
	f.byID[id] = u
}

func (f *fakeUsers) addMembership(userID string, m users.Membership) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships[userID] = append(f.memberships[userID], m)
}

type fakeTokens struct {
	mu        sync.Mutex
	rows      map[string]RefreshToken
	insertErr error
	deleteErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{rows: map[string]RefreshToken{}}
}

func (f *fakeTokens) Insert(_ context.Context, t RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows[t.Token] = t
	return nil
}

func (f *fakeTokens) FindValid(_ context.Context, token string, now time.Time) (RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[token]
	if !ok || !t.ExpiresAt.After(now) {
		return RefreshToken{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeTokens) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, token)
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}
