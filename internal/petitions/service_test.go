package petitions

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"campaign-platform/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu         sync.Mutex
	petitions  map[string]Petition
	signatures map[string][]Signature
	counts     int
	afterCount func()
}

func newMemStore() *memStore {
	return &memStore{petitions: map[string]Petition{}, signatures: map[string][]Signature{}}
}

func (m *memStore) List(_ context.Context, tenantID string) ([]Petition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Petition
	for _, p := range m.petitions {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, tenantID, id string) (Petition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.petitions[id]
	if !ok || p.TenantID != tenantID {
		return Petition{}, ErrNotFound
	}
	return p, nil
}

func (m *memStore) GetPublic(_ context.Context, slug string) (Petition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.petitions {
		if p.Slug == slug && p.IsActive {
			return p, nil
		}
	}
	return Petition{}, ErrNotFound
}

func (m *memStore) Insert(_ context.Context, p Petition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.petitions[p.ID] = p
	return nil
}

func (m *memStore) Delete(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.petitions[id]
	if !ok || p.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.petitions, id)
	delete(m.signatures, id)
	return nil
}

func (m *memStore) ListSignatures(_ context.Context, petitionID string) ([]Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Signature{}, m.signatures[petitionID]...), nil
}

func (m *memStore) InsertSignature(_ context.Context, s Signature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.signatures[s.PetitionID] {
		if existing.Email == s.Email {
			return ErrAlreadySigned
		}
	}
	m.signatures[s.PetitionID] = append(m.signatures[s.PetitionID], s)
	return nil
}

func (m *memStore) CountSignatures(_ context.Context, petitionID string) (int64, error) {
	m.mu.Lock()
	m.counts++
	n := int64(len(m.signatures[petitionID]))
	hook := m.afterCount
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return n, nil
}

// memCounter mirrors RedisCounter: Set never overwrites, and Increment on a
// miss leaves an invalidation that swallows the next Set.
type memCounter struct {
	mu          sync.Mutex
	values      map[string]int64
	invalidated map[string]bool
	getErr      error
}

func newMemCounter() *memCounter {
	return &memCounter{values: map[string]int64{}, invalidated: map[string]bool{}}
}

func (c *memCounter) Get(_ context.Context, id string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	n, ok := c.values[id]
	return n, ok, nil
}

func (c *memCounter) Set(_ context.Context, id string, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidated[id] {
		delete(c.invalidated, id)
		return nil
	}
	if _, ok := c.values[id]; !ok {
		c.values[id] = n
	}
	return nil
}

func (c *memCounter) Increment(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.values[id]; ok {
		c.values[id] = n + 1
		return nil
	}
	c.invalidated[id] = true
	return nil
}

func (c *memCounter) Forget(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, id)
	delete(c.invalidated, id)
	return nil
}

const (
	tenantA = "6f1c2a0e-8a44-4c5e-9d0b-1a2b3c4d5e6f"
	tenantB = "0b7e6d2c-1f3a-4b9e-8c7d-6e5f4a3b2c1d"
	userID  = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

func TestCreate_ValidatesAndDerivesSlug(t *testing.T) {
	svc := NewService(newMemStore(), newMemCounter())
	ctx := context.Background()

	_, err := svc.Create(ctx, tenantA, userID, CreateRequest{Title: "  "})
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	_, err = svc.Create(ctx, tenantA, userID, CreateRequest{Title: "Save the park", Goal: -1})
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	p, err := svc.Create(ctx, tenantA, userID, CreateRequest{Title: "Save the Park!", Goal: 100})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^save-the-park-[0-9a-f]{6}$`), p.Slug)
	assert.Equal(t, tenantA, p.TenantID)
	assert.Equal(t, userID, p.CreatedBy)
}

func TestGet_IsTenantScoped(t *testing.T) {
	svc := NewService(newMemStore(), newMemCounter())
	ctx := context.Background()

	p, err := svc.Create(ctx, tenantA, userID, CreateRequest{Title: "Bike lanes"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, tenantB, p.ID)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	err = svc.Delete(ctx, tenantB, p.ID)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	_, err = svc.Signatures(ctx, tenantB, p.ID)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	_, err = svc.Get(ctx, tenantA, "not-a-uuid")
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
}

func TestSign(t *testing.T) {
	store := newMemStore()
	counter := newMemCounter()
	svc := NewService(store, counter)
	ctx := context.Background()

	p, err := svc.Create(ctx, tenantA, userID, CreateRequest{Title: "Clean rivers"})
	require.NoError(t, err)

	_, err = svc.Sign(ctx, p.Slug, "", SignRequest{Email: "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	_, err = svc.Sign(ctx, "missing", "", SignRequest{Email: "x@example.com", FullName: "X"})
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	anon, err := svc.Sign(ctx, p.Slug, "", SignRequest{Email: "Anon@Example.com", FullName: "Anon"})
	require.NoError(t, err)
	assert.Nil(t, anon.UserID)
	assert.Equal(t, "anon@example.com", anon.Email)

	known, err := svc.Sign(ctx, p.Slug, userID, SignRequest{Email: "me@example.com", FullName: "Me"})
	require.NoError(t, err)
	require.NotNil(t, known.UserID)
	assert.Equal(t, userID, *known.UserID)

	_, err = svc.Sign(ctx, p.Slug, "", SignRequest{Email: "ANON@example.com", FullName: "Again"})
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Equal(t, "petition already signed", apperr.PublicMessage(err))

	got, err := svc.GetPublic(ctx, p.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.SignatureCount)
}

func TestCount_UsesCacheAndFallsBack(t *testing.T) {
	store := newMemStore()
	counter := newMemCounter()
	svc := NewService(store, counter)
	ctx := context.Background()

	p, err := svc.Create(ctx, tenantA, userID, CreateRequest{Title: "Library hours"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.counts, "first read populates the cache")

	_, err = svc.Sign(ctx, p.Slug, "", SignRequest{Email: "a@example.com", FullName: "A"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.SignatureCount)
	assert.Equal(t, 1, store.counts, "cached count was incremented in place")

	counter.getErr = errors.New("redis down")
	got, err = svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.SignatureCount)
	assert.Equal(t, 2, store.counts)
}

func TestCount_SignatureDuringRecountIsNotLost(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, newMemCounter())
	ctx := context.Background()

	p, err := svc.Create(ctx, tenantA, userID, CreateRequest{Title: "Night buses"})
	require.NoError(t, err)

	// The signature commits after the recount read the table but before the
	// recount is cached.
	store.afterCount = func() {
		store.afterCount = nil
		_, err := svc.Sign(ctx, p.Slug, "", SignRequest{Email: "late@example.com", FullName: "Late"})
		require.NoError(t, err)
	}
	got, err := svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.SignatureCount)

	got, err = svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.SignatureCount)

	got, err = svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.SignatureCount)
	assert.Equal(t, 2, store.counts, "recount after invalidation is cached")
}

func TestDelete_ForgetsCounter(t *testing.T) {
	counter := newMemCounter()
	svc := NewService(newMemStore(), counter)
	ctx := context.Background()

	p, err := svc.Create(ctx, tenantA, userID, CreateRequest{Title: "Crosswalk"})
	require.NoError(t, err)
	_, err = svc.Get(ctx, tenantA, p.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tenantA, p.ID))
	_, ok, _ := counter.Get(ctx, p.ID)
	assert.False(t, ok)
}

func TestMakeSlug(t *testing.T) {
	assert.Regexp(t, `^[0-9a-f]{6}$`, makeSlug("!!!"))
	assert.Regexp(t, `^a-b-c-[0-9a-f]{6}$`, makeSlug(" A  b/c "))
}
