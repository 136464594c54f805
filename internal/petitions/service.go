// Package petitions serves tenant-scoped petition management and public signing.
package petitions

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"campaign-platform/internal/apperr"
	"campaign-platform/internal/users"
	"campaign-platform/pkg/logger"

	"github.com/google/uuid"
)

// Store is the persistence contract used by Service.
type Store interface {
	List(ctx context.Context, tenantID string) ([]Petition, error)
	Get(ctx context.Context, tenantID, id string) (Petition, error)
	GetPublic(ctx context.Context, slug string) (Petition, error)
	Insert(ctx context.Context, p Petition) error
	Delete(ctx context.Context, tenantID, id string) error
	ListSignatures(ctx context.Context, petitionID string) ([]Signature, error)
	InsertSignature(ctx context.Context, s Signature) error
	CountSignatures(ctx context.Context, petitionID string) (int64, error)
}

// Service applies tenant scoping and validation on top of Store.
// Signature counts go through the counter cache; cache failures degrade to
// database counts and are never surfaced to callers.
type Service struct {
	store   Store
	counter SignatureCounter
	clock   func() time.Time
}

func NewService(store Store, counter SignatureCounter) *Service {
	if counter == nil {
		counter = NoopCounter{}
	}
	return &Service{store: store, counter: counter, clock: time.Now}
}

const maxSlugAttempts = 3

func (s *Service) List(ctx context.Context, tenantID string) ([]Petition, error) {
	ps, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	for i := range ps {
		n, err := s.count(ctx, ps[i].ID)
		if err != nil {
			return nil, apperr.Unexpected(err)
		}
		ps[i].SignatureCount = n
	}
	return ps, nil
}

func (s *Service) Create(ctx context.Context, tenantID, userID string, req CreateRequest) (Petition, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return Petition{}, apperr.Validation("title is required")
	}
	if req.Goal < 0 {
		return Petition{}, apperr.Validation("goal must not be negative")
	}

	p := Petition{
		TenantID:    tenantID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Goal:        req.Goal,
		IsActive:    true,
		CreatedBy:   userID,
		CreatedAt:   s.clock().UTC(),
	}
	for attempt := 0; ; attempt++ {
		p.ID = uuid.NewString()
		p.Slug = makeSlug(title)
		err := s.store.Insert(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrSlugTaken) || attempt+1 >= maxSlugAttempts {
			return Petition{}, apperr.Unexpected(err)
		}
	}
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Petition, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Petition{}, apperr.NotFound("petition not found")
	}
	p, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return Petition{}, mapStoreErr(err)
	}
	if p.SignatureCount, err = s.count(ctx, p.ID); err != nil {
		return Petition{}, apperr.Unexpected(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("petition not found")
	}
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		return mapStoreErr(err)
	}
	if err := s.counter.Forget(ctx, id); err != nil {
		logger.From(ctx).Warn("signature counter forget failed", "petition_id", id, "err", err)
	}
	return nil
}

// Signatures lists signatures of a petition owned by tenantID.
func (s *Service) Signatures(ctx context.Context, tenantID, id string) ([]Signature, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("petition not found")
	}
	if _, err := s.store.Get(ctx, tenantID, id); err != nil {
		return nil, mapStoreErr(err)
	}
	sigs, err := s.store.ListSignatures(ctx, id)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	return sigs, nil
}

func (s *Service) GetPublic(ctx context.Context, slug string) (Petition, error) {
	p, err := s.store.GetPublic(ctx, strings.TrimSpace(slug))
	if err != nil {
		return Petition{}, mapStoreErr(err)
	}
	if p.SignatureCount, err = s.count(ctx, p.ID); err != nil {
		return Petition{}, apperr.Unexpected(err)
	}
	return p, nil
}

// Sign records a signature. userID is empty for anonymous signers.
func (s *Service) Sign(ctx context.Context, slug, userID string, req SignRequest) (Signature, error) {
	email := users.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" {
		return Signature{}, apperr.Validation("email and fullName are required")
	}

	p, err := s.store.GetPublic(ctx, strings.TrimSpace(slug))
	if err != nil {
		return Signature{}, mapStoreErr(err)
	}

	sig := Signature{
		ID:         uuid.NewString(),
		PetitionID: p.ID,
		Email:      email,
		FullName:   fullName,
		Comment:    strings.TrimSpace(req.Comment),
		CreatedAt:  s.clock().UTC(),
	}
	if userID != "" {
		sig.UserID = &userID
	}
	if err := s.store.InsertSignature(ctx, sig); err != nil {
		if errors.Is(err, ErrAlreadySigned) {
			return Signature{}, apperr.Conflict("petition already signed", err)
		}
		return Signature{}, apperr.Unexpected(err)
	}

	if err := s.counter.Increment(ctx, p.ID); err != nil {
		logger.From(ctx).Warn("signature counter increment failed", "petition_id", p.ID, "err", err)
	}
	return sig, nil
}

func (s *Service) count(ctx context.Context, petitionID string) (int64, error) {
	n, ok, err := s.counter.Get(ctx, petitionID)
	if err != nil {
		logger.From(ctx).Warn("signature counter read failed", "petition_id", petitionID, "err", err)
	}
	if ok {
		return n, nil
	}

	n, err = s.store.CountSignatures(ctx, petitionID)
	if err != nil {
		return 0, err
	}
	if err := s.counter.Set(ctx, petitionID, n); err != nil {
		logger.From(ctx).Warn("signature counter write failed", "petition_id", petitionID, "err", err)
	}
	return n, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("petition not found")
	}
	return apperr.Unexpected(err)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// makeSlug lower-cases title, collapses everything else to dashes and adds a
// short random suffix.
func makeSlug(title string) string {
	base := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(base) > 60 {
		base = strings.TrimRight(base[:60], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
