package svc

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"snipbin/metrics"
	"snipbin/pkg/domain"
	"snipbin/svc/util"
)

// PasteStore is the contract against the backing document collection.
// *db.Mongo satisfies it; tests swap in an in-memory fake.
type PasteStore interface {
	Insert(ctx context.Context, p *domain.Paste) error
	FindBySlug(ctx context.Context, slug string) (*domain.Paste, error)
	FindByCreator(ctx context.Context, creatorID string) ([]domain.Paste, error)
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}

type Paste struct {
	store PasteStore
}

func NewPaste(store PasteStore) *Paste {
	if store == nil {
		panic("paste service: nil store")
	}
	return &Paste{store: store}
}

// Create validates the input and persists a new paste for creatorID.
// Any client-supplied slug is discarded after validation: the slug is
// always freshly generated, as this service has done from day one. A
// collision on the unique index surfaces as ErrSlugTaken with no retry.
func (p *Paste) Create(ctx context.Context, creatorID string, in domain.CreateInput) (*domain.Paste, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	paste := &domain.Paste{
		Slug:      util.GenSlug(),
		Content:   in.Content,
		CreatedAt: time.Now().UTC(),
		CreatorID: creatorID,
	}
	if err := p.store.Insert(ctx, paste); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			return nil, domain.ErrSlugTaken
		}
		return nil, errors.Wrap(err, "insert paste")
	}
	metrics.PasteCreated.Inc()
	return paste, nil
}

// Get looks a paste up by slug. An absent document maps to
// ErrPasteNotFound; whether it never existed or was swept is not
// distinguishable here and deliberately not distinguished downstream.
func (p *Paste) Get(ctx context.Context, slug string) (*domain.Paste, error) {
	paste, err := p.store.FindBySlug(ctx, slug)
	if err != nil {
		return nil, errors.Wrap(err, "find paste")
	}
	if paste == nil {
		return nil, domain.ErrPasteNotFound
	}
	metrics.PasteRetrieved.Inc()
	return paste, nil
}

// ListByCreator returns every paste for the creator, expired-but-unswept
// rows included; the listing trusts the sweeper to have pruned stale data.
func (p *Paste) ListByCreator(ctx context.Context, creatorID string) ([]domain.Paste, error) {
	pastes, err := p.store.FindByCreator(ctx, creatorID)
	if err != nil {
		return nil, errors.Wrap(err, "list pastes")
	}
	metrics.PasteListed.Inc()
	return pastes, nil
}
