package backend

import (
	"context"
	"errors"

	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/storage"
)

// Local serves a Gateway straight from a store in the same process.
type Local struct {
	store storage.Store
}

var _ Gateway = (*Local)(nil)

// NewLocal wraps store.
func NewLocal(store storage.Store) *Local {
	return &Local{store: store}
}

func (l *Local) FetchAll(ctx context.Context) ([]hero.Hero, error) {
	return l.store.ListHeroes(ctx)
}

func (l *Local) FetchByID(ctx context.Context, id int) (hero.Hero, error) {
	return l.store.GetHero(ctx, id)
}

func (l *Local) FetchMatching(ctx context.Context, term string) ([]hero.Hero, error) {
	return l.store.SearchHeroes(ctx, term)
}

// Create ignores any id on h; the store assigns one.
func (l *Local) Create(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	h.ID = 0
	if err := l.store.CreateHero(ctx, &h); err != nil {
		return hero.Hero{}, err
	}
	return h, nil
}

func (l *Local) Replace(ctx context.Context, h hero.Hero) error {
	return l.store.ReplaceHero(ctx, h)
}

func (l *Local) DeleteByID(ctx context.Context, id int) error {
	if id <= 0 {
		return errors.New("hero id is required")
	}
	return l.store.DeleteHero(ctx, id)
}
