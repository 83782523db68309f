// Package backend defines the transport contract the request gateway calls
// and the in-process and HTTP implementations of it.
package backend

import (
	"context"

	"github.com/runger/heroes/internal/hero"
)

// Gateway is the raw transport to the heroes collection. Every method may
// fail; FetchByID reports a missing hero with hero.ErrNotFound.
type Gateway interface {
	FetchAll(ctx context.Context) ([]hero.Hero, error)
	FetchByID(ctx context.Context, id int) (hero.Hero, error)
	FetchMatching(ctx context.Context, term string) ([]hero.Hero, error)
	Create(ctx context.Context, h hero.Hero) (hero.Hero, error)
	Replace(ctx context.Context, h hero.Hero) error
	DeleteByID(ctx context.Context, id int) error
}
