// Package storage provides the SQLite-backed heroes collection.
// The daemon is the single writer; clients reach it through a gateway.
package storage

import (
	"context"

	"github.com/runger/heroes/internal/hero"
)

// Store defines the operations the heroes collection supports.
type Store interface {
	ListHeroes(ctx context.Context) ([]hero.Hero, error)
	GetHero(ctx context.Context, id int) (hero.Hero, error)
	SearchHeroes(ctx context.Context, term string) ([]hero.Hero, error)
	CreateHero(ctx context.Context, h *hero.Hero) error
	ReplaceHero(ctx context.Context, h hero.Hero) error
	DeleteHero(ctx context.Context, id int) error

	// Lifecycle
	Close() error
}

// Match modes for SearchHeroes.
const (
	MatchContains = "contains"
	MatchPrefix   = "prefix"
)

// Options configures a SQLiteStore.
type Options struct {
	// Match selects how SearchHeroes compares the term with names:
	// MatchContains (default) or MatchPrefix.
	Match string

	// CaseSensitive disables ASCII case folding in SearchHeroes.
	CaseSensitive bool

	// Seed fills a freshly created database with the default heroes.
	Seed bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Match:         MatchContains,
		CaseSensitive: false,
		Seed:          true,
	}
}

// SeedHeroes is the roster a new database starts with.
var SeedHeroes = []hero.Hero{
	{ID: 12, Name: "Dr. Nice"},
	{ID: 13, Name: "Bombasto"},
	{ID: 14, Name: "Celeritas"},
	{ID: 15, Name: "Magneta"},
	{ID: 16, Name: "RubberMan"},
	{ID: 17, Name: "Dynama"},
	{ID: 18, Name: "Dr. IQ"},
	{ID: 19, Name: "Magma"},
	{ID: 20, Name: "Tornado"},
}
