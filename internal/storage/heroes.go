package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/runger/heroes/internal/hero"
)

// errIDRequired is the validation message for a missing hero id.
const errIDRequired = "hero id is required"

// ListHeroes returns every hero ordered by id.
func (s *SQLiteStore) ListHeroes(ctx context.Context) ([]hero.Hero, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM heroes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list heroes: %w", err)
	}
	return scanHeroes(rows)
}

// GetHero returns the hero with the given id, or hero.ErrNotFound.
func (s *SQLiteStore) GetHero(ctx context.Context, id int) (hero.Hero, error) {
	var h hero.Hero
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM heroes WHERE id = ?`, id).Scan(&h.ID, &h.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return hero.Hero{}, hero.ErrNotFound
		}
		return hero.Hero{}, fmt.Errorf("failed to get hero %d: %w", id, err)
	}
	return h, nil
}

// SearchHeroes returns the heroes whose name matches term under the store's
// match options. An empty term matches nothing.
func (s *SQLiteStore) SearchHeroes(ctx context.Context, term string) ([]hero.Hero, error) {
	if term == "" {
		return []hero.Hero{}, nil
	}

	where, args := s.matchClause(term)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM heroes WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search heroes: %w", err)
	}
	return scanHeroes(rows)
}

// matchClause builds the WHERE predicate for SearchHeroes.
// LIKE folds ASCII case only; instr is byte-exact.
func (s *SQLiteStore) matchClause(term string) (string, []any) {
	switch {
	case s.opts.Match == MatchPrefix && s.opts.CaseSensitive:
		return `instr(name, ?) = 1`, []any{term}
	case s.opts.Match == MatchPrefix:
		return `name LIKE ? ESCAPE '\'`, []any{escapeLike(term) + "%"}
	case s.opts.CaseSensitive:
		return `instr(name, ?) > 0`, []any{term}
	default:
		return `name LIKE ? ESCAPE '\'`, []any{"%" + escapeLike(term) + "%"}
	}
}

// CreateHero inserts h and sets h.ID to the id the store assigned.
// A non-zero h.ID is ignored; ids are always store-assigned.
func (s *SQLiteStore) CreateHero(ctx context.Context, h *hero.Hero) error {
	if h == nil {
		return errors.New("hero cannot be nil")
	}
	h.Name = hero.NormalizeName(h.Name)
	if err := hero.ValidateName(h.Name); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `INSERT INTO heroes (name) VALUES (?)`, h.Name)
	if err != nil {
		return fmt.Errorf("failed to create hero: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new hero id: %w", err)
	}
	h.ID = int(id)
	return nil
}

// ReplaceHero stores h under h.ID, creating the row when it does not exist.
func (s *SQLiteStore) ReplaceHero(ctx context.Context, h hero.Hero) error {
	if !h.Persisted() {
		return errors.New(errIDRequired)
	}
	if err := h.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO heroes (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, h.ID, h.Name)
	if err != nil {
		return fmt.Errorf("failed to replace hero %d: %w", h.ID, err)
	}
	return nil
}

// DeleteHero removes the hero with the given id.
// Deleting an id that does not exist is not an error.
func (s *SQLiteStore) DeleteHero(ctx context.Context, id int) error {
	if id <= 0 {
		return errors.New(errIDRequired)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM heroes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete hero %d: %w", id, err)
	}
	return nil
}

func scanHeroes(rows *sql.Rows) ([]hero.Hero, error) {
	defer rows.Close()

	heroes := []hero.Hero{}
	for rows.Next() {
		var h hero.Hero
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan hero: %w", err)
		}
		heroes = append(heroes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate heroes: %w", err)
	}
	return heroes, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so term matches literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
