// Package heroservice is the request gateway UI code calls for hero data.
//
// Every operation funnels through WithFallback: a failed backend call is
// reported on the diagnostic logger, recorded in the status log and replaced
// by a fallback value. Callers never see a transport error.
package heroservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/runger/heroes/internal/backend"
	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/messages"
)

// Service wraps a backend gateway with failure absorption and status logging.
// It holds no mutable state; a Service is safe for concurrent use as long as
// its sink is.
type Service struct {
	backend backend.Gateway
	sink    messages.Sink
	logger  *slog.Logger
}

// New creates a Service. A nil sink discards status lines and a nil logger
// uses slog.Default.
func New(gw backend.Gateway, sink messages.Sink, logger *slog.Logger) *Service {
	if sink == nil {
		sink = messages.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: gw, sink: sink, logger: logger}
}

// WithFallback runs call and returns its result. On success it appends
// "<label> succeeded" to the status log. On failure, including a panic in
// call, it logs the error, appends "<label> failed: <message>" and returns
// fallback.
func WithFallback[T any](ctx context.Context, s *Service, label string, call func(context.Context) (T, error), fallback T) T {
	return run(ctx, s, label, call, fallback, func(T) string {
		return label + " succeeded"
	})
}

// run is WithFallback with a caller-supplied success line.
func run[T any](ctx context.Context, s *Service, label string, call func(context.Context) (T, error), fallback T, describe func(T) string) T {
	result, err := invoke(ctx, call)
	if err != nil {
		s.logger.Error("hero operation failed", "op", label, "error", err)
		s.sink.Add(fmt.Sprintf("%s failed: %s", label, err.Error()))
		return fallback
	}
	s.sink.Add(describe(result))
	return result
}

// invoke calls call, turning a panic into an error.
func invoke[T any](ctx context.Context, call func(context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return call(ctx)
}

// Heroes returns every hero, or an empty slice on failure.
func (s *Service) Heroes(ctx context.Context) []hero.Hero {
	return run(ctx, s, "getHeroes", func(ctx context.Context) ([]hero.Hero, error) {
		return s.backend.FetchAll(ctx)
	}, []hero.Hero{}, func([]hero.Hero) string { return "fetched heroes" })
}

// TopHeroes returns the heroes at positions 1..n of the full list, the
// dashboard's selection. The first hero is skipped.
func (s *Service) TopHeroes(ctx context.Context, n int) []hero.Hero {
	heroes := s.Heroes(ctx)
	if n <= 0 || len(heroes) < 2 {
		return []hero.Hero{}
	}
	end := 1 + n
	if end > len(heroes) {
		end = len(heroes)
	}
	top := make([]hero.Hero, end-1)
	copy(top, heroes[1:end])
	return top
}

// Hero returns the hero with the given id. ok is false when the hero does
// not exist or the lookup failed.
func (s *Service) Hero(ctx context.Context, id int) (h hero.Hero, ok bool) {
	label := fmt.Sprintf("getHero id=%d", id)
	found := run(ctx, s, label, func(ctx context.Context) (*hero.Hero, error) {
		h, err := s.backend.FetchByID(ctx, id)
		if errors.Is(err, hero.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &h, nil
	}, nil, func(found *hero.Hero) string {
		if found == nil {
			return fmt.Sprintf("did not find hero id=%d", id)
		}
		return fmt.Sprintf("fetched hero id=%d", id)
	})
	if found == nil {
		return hero.Hero{}, false
	}
	return *found, true
}

// AddHero creates a hero named name. ok is false when the name is blank or
// creation failed; no record is invented in either case.
func (s *Service) AddHero(ctx context.Context, name string) (h hero.Hero, ok bool) {
	name = hero.NormalizeName(name)
	if hero.ValidateName(name) != nil {
		return hero.Hero{}, false
	}
	created := run(ctx, s, "addHero", func(ctx context.Context) (*hero.Hero, error) {
		h, err := s.backend.Create(ctx, hero.Hero{Name: name})
		if err != nil {
			return nil, err
		}
		return &h, nil
	}, nil, func(created *hero.Hero) string {
		return fmt.Sprintf("added hero w/ id=%d", created.ID)
	})
	if created == nil {
		return hero.Hero{}, false
	}
	return *created, true
}

// UpdateHero replaces the stored record for h.ID. A hero without an id or
// with a blank name is ignored.
func (s *Service) UpdateHero(ctx context.Context, h hero.Hero) {
	if !h.Persisted() {
		return
	}
	h.Name = hero.NormalizeName(h.Name)
	if hero.ValidateName(h.Name) != nil {
		return
	}
	label := fmt.Sprintf("updateHero id=%d", h.ID)
	run(ctx, s, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.Replace(ctx, h)
	}, struct{}{}, func(struct{}) string {
		return fmt.Sprintf("updated hero id=%d", h.ID)
	})
}

// DeleteHero removes the hero with the given id. Deleting a hero that is
// already gone looks the same as deleting it now.
func (s *Service) DeleteHero(ctx context.Context, id int) {
	label := fmt.Sprintf("deleteHero id=%d", id)
	run(ctx, s, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.DeleteByID(ctx, id)
	}, struct{}{}, func(struct{}) string {
		return fmt.Sprintf("deleted hero id=%d", id)
	})
}

// SearchHeroes returns heroes whose name matches term. A blank term returns
// an empty slice without calling the backend or logging.
func (s *Service) SearchHeroes(ctx context.Context, term string) []hero.Hero {
	if hero.NormalizeName(term) == "" {
		return []hero.Hero{}
	}
	return run(ctx, s, "searchHeroes", func(ctx context.Context) ([]hero.Hero, error) {
		return s.backend.FetchMatching(ctx, term)
	}, []hero.Hero{}, func(found []hero.Hero) string {
		if len(found) == 0 {
			return fmt.Sprintf("no heroes matching %q", term)
		}
		return fmt.Sprintf("found heroes matching %q", term)
	})
}
