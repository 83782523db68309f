package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/metrics"
	"github.com/runger/heroes/internal/storage"
)

const maxBodyBytes = 1 << 16

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type heroHandler struct {
	store   storage.Store
	metrics *metrics.Collector
	logger  *slog.Logger
}

// query serves GET /api/heroes and its ?name= and ?id= forms.
func (h *heroHandler) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Has("id"):
		id, err := strconv.Atoi(q.Get("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "id must be an integer")
			return
		}
		found, err := h.store.GetHero(r.Context(), id)
		switch {
		case errors.Is(err, hero.ErrNotFound):
			writeJSON(w, http.StatusOK, []hero.Hero{})
		case err != nil:
			h.internalError(w, r, err)
		default:
			writeJSON(w, http.StatusOK, []hero.Hero{found})
		}

	case q.Has("name"):
		heroes, err := h.store.SearchHeroes(r.Context(), q.Get("name"))
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		if h.metrics != nil {
			h.metrics.Searches.Inc()
		}
		writeJSON(w, http.StatusOK, nonNil(heroes))

	default:
		heroes, err := h.store.ListHeroes(r.Context())
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(heroes))
	}
}

func (h *heroHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	found, err := h.store.GetHero(r.Context(), id)
	if errors.Is(err, hero.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "hero "+strconv.Itoa(id)+" not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *heroHandler) create(w http.ResponseWriter, r *http.Request) {
	var in hero.Hero
	if !decodeBody(w, r, &in) {
		return
	}
	created := hero.Hero{Name: in.Name}
	if err := h.store.CreateHero(r.Context(), &created); err != nil {
		if errors.Is(err, hero.ErrInvalidName) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		h.internalError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.HeroesCreated.Inc()
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *heroHandler) replace(w http.ResponseWriter, r *http.Request) {
	var in hero.Hero
	if !decodeBody(w, r, &in) {
		return
	}
	if !in.Persisted() {
		writeError(w, http.StatusBadRequest, "validation_failed", "hero id is required")
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := h.store.ReplaceHero(r.Context(), in); err != nil {
		h.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *heroHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteHero(r.Context(), id); err != nil {
		h.internalError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.HeroesDeleted.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *heroHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("heroes api request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

// pathID parses the {id} segment; it answers 400 itself when that fails.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func nonNil(heroes []hero.Hero) []hero.Hero {
	if heroes == nil {
		return []hero.Hero{}
	}
	return heroes
}
