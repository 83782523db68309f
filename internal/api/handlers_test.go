package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/heroes/internal/backend"
	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/metrics"
	"github.com/runger/heroes/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Collector) {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "heroes.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := metrics.NewCollector()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(store, m, logger).Setup())
	t.Cleanup(srv.Close)
	return srv, m
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeHeroes(t *testing.T, data []byte) []hero.Hero {
	t.Helper()
	var heroes []hero.Hero
	require.NoError(t, json.Unmarshal(data, &heroes))
	return heroes
}

func names(heroes []hero.Hero) []string {
	out := make([]string, 0, len(heroes))
	for _, h := range heroes {
		out = append(out, h.Name)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestListHeroes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/heroes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Len(t, decodeHeroes(t, body), len(storage.SeedHeroes))
}

func TestQueryByName(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/heroes/?name=ma", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Magneta", "RubberMan", "Dynama", "Magma"}, names(decodeHeroes(t, body)))

	_, body = doRequest(t, http.MethodGet, srv.URL+"/api/heroes/?name=zzz", "")
	assert.Equal(t, "[]\n", string(body))
}

func TestQueryByID(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := doRequest(t, http.MethodGet, srv.URL+"/api/heroes/?id=13", "")
	assert.Equal(t, []hero.Hero{{ID: 13, Name: "Bombasto"}}, decodeHeroes(t, body))

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/heroes/?id=99", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeHeroes(t, body))

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/heroes/?id=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetHero(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/heroes/15", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":15,"name":"Magneta"}`, string(body))

	resp, body = doRequest(t, http.MethodGet, srv.URL+"/api/heroes/99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errBody errorResponse
	require.NoError(t, json.Unmarshal(body, &errBody))
	assert.Equal(t, "not_found", errBody.Error)
	assert.Contains(t, errBody.Message, "99")

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/heroes/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateHero(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/api/heroes", `{"id":99,"name":"  Zed  "}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":21,"name":"Zed"}`, string(body))

	resp, body = doRequest(t, http.MethodPost, srv.URL+"/api/heroes", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "validation_failed")

	resp, _ = doRequest(t, http.MethodPost, srv.URL+"/api/heroes", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReplaceHero(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, http.MethodPut, srv.URL+"/api/heroes", `{"id":13,"name":"Bombastic"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body := doRequest(t, http.MethodGet, srv.URL+"/api/heroes/13", "")
	assert.JSONEq(t, `{"id":13,"name":"Bombastic"}`, string(body))

	// Replacing a missing id creates it.
	resp, _ = doRequest(t, http.MethodPut, srv.URL+"/api/heroes", `{"id":50,"name":"Newcomer"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = doRequest(t, http.MethodGet, srv.URL+"/api/heroes/50", "")
	assert.JSONEq(t, `{"id":50,"name":"Newcomer"}`, string(body))

	resp, _ = doRequest(t, http.MethodPut, srv.URL+"/api/heroes", `{"name":"No Id"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodPut, srv.URL+"/api/heroes", `{"id":13,"name":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteHero(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, http.MethodDelete, srv.URL+"/api/heroes/13", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/heroes/13", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Deleting again still succeeds.
	resp, _ = doRequest(t, http.MethodDelete, srv.URL+"/api/heroes/13", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	doRequest(t, http.MethodGet, srv.URL+"/api/heroes/?name=dr", "")
	doRequest(t, http.MethodGet, srv.URL+"/api/heroes/12", "")

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, "heroes_searches_total 1")
	assert.Contains(t, text, `route="/api/heroes/{id}"`)
}

// The HTTP gateway and the API agree on routes and error mapping.
func TestHTTPGatewayAgainstAPI(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	gw, err := backend.NewHTTP(backend.HTTPConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	all, err := gw.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(storage.SeedHeroes))

	_, err = gw.FetchByID(ctx, 404)
	assert.ErrorIs(t, err, hero.ErrNotFound)

	created, err := gw.Create(ctx, hero.Hero{Name: "Captain Test"})
	require.NoError(t, err)
	assert.Equal(t, 21, created.ID)

	require.NoError(t, gw.Replace(ctx, hero.Hero{ID: created.ID, Name: "Major Test"}))
	got, err := gw.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Major Test", got.Name)

	matches, err := gw.FetchMatching(ctx, "major")
	require.NoError(t, err)
	assert.Equal(t, []hero.Hero{{ID: 21, Name: "Major Test"}}, matches)

	require.NoError(t, gw.DeleteByID(ctx, created.ID))
	_, err = gw.FetchByID(ctx, created.ID)
	assert.ErrorIs(t, err, hero.ErrNotFound)

	_, err = gw.Create(ctx, hero.Hero{Name: " "})
	var se *backend.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}
