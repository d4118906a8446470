package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/metrics"
	"github.com/timgluz/soilflag/response"
	"github.com/timgluz/soilflag/secret"
)

func newTestServer(t *testing.T, secretStore secret.Store) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := flagstore.NewCSVRepository(filepath.Join(t.TempDir(), "all_flags.csv"), logger)
	require.NoError(t, repo.Save(context.Background(), flagstore.NewStoreFromDecisions([]flagstore.Decision{
		{UID: 3, Flag: "C01"},
		{UID: 1, Flag: "G"},
		{UID: 2, Flag: "D06"},
	})))

	srv := New(repo, secretStore, metrics.NewRecorder(), logger)
	require.True(t, srv.IsReady())
	require.NoError(t, srv.Reload(context.Background()))
	return srv
}

func get(t *testing.T, handler http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec
}

func TestServer_ListFlags(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := get(t, router, "/flags?offset=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page response.CollectionResponse[FlagResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, FlagResponse{UID: 2, Flag: "D06", Good: false}, page.Items[0])
}

func TestServer_GetFlag(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := get(t, router, "/flags/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":1,"qflag":"G","good":true}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, router, "/flags/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/flags/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(t, router, "/stations", nil).Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := get(t, router, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","store_size":3}`, rec.Body.String())

	rec = get(t, router, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "soilflag_store_entries 3")
}

func TestServer_RequiresTokenWhenConfigured(t *testing.T) {
	tokens, err := secret.NewInMemoryStoreFromTokens(map[string]string{"dashboard": "tok-1"})
	require.NoError(t, err)
	router := newTestServer(t, tokens).Router()

	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/flags", nil).Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/flags", map[string]string{"Authorization": "Bearer tok-1"}).Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/healthz", nil).Code)
}
