package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timgluz/soilflag/secret"
)

func TestBearerAuth(t *testing.T) {
	store, err := secret.NewInMemoryStoreFromTokens(map[string]string{"dashboard": "tok-1"})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seenClient string
	handler := BearerAuth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		seenClient, _ = ClientFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}, store, logger)

	testCases := []struct {
		header   string
		expected int
	}{
		{"", http.StatusUnauthorized},
		{"Basic dXNlcjpwYXNz", http.StatusBadRequest},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer tok-1", http.StatusNoContent},
	}

	for _, tc := range testCases {
		r := httptest.NewRequest(http.MethodGet, "/flags", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler(rec, r, nil)
		assert.Equal(t, tc.expected, rec.Code, "header %q", tc.header)
	}

	assert.Equal(t, "dashboard", seenClient)
}
