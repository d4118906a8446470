package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/timgluz/soilflag/response"
	"github.com/timgluz/soilflag/secret"
)

type contextKey string

const clientContextKey contextKey = "client"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnsupportedScheme = errors.New("unsupported authorization type")
	ErrServiceNotReady   = errors.New("service is not ready")
)

// BearerAuth rejects requests without a known bearer token. The name of the
// token's client is stored in the request context.
func BearerAuth(h httprouter.Handle, secretStore secret.Store, logger *slog.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 7 {
			unauthorized(w, ErrUnauthorized, http.StatusUnauthorized)
			return
		}

		authType := strings.ToLower(strings.TrimSpace(authHeader[:7]))
		if authType != "bearer" {
			unauthorized(w, ErrUnsupportedScheme, http.StatusBadRequest)
			return
		}

		token := strings.TrimSpace(authHeader[7:])
		if token == "" {
			unauthorized(w, ErrUnauthorized, http.StatusUnauthorized)
			return
		}

		if secretStore == nil {
			response.RenderError(w, ErrServiceNotReady, http.StatusInternalServerError)
			return
		}

		client, err := secretStore.Get(token)
		if err != nil {
			if errors.Is(err, secret.ErrSecretNotFound) {
				logger.Warn("Rejected unknown token", "path", r.URL.Path)
				unauthorized(w, ErrUnauthorized, http.StatusUnauthorized)
				return
			}

			logger.Error("Token lookup failed", "error", err)
			response.RenderFatal(w, ErrServiceNotReady)
			return
		}

		h(w, r.WithContext(context.WithValue(r.Context(), clientContextKey, client)), ps)
	}
}

// ClientFromContext returns the client name set by BearerAuth.
func ClientFromContext(ctx context.Context) (string, bool) {
	client, ok := ctx.Value(clientContextKey).(string)
	return client, ok
}

func unauthorized(w http.ResponseWriter, err error, status int) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	response.RenderError(w, err, status)
}
