package onfarm

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPProvider_GetSoilMoisture(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onfarm/soil_moisture", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		assert.Equal(t, "tdr", r.URL.Query().Get("type"))
		assert.Equal(t, "ABC", r.URL.Query().Get("code"))
		assert.Equal(t, "2", r.URL.Query().Get("subplot"))
		assert.Equal(t, "secret", r.Header.Get(APIKeyHeader))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"node_serial_no":"N1","center_depth":-5,"vwc":"21.5","uid":7,"timestamp":"2023-01-01 00:00:00","treatment":"B"}]`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL+"/", "secret", server.Client(), rate.NewLimiter(rate.Inf, 1), discardLogger())
	records, err := provider.GetSoilMoisture(context.Background(), "ABC", "2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, String("N1"), records[0].NodeSerialNo)
	assert.Equal(t, 21.5, records[0].VWC.Value)
	assert.NoError(t, provider.Close())
}

func TestHTTPProvider_NonJSONPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "", server.Client(), nil, discardLogger())
	_, err := provider.GetSoilMoisture(context.Background(), "ABC", "1")

	var payloadErr *PayloadError
	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, "<html>maintenance</html>", string(payloadErr.Payload))
	assert.Equal(t, "<html>", payloadErr.Excerpt(6)[:6])
}

func TestHTTPProvider_StatusErrors(t *testing.T) {
	status := http.StatusNotFound
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"Forbidden"}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "", server.Client(), nil, discardLogger())
	_, err := provider.GetSoilMoisture(context.Background(), "ABC", "1")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	status = http.StatusForbidden
	_, err = provider.GetSoilMoisture(context.Background(), "ABC", "1")
	var payloadErr *PayloadError
	require.ErrorAs(t, err, &payloadErr)
	assert.Contains(t, string(payloadErr.Payload), "Forbidden")
}

func TestHTTPProvider_NotReady(t *testing.T) {
	provider := NewHTTPProvider("", "", nil, nil, discardLogger())
	assert.False(t, provider.IsReady())

	_, err := provider.GetSoilMoisture(context.Background(), "ABC", "1")
	assert.ErrorIs(t, err, ErrProviderNotReady)

	ready := NewHTTPProvider("http://localhost", "", http.DefaultClient, nil, discardLogger())
	_, err = ready.GetSoilMoisture(context.Background(), "", "1")
	assert.ErrorIs(t, err, ErrInvalidSite)
}

func TestPayloadError_Excerpt(t *testing.T) {
	err := &PayloadError{Payload: []byte("abcdef")}
	assert.Equal(t, "abc...", err.Excerpt(3))
	assert.Equal(t, "abcdef", err.Excerpt(0))
	assert.Equal(t, "abcdef", err.Excerpt(10))
}
