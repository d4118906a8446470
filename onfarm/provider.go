package onfarm

import (
	"context"
	"fmt"
)

var (
	ErrBaseURLNotSet    = fmt.Errorf("base URL not set")
	ErrHTTPClientNotSet = fmt.Errorf("HTTP client not set")
	ErrNoContent        = fmt.Errorf("no content available")
	ErrResourceNotFound = fmt.Errorf("resource not found")
	ErrProviderNotReady = fmt.Errorf("provider is not ready")
	ErrInvalidSite      = fmt.Errorf("site code and subplot are required")
)

// Provider fetches the raw soil moisture records of one site subplot.
type Provider interface {
	GetSoilMoisture(ctx context.Context, code, subplot string) (RecordList, error)
	IsReady() bool
	Close() error
}

// PayloadError is returned when the API answered with something that is not
// a JSON record list. Payload keeps the raw body for diagnostics.
type PayloadError struct {
	URL     string
	Payload []byte
	Err     error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("unexpected payload from %s: %v", e.URL, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// Excerpt returns at most limit bytes of the payload, for log lines.
func (e *PayloadError) Excerpt(limit int) string {
	if limit <= 0 || len(e.Payload) <= limit {
		return string(e.Payload)
	}
	return string(e.Payload[:limit]) + "..."
}
