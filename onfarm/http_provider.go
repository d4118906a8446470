package onfarm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

const (
	APIKeyHeader        = "x-api-key"
	soilMoisturePath    = "/onfarm/soil_moisture"
	payloadExcerptBytes = 512
)

type HTTPProvider struct {
	BaseURL string `json:"base_url"`

	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHTTPProvider builds a provider for the on-farm API. A nil limiter means
// requests are not paced.
func NewHTTPProvider(baseURL, apiKey string, client *http.Client, limiter *rate.Limiter, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

func (p *HTTPProvider) IsReady() bool {
	if p.logger == nil {
		fmt.Println("Logger of HTTPProvider is not initialized")
		return false
	}

	if p.client == nil {
		p.logger.Error("HTTP client is not set for HTTPProvider")
		return false
	}

	if p.BaseURL == "" {
		p.logger.Error("Base URL is not set for HTTPProvider")
		return false
	}

	return true
}

func (p *HTTPProvider) Close() error {
	if p.client != nil {
		p.client.CloseIdleConnections()
	}
	return nil
}

// GetSoilMoisture retrieves the TDR soil moisture records of a site subplot.
func (p *HTTPProvider) GetSoilMoisture(ctx context.Context, code, subplot string) (RecordList, error) {
	defer ctx.Done()

	if !p.IsReady() {
		return nil, ErrProviderNotReady
	}

	if code == "" || subplot == "" {
		return nil, ErrInvalidSite
	}

	resourceURL := p.soilMoistureURL(code, subplot)
	content, err := p.RetrieveContent(ctx, resourceURL)
	if err != nil {
		return nil, err
	}

	var records RecordList
	if err := json.Unmarshal(content, &records); err != nil {
		payloadErr := &PayloadError{URL: resourceURL, Payload: content, Err: err}
		p.logger.Error("Failed to decode soil moisture records",
			"code", code, "subplot", subplot, "payload", payloadErr.Excerpt(payloadExcerptBytes), "error", err)
		return nil, payloadErr
	}

	p.logger.Debug("Fetched soil moisture records", "code", code, "subplot", subplot, "count", len(records))
	return records, nil
}

func (p *HTTPProvider) soilMoistureURL(code, subplot string) string {
	query := url.Values{}
	query.Set("output", "json")
	query.Set("type", "tdr")
	query.Set("code", code)
	query.Set("subplot", subplot)

	return p.BaseURL + soilMoisturePath + "?" + query.Encode()
}

// RetrieveContent performs an authenticated GET and returns the body.
func (p *HTTPProvider) RetrieveContent(ctx context.Context, resourceURL string) ([]byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", resourceURL, err)
	}
	if p.apiKey != "" {
		req.Header.Set(APIKeyHeader, p.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func(resp *http.Response) {
		if err := resp.Body.Close(); err != nil {
			p.logger.Error("Failed to close response body", "url", resourceURL, "error", err)
		}
	}(resp)

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content from URL %s: %w", resourceURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrResourceNotFound
		}

		return nil, &PayloadError{
			URL:     resourceURL,
			Payload: content,
			Err:     fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if len(content) == 0 {
		p.logger.Warn("No content received from URL", "url", resourceURL)
		return nil, ErrNoContent
	}

	return content, nil
}
