package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopping-assistant/internal/models"
)

const (
	chatEndpoint            = "/shopping-assistant/chat"
	productEndpoint         = "/products/"
	defaultAutocompletePath = "/autocomplete"
)

// HeaderProvider supplies tenant/auth headers for every platform request.
// Token retrieval itself lives outside this service.
type HeaderProvider func() http.Header

// PlatformClientInterface defines the interface for assistant platform communication
type PlatformClientInterface interface {
	Chat(ctx context.Context, req *models.AssistantRequest) (*models.AssistantResponse, error)
	ChatStream(ctx context.Context, req *models.AssistantRequest) (io.ReadCloser, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	Autocomplete(ctx context.Context, query string) (*models.AutocompleteResponse, error)
	HealthCheck(ctx context.Context) (bool, error)
}

// PlatformClient handles communication with the remote assistant platform
type PlatformClient struct {
	baseURL          string
	autocompletePath string
	httpClient       *http.Client
	retries          int
	headerProvider   HeaderProvider
}

// NewPlatformClient creates a new platform client with default settings
func NewPlatformClient(baseURL string) *PlatformClient {
	return NewPlatformClientWithOptions(baseURL, 60*time.Second, 3)
}

// NewPlatformClientWithOptions creates a client with custom settings
func NewPlatformClientWithOptions(baseURL string, timeout time.Duration, retries int) *PlatformClient {
	return &PlatformClient{
		baseURL:          strings.TrimRight(baseURL, "/"),
		autocompletePath: defaultAutocompletePath,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retries: retries,
	}
}

// SetHeaderProvider installs the tenant/auth header source
func (c *PlatformClient) SetHeaderProvider(provider HeaderProvider) {
	c.headerProvider = provider
}

// SetAutocompletePath overrides the autocomplete endpoint path
func (c *PlatformClient) SetAutocompletePath(path string) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	c.autocompletePath = path
}

// ============================================================================
// Chat Methods
// ============================================================================

// Chat sends a message in single-shot mode and decodes the full reply.
// Chat requests are never retried: a retry would duplicate the turn upstream.
func (c *PlatformClient) Chat(ctx context.Context, req *models.AssistantRequest) (*models.AssistantResponse, error) {
	req.Stream = false

	resp, err := c.makeRequest(ctx, http.MethodPost, chatEndpoint, req, "application/json")
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	var result models.AssistantResponse
	if err := parsePlatformResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ChatStream sends a message in streaming mode and hands back the raw body.
// The caller owns the body and must close it; frames are line-delimited JSON.
func (c *PlatformClient) ChatStream(ctx context.Context, req *models.AssistantRequest) (io.ReadCloser, error) {
	req.Stream = true

	resp, err := c.makeRequest(ctx, http.MethodPost, chatEndpoint, req, "text/plain")
	if err != nil {
		return nil, fmt.Errorf("chat stream request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("chat stream returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp.Body, nil
}

// ============================================================================
// Product Methods
// ============================================================================

// GetProduct fetches one product record and normalizes it at the boundary
func (c *PlatformClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("product id is required")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, productEndpoint+url.PathEscape(productID), nil)
	if err != nil {
		return nil, fmt.Errorf("product request failed: %w", err)
	}

	var raw models.RawProduct
	if err := parsePlatformResponse(resp, &raw); err != nil {
		return nil, err
	}

	product := raw.Normalize()
	if product.ID == "" {
		// Some catalogs omit the id from the record body
		product.ID = productID
	}
	return &product, nil
}

// ============================================================================
// Autocomplete Methods
// ============================================================================

// Autocomplete fetches scored suggestions for a partial query
func (c *PlatformClient) Autocomplete(ctx context.Context, query string) (*models.AutocompleteResponse, error) {
	endpoint := c.autocompletePath + "?query=" + url.QueryEscape(query)

	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}

	var result models.AutocompleteResponse
	if err := parsePlatformResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// HealthCheck probes the platform root
func (c *PlatformClient) HealthCheck(ctx context.Context) (bool, error) {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/health", nil, "application/json")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// ============================================================================
// Request Helpers
// ============================================================================

// doRequest executes an idempotent request with retries and exponential backoff
func (c *PlatformClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.makeRequest(ctx, method, endpoint, body, "application/json")
		if err == nil && resp.StatusCode < 500 {
			// Success or client error (don't retry 4xx)
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			resp.Body.Close()
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.retries, lastErr)
}

// makeRequest creates and executes a single HTTP request
func (c *PlatformClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}, accept string) (*http.Response, error) {
	url := c.baseURL + endpoint

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)

	if c.headerProvider != nil {
		for key, values := range c.headerProvider() {
			for _, value := range values {
				req.Header.Set(key, value)
			}
		}
	}

	return c.httpClient.Do(req)
}

// parsePlatformResponse reads and parses a JSON response
func parsePlatformResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("platform returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
