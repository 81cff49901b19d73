package remote

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

	"github.com/inqbatorchris/fieldsync/internal/common"
)

// HTTPClient implements Client over the collaborator's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the given base URL, e.g.
// "https://api.example.com". Timeout bounds each request; a zero value
// defaults to 15s.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) CreateEntity(ctx context.Context, entityType string, idemKey string, payload any) (*CreateResult, error) {
	body, err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/entities/%s", url.PathEscape(entityType)), idemKey, payload)
	if err != nil {
		return nil, err
	}

	var result CreateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	if result.ServerID == "" {
		return nil, fmt.Errorf("create response is missing serverId")
	}
	return &result, nil
}

func (c *HTTPClient) UpdateEntity(ctx context.Context, entityType string, serverID string, idemKey string, payload any) error {
	_, err := c.do(ctx, http.MethodPatch,
		fmt.Sprintf("/entities/%s/%s", url.PathEscape(entityType), url.PathEscape(serverID)), idemKey, payload)
	return err
}

func (c *HTTPClient) DeleteEntity(ctx context.Context, entityType string, serverID string, idemKey string) error {
	_, err := c.do(ctx, http.MethodDelete,
		fmt.Sprintf("/entities/%s/%s", url.PathEscape(entityType), url.PathEscape(serverID)), idemKey, nil)
	return err
}

// Ping probes the health endpoint with a short deadline.
func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %s", common.ErrorUnavailable, resp.Status)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, idemKey string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.IdempotencyKeyHeader, idemKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, body)
	}
	return body, nil
}
