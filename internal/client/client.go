// Package client talks to a running Eterna server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Anika-Jha/Eterna/internal/artifact"
)

const (
	// DefaultURL is used when ETERNA_URL is unset.
	DefaultURL  = "http://127.0.0.1:5000"
	httpTimeout = 10 * time.Second
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses back onto domain errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return artifact.ErrNotFound
	case http.StatusServiceUnavailable:
		return artifact.ErrStorageUnavailable
	case http.StatusBadRequest:
		if e.Field == "action" {
			return artifact.ErrInvalidAction
		}
		return artifact.ErrInvalidInput
	}
	return nil
}

// Client talks to the Eterna server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty URL falls back to ETERNA_URL
// and then DefaultURL.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("ETERNA_URL")
	}
	if serverURL == "" {
		serverURL = DefaultURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: strings.TrimRight(serverURL, "/"),
	}
}

// URL returns the server base URL.
func (c *Client) URL() string { return c.serverURL }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var eb struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		}
		if json.Unmarshal(data, &eb) == nil && eb.Message != "" {
			apiErr.Message, apiErr.Field = eb.Message, eb.Field
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

// ListArtifacts fetches every artifact, newest first.
func (c *Client) ListArtifacts(ctx context.Context) ([]artifact.Artifact, error) {
	var out []artifact.Artifact
	if err := c.do(ctx, http.MethodGet, "/api/artifacts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Support applies a support action to an artifact.
func (c *Client) Support(ctx context.Context, id int64, action artifact.Action) (*artifact.Artifact, error) {
	var out artifact.Artifact
	path := "/api/artifacts/" + strconv.FormatInt(id, 10) + "/support"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"action": string(action)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the dashboard totals.
func (c *Client) Stats(ctx context.Context) (artifact.Stats, error) {
	var out artifact.Stats
	err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, &out)
	return out, err
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil)
	var apiErr *APIError
	return err == nil || (errors.As(err, &apiErr) && apiErr.Status < 500)
}
