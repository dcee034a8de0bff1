package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxBodySize = 1 << 20

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// TokenSource supplies the bearer token for each request. An empty token
// sends the request anonymously.
type TokenSource interface {
	AccessToken() string
}

type TokenFunc func() string

func (f TokenFunc) AccessToken() string { return f() }

// HTTPError is a non-2xx response from the storefront backend.
type HTTPError struct {
	Status         int
	Message        string
	AvailableStock *int
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storefront: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("storefront: %d %s", e.Status, e.Message)
}

// Available reports the stock the server had when it rejected a cart
// write with 409.
func (e *HTTPError) Available() (int, bool) {
	if e.Status != http.StatusConflict || e.AvailableStock == nil {
		return 0, false
	}
	return *e.AvailableStock, true
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

type errorBody struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
}

// Client talks to the storefront REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger

	mu     sync.RWMutex
	tokens TokenSource
}

func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// UseTokens sets where request tokens come from. The session sets itself
// here once it exists.
func (c *Client) UseTokens(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("[Client] %s %s failed: %v", method, path, err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		httpErr := &HTTPError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			httpErr.Message = eb.Error
			httpErr.AvailableStock = eb.Available
		} else {
			httpErr.Message = strings.TrimSpace(string(data))
		}
		c.logger.Printf("[Client] %s %s: %d %s", method, path, resp.StatusCode, httpErr.Message)
		return httpErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// resolveImage turns a relative image path from the backend into an
// absolute URL.
func (c *Client) resolveImage(image string) string {
	if image == "" || strings.Contains(image, "://") || strings.HasPrefix(image, "data:") {
		return image
	}
	return c.baseURL + "/" + strings.TrimLeft(image, "/")
}
