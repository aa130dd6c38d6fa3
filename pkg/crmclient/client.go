package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// TokenSource supplies the bearer credential for outgoing requests and
// forgets it when the backend rejects it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Discard(ctx context.Context) error
}

type Config struct {
	// BaseURL includes the API prefix, e.g. http://localhost:8000/api/v1.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the CRM backend over HTTP.
type Client struct {
	baseURL    string
	rootURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New constructs a backend client. A zero Timeout means 10 seconds.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("crm base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse crm base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("crm base url %q must be absolute", base)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	root := url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Client{
		baseURL:    base,
		rootURL:    root.String(),
		httpClient: httpClient,
	}, nil
}

// WithTokens returns a copy of the client bound to src.
func (c *Client) WithTokens(src TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// WithToken returns a copy of the client that always sends tok.
func (c *Client) WithToken(tok string) *Client {
	return c.WithTokens(staticToken(tok))
}

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }
func (s staticToken) Discard(context.Context) error               { return nil }

// Health checks the backend root health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.rootURL+"/health", nil, "", nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, c.endpoint(path, query), body, contentType, out)
}

func (c *Client) doForm(ctx context.Context, path string, form url.Values, out any) error {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, http.MethodPost, c.endpoint(path, nil), body, "application/x-www-form-urlencoded", out)
}

func (c *Client) endpoint(path string, query url.Values) string {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("load access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
			if err := c.tokens.Discard(ctx); err != nil {
				return errors.Join(apiErr, fmt.Errorf("discard credentials: %w", err))
			}
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
