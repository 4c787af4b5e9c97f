package qbittorrent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client represents a qBittorrent WebUI API client
type Client struct {
	baseURL    *url.URL
	username   string
	password   string
	httpClient *http.Client
	timeout    time.Duration

	authMu        sync.Mutex
	authenticated bool
}

// ClientOption represents a configuration option for the qBittorrent client
type ClientOption func(*Client)

// WithTimeout sets the HTTP request timeout for the client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new qBittorrent API client
func NewClient(baseURL, username, password string, options ...ClientOption) (*Client, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL:  parsedURL,
		username: username,
		password: password,
		timeout:  30 * time.Second,
	}

	// Create HTTP client with cookie jar for session management
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client.httpClient = &http.Client{
		Timeout: client.timeout,
		Jar:     jar,
	}

	for _, option := range options {
		option(client)
	}

	return client, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path}).String()
}

// Login authenticates with the qBittorrent WebUI
func (c *Client) Login(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v2/auth/login"), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// qBittorrent rejects logins whose Referer does not match its host.
	req.Header.Set("Referer", c.baseURL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode != http.StatusOK {
		return &APIError{Code: resp.StatusCode, Message: "login failed", Details: strings.TrimSpace(string(body))}
	}
	if strings.TrimSpace(string(body)) != "Ok." {
		return &APIError{Code: resp.StatusCode, Message: "invalid credentials"}
	}

	c.authenticated = true
	return nil
}

// Logout logs out from the qBittorrent WebUI
func (c *Client) Logout(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	if !c.authenticated {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v2/auth/logout"), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	resp.Body.Close()

	c.authenticated = false
	return nil
}

// IsAuthenticated reports whether the last login succeeded
func (c *Client) IsAuthenticated() bool {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.authenticated
}

// GetTorrents retrieves torrents from qBittorrent. filter is one of the
// WebUI filters (all, downloading, seeding, ...); empty means all.
func (c *Client) GetTorrents(ctx context.Context, filter string) ([]Torrent, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("filter", filter)
	}

	var torrents []Torrent
	if err := c.getJSON(ctx, "/api/v2/torrents/info", query, &torrents); err != nil {
		return nil, err
	}
	return torrents, nil
}

// getJSON performs an authenticated GET, logging in once more if the session
// cookie has expired.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	for attempt := 0; attempt < 2; attempt++ {
		if !c.IsAuthenticated() || attempt > 0 {
			if err := c.Login(ctx); err != nil {
				return err
			}
		}

		u := c.endpoint(path)
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request %s failed: %w", path, err)
		}

		if resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			c.authMu.Lock()
			c.authenticated = false
			c.authMu.Unlock()
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return &APIError{Code: resp.StatusCode, Message: "unexpected status for " + path, Details: strings.TrimSpace(string(body))}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return nil
	}
	return &APIError{Code: http.StatusForbidden, Message: "not authorized"}
}
