package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Fetcher resolves a single app id against the remote catalog.
type Fetcher interface {
	AppDetails(ctx context.Context, id uint64) (Record, error)
}

// Client provides access to the store appdetails API.
type Client struct {
	baseURL    string
	locale     string
	userAgent  string
	httpClient *http.Client
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// New creates a catalog client.
func New(baseURL, locale string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		locale:     strings.TrimSpace(locale),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type envelope struct {
	Success bool    `json:"success"`
	Data    *Record `json:"data"`
}

// AppDetails fetches the record for id with a single request.
func (c *Client) AppDetails(ctx context.Context, id uint64) (Record, error) {
	endpoint, err := url.Parse(c.baseURL + "/api/appdetails")
	if err != nil {
		return Record{}, fmt.Errorf("parse catalog url: %w", err)
	}
	params := url.Values{}
	params.Set("appids", strconv.FormatUint(id, 10))
	if c.locale != "" {
		params.Set("l", c.locale)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Record{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Record{}, fmt.Errorf("app %d: execute request (latency=%v): %w", id, latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, fmt.Errorf("app %d: read response (latency=%v): %w", id, latency, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Record{}, &ResponseFormatError{AppID: id, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return decodeAppDetails(id, resp.StatusCode, body)
}

func decodeAppDetails(id uint64, status int, body []byte) (Record, error) {
	var payload map[uint64]envelope
	if err := json.Unmarshal(body, &payload); err != nil {
		return Record{}, &ResponseFormatError{AppID: id, StatusCode: status, Body: string(body), Err: err}
	}
	entry, ok := payload[id]
	if !ok {
		return Record{}, fmt.Errorf("app %d: %w", id, ErrMissingEntry)
	}
	if !entry.Success {
		return Record{}, fmt.Errorf("app %d: %w", id, ErrRemoteFailure)
	}
	if entry.Data == nil {
		return Record{}, fmt.Errorf("app %d: %w", id, ErrMissingPayload)
	}
	return *entry.Data, nil
}

// HeaderImageURL returns the CDN header image for id under cdnBase
// (for example https://cdn.cloudflare.steamstatic.com/steam/apps).
func HeaderImageURL(cdnBase string, id uint64) string {
	return fmt.Sprintf("%s/%d/header.jpg", strings.TrimRight(cdnBase, "/"), id)
}
