// Package rest talks to a PostgREST-style hosted database over HTTP.
package rest

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

	"focusync/backend"
	"focusync/internal/utils"
)

const (
	restPath = "/rest/v1/"
	userPath = "/auth/v1/user"

	// DefaultTimeout bounds a single request
	DefaultTimeout = 30 * time.Second
)

// Config describes how to reach the remote service
type Config struct {
	URL         string
	APIKey      string // sent as the apikey header
	AccessToken string // user session token; falls back to APIKey
	Timeout     time.Duration
}

// Client implements backend.RemoteStore over HTTP
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client
	log         *utils.Logger
}

var (
	_ backend.RemoteStore = (*Client)(nil)
	_ backend.RowLister   = (*Client)(nil)
	_ backend.Pinger      = (*Client)(nil)
)

// NewClient creates a client for cfg
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote URL %q", cfg.URL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	token := cfg.AccessToken
	if token == "" {
		token = cfg.APIKey
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		apiKey:      cfg.APIKey,
		accessToken: token,
		httpClient:  &http.Client{Timeout: timeout},
		log:         utils.Component("rest"),
	}, nil
}

// doRequest performs an authenticated request. Transport failures are
// returned as a BackendError without status code.
func (c *Client) doRequest(ctx context.Context, op, method, endpoint string, body interface{}, prefer string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	c.log.Debug("%s %s", method, endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, backend.NewBackendError(op, 0, "request failed").WithError(err)
	}
	return resp, nil
}

// statusError builds the BackendError for an unexpected response
func statusError(op string, resp *http.Response, table backend.Table, key string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := http.StatusText(resp.StatusCode)
	var pgErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &pgErr) == nil && pgErr.Message != "" {
		msg = pgErr.Message
	}
	return backend.NewBackendError(op, resp.StatusCode, msg).WithRow(table, key).WithBody(string(body))
}

func rowFilter(table backend.Table, key string) string {
	return restPath + url.PathEscape(string(table)) + "?" + backend.ColumnID + "=eq." + url.QueryEscape(key)
}

// decodeRows reads a JSON array of rows; PATCH and DELETE with
// return=representation answer with the affected rows.
func decodeRows(op string, resp *http.Response) ([]backend.Row, error) {
	var rows []backend.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, backend.NewBackendError(op, resp.StatusCode, "failed to decode response").WithError(err)
	}
	return rows, nil
}

func (c *Client) Select(ctx context.Context, table backend.Table, key string, columns ...string) (backend.Row, error) {
	endpoint := rowFilter(table, key)
	if len(columns) > 0 {
		endpoint += "&select=" + url.QueryEscape(strings.Join(columns, ","))
	}

	resp, err := c.doRequest(ctx, "Select", http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("Select", resp, table, key)
	}
	rows, err := decodeRows("Select", resp)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, backend.NewNotFoundError("Select", table, key)
	}
	return rows[0], nil
}

// List returns every row of table the session may read, ordered by id
func (c *Client) List(ctx context.Context, table backend.Table) ([]backend.Row, error) {
	endpoint := restPath + url.PathEscape(string(table)) + "?select=*&order=" + backend.ColumnID + ".asc"
	resp, err := c.doRequest(ctx, "List", http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("List", resp, table, "")
	}
	return decodeRows("List", resp)
}

func (c *Client) Upsert(ctx context.Context, table backend.Table, key string, row backend.Row) error {
	body := row.Clone()
	if body == nil {
		body = backend.Row{}
	}
	body[backend.ColumnID] = key

	endpoint := restPath + url.PathEscape(string(table)) + "?on_conflict=" + backend.ColumnID
	resp, err := c.doRequest(ctx, "Upsert", http.MethodPost, endpoint, []backend.Row{body},
		"resolution=merge-duplicates,return=minimal")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("Upsert", resp, table, key)
	}
	return nil
}

func (c *Client) Update(ctx context.Context, table backend.Table, key string, fields backend.Row) error {
	if fields == nil {
		fields = backend.Row{}
	}
	return c.writeExisting(ctx, "Update", http.MethodPatch, table, key, fields)
}

func (c *Client) Delete(ctx context.Context, table backend.Table, key string) error {
	return c.writeExisting(ctx, "Delete", http.MethodDelete, table, key, nil)
}

// writeExisting runs a PATCH or DELETE against one row and reports a
// not-found error when no row matched.
func (c *Client) writeExisting(ctx context.Context, op, method string, table backend.Table, key string, body interface{}) error {
	resp, err := c.doRequest(ctx, op, method, rowFilter(table, key), body, "return=representation")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp, table, key)
	}
	rows, err := decodeRows(op, resp)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return backend.NewNotFoundError(op, table, key)
	}
	return nil
}

// CurrentIdentity returns the id of the user the access token belongs to.
// A rejected token means there is no session and is not an error.
func (c *Client) CurrentIdentity(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, "CurrentIdentity", http.MethodGet, userPath, nil, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", nil
	case resp.StatusCode != http.StatusOK:
		return "", statusError("CurrentIdentity", resp, "", "")
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", backend.NewBackendError("CurrentIdentity", resp.StatusCode, "failed to decode response").WithError(err)
	}
	return user.ID, nil
}

// Ping reports whether the service answers at all. Any HTTP response
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "Ping", http.MethodHead, restPath, nil, "")
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
