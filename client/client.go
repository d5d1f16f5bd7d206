// Package client is the storefront's server-state mirror. It keeps a local
// copy of the user's cart, orders, and notifications, reconciled against
// the API with one rule: every successful mutation response carries the
// authoritative full state, and the mirror replaces its copy wholesale.
// Partial or optimistic patches are never merged in.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized reports a lost session. The client reacts by clearing
// the local cart/order view and firing the session-expired hook: a session
// that is gone means the cart is unknowable, never stale-but-displayed.
var ErrUnauthorized = errors.New("session expired or missing")

// APIError is a non-2xx response with a decoded server message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// DecodeError reports a response body that did not match the expected
// schema. Business fields are never silently defaulted: a malformed
// response is an error, not a zero value.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Path, e.Reason)
}

// Config wires a Client. OnNotice receives transient, non-blocking error
// notices for failed fetches and mutations (the client never auto-retries).
// OnSessionExpired fires once per detected 401 so the caller can route to
// sign-in.
type Config struct {
	BaseURL          string
	Session          *Session
	Store            TokenStore
	HTTPClient       *http.Client
	OnNotice         func(msg string)
	OnSessionExpired func()
}

type Client struct {
	baseURL          string
	http             *http.Client
	session          *Session
	store            TokenStore
	onNotice         func(string)
	onSessionExpired func()

	mirror Mirror
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:          cfg.BaseURL,
		http:             httpClient,
		session:          cfg.Session,
		store:            cfg.Store,
		onNotice:         cfg.OnNotice,
		onSessionExpired: cfg.OnSessionExpired,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// Logout clears the session and every mirrored view.
func (c *Client) Logout() {
	c.session = nil
	if c.store != nil {
		_ = c.store.Clear()
	}
	c.mirror.reset()
}

func (c *Client) notice(format string, args ...interface{}) {
	if c.onNotice != nil {
		c.onNotice(fmt.Sprintf(format, args...))
	}
}

// handleUnauthorized implements the 401 policy: local cart/order state is
// cleared, the persisted token is dropped, and the caller is told to route
// to sign-in.
func (c *Client) handleUnauthorized() {
	c.session = nil
	if c.store != nil {
		_ = c.store.Clear()
	}
	c.mirror.clearCartAndOrders()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// do issues one request and strictly decodes the response into out. Any
// field the schema does not declare fails the decode.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &DecodeError{Path: path, Reason: err.Error()}
	}
	return nil
}
