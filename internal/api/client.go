// Package api is the typed HTTP+JSON client for the atendeJa order service.
// One method per server capability; no retries, no local caching. Failed
// writes surface immediately so the caller can show them and let the user
// retry by hand.
package api

import (
	"bytes"
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

	"github.com/rodri-oliveira/atendeja/internal/order"
)

const (
	// DefaultBaseURL points at a locally running order service.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultMutationTimeout bounds every write call. There is no
	// server-side cancellation; a timed-out write is simply reported failed.
	DefaultMutationTimeout = 10 * time.Second
)

// Client talks to the order service. Safe for use from multiple goroutines.
type Client struct {
	baseURL         string
	http            *http.Client
	mutationTimeout time.Duration
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMutationTimeout overrides the write-call deadline.
func WithMutationTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.mutationTimeout = d
		}
	}
}

// New builds a client rooted at baseURL. An empty baseURL falls back to
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:            &http.Client{},
		mutationTimeout: DefaultMutationTimeout,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL reports the service root this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// ListQuery narrows a list call. Zero values mean "no constraint"; filtering
// happens server-side, the client never filters locally.
type ListQuery struct {
	Status order.Status
	Search string
	Limit  int
	Since  time.Time
	Until  time.Time
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if !q.Since.IsZero() {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		v.Set("until", q.Until.UTC().Format(time.RFC3339))
	}
	return v
}

// List fetches order summaries matching q, in server order.
func (c *Client) List(ctx context.Context, q ListQuery) ([]order.Order, error) {
	path := "/orders"
	if encoded := q.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out []order.Order
	if err := c.get(ctx, "list orders", path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches the full detail for one order.
func (c *Client) Get(ctx context.Context, id order.ID) (order.Detail, error) {
	var out order.Detail
	err := c.get(ctx, "get order", "/orders/"+url.PathEscape(string(id)), &out)
	return out, err
}

// Events fetches the status-change log for one order, oldest first.
func (c *Client) Events(ctx context.Context, id order.ID) ([]order.Event, error) {
	var out []order.Event
	err := c.get(ctx, "get events", "/orders/"+url.PathEscape(string(id))+"/events", &out)
	return out, err
}

// Relation fetches the originating-order link for one order.
func (c *Client) Relation(ctx context.Context, id order.ID) (order.Relation, error) {
	var out order.Relation
	err := c.get(ctx, "get relation", "/orders/"+url.PathEscape(string(id))+"/relation", &out)
	return out, err
}

// Reorders fetches the orders created as follow-ups of this one.
func (c *Client) Reorders(ctx context.Context, id order.ID) ([]order.Order, error) {
	var out []order.Order
	err := c.get(ctx, "get reorders", "/orders/"+url.PathEscape(string(id))+"/reorders", &out)
	return out, err
}

// SetStatus asks the server to move an order to target. The server owns the
// state machine and may reject the transition with a detail message.
func (c *Client) SetStatus(ctx context.Context, id order.ID, target order.Status) (order.Order, error) {
	body := map[string]string{"status": string(target)}
	var out order.Order
	err := c.patch(ctx, "set status", "/orders/"+url.PathEscape(string(id))+"/status", body, &out)
	return out, err
}

// SetAddress stores the delivery address for an order.
func (c *Client) SetAddress(ctx context.Context, id order.ID, addr order.Address) (order.Detail, error) {
	body := map[string]order.Address{"address": addr}
	var out order.Detail
	err := c.patch(ctx, "set address", "/orders/"+url.PathEscape(string(id))+"?op=set_address", body, &out)
	return out, err
}

// Confirm requests the gated draft -> pending_payment transition. The server
// enforces the address precondition and answers address_required when it is
// missing.
func (c *Client) Confirm(ctx context.Context, id order.ID) (order.Detail, error) {
	body := map[string]bool{"confirm": true}
	var out order.Detail
	err := c.patch(ctx, "confirm order", "/orders/"+url.PathEscape(string(id))+"?op=confirm", body, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	return c.do(op, req, out)
}

func (c *Client) patch(ctx context.Context, op, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.mutationTimeout)
	defer cancel()
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("api: %s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: %s: decode response: %w", op, err)
	}
	return nil
}

// Error is a non-success response from the order service. Detail carries the
// server-supplied human-readable explanation when one was parseable.
type Error struct {
	Op         string
	StatusCode int
	Detail     string
	Body       string
}

// newStatusError applies the three-tier message fallback: parsed detail,
// raw body, bare status code.
func newStatusError(op string, resp *http.Response) *Error {
	e := &Error{Op: op, StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return e
	}
	e.Body = strings.TrimSpace(string(raw))
	var parsed struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Detail != "" {
			e.Detail = parsed.Detail
		} else if parsed.Message != "" {
			e.Detail = parsed.Message
		}
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s failed: %d - %s", e.Op, e.StatusCode, e.Detail)
	case e.Body != "":
		return fmt.Sprintf("%s failed: %d - %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s failed: %d", e.Op, e.StatusCode)
	}
}

// DisplayMessage converts any client error into the string shown to staff.
// Server validation details (address_required and friends) come through
// verbatim.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
