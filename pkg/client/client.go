// Package client issues the harness's outbound HTTP calls and interprets
// responses into request outcomes. Success requires both an accepted status
// code and, where the harness consumes a body field, a parsable body
// containing that field. Failures are recorded and never abort a session.
package client

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
	"time"

	"go.uber.org/zap"

	"github.com/storeload/storeload/pkg/fixtures"
	"github.com/storeload/storeload/pkg/metrics"
	"github.com/storeload/storeload/pkg/session"
)

// Errors returned by action executors.
var (
	// ErrPrecondition is returned when the session lacks a required prior
	// transition. It is a scheduling no-op: nothing is recorded.
	ErrPrecondition = errors.New("client: session precondition not met")
	// ErrRequestFailed is returned when a call was made and recorded as a
	// failure (bad status, transport error, or unusable body).
	ErrRequestFailed = errors.New("client: request failed")
)

// Logical endpoint names used to group outcomes in the aggregator.
const (
	NameGetProducts       = "Get Products"
	NameViewProductDetail = "View Product Detail"
	NameSearchProducts    = "Search Products"
	NameRegisterUser      = "Register User"
	NameCreateCart        = "Create Cart"
	NamePlaceOrder        = "Place Order"
	NameGetUserOrders     = "Get User Orders"
)

var healthNames = map[string]string{
	"user-service":    "Health Check - User Service",
	"product-service": "Health Check - Product Service",
	"order-service":   "Health Check - Order Service",
}

// Recorder receives one outcome per completed call. The metrics aggregator
// implements it.
type Recorder interface {
	Record(metrics.Outcome)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client executes actions against the e-commerce services.
type Client struct {
	base string
	http *http.Client
	rec  Recorder
	gen  *fixtures.Generator
	log  *zap.Logger
}

// New builds a client for the given base URL. Outcomes go to rec; payloads
// come from gen.
func New(base string, rec Recorder, gen *fixtures.Generator, opts ...Option) *Client {
	c := &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
		rec:  rec,
		gen:  gen,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetProducts refreshes the session's catalog snapshot.
func (c *Client) GetProducts(ctx context.Context, s *session.State) error {
	body, status, latency, err := c.call(ctx, http.MethodGet, "/product-service/api/products", nil)
	if err != nil {
		return c.fail(NameGetProducts, latency, err.Error())
	}
	if status != http.StatusOK {
		return c.fail(NameGetProducts, latency, fmt.Sprintf("got status code %d", status))
	}
	var products []session.Product
	if err := json.Unmarshal(body, &products); err != nil {
		s.Products = nil
		return c.fail(NameGetProducts, latency, "failed to parse products JSON")
	}
	s.Products = products
	c.ok(NameGetProducts, latency)
	return nil
}

// ViewProduct fetches one product's detail page.
func (c *Client) ViewProduct(ctx context.Context, productID int64) error {
	path := "/product-service/api/products/" + strconv.FormatInt(productID, 10)
	_, status, latency, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return c.fail(NameViewProductDetail, latency, err.Error())
	}
	if status != http.StatusOK {
		return c.fail(NameViewProductDetail, latency, fmt.Sprintf("product detail failed: %d", status))
	}
	c.ok(NameViewProductDetail, latency)
	return nil
}

// Search issues a filtered catalog query under the standard logical name.
func (c *Client) Search(ctx context.Context, term string) error {
	return c.SearchAs(ctx, term, NameSearchProducts)
}

// SearchAs issues a filtered catalog query recorded under a caller-chosen
// logical name, used by profiles that track their searches separately.
func (c *Client) SearchAs(ctx context.Context, term, name string) error {
	path := "/product-service/api/products?search=" + url.QueryEscape(term)
	_, status, latency, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return c.fail(name, latency, err.Error())
	}
	if status != http.StatusOK {
		return c.fail(name, latency, fmt.Sprintf("search failed: %d", status))
	}
	c.ok(name, latency)
	return nil
}

// Register submits the session's user payload and binds the returned
// identity. Idempotent: an already-registered session is a no-op.
func (c *Client) Register(ctx context.Context, s *session.State) error {
	if s.Registered() {
		return nil
	}
	body, status, latency, err := c.call(ctx, http.MethodPost, "/user-service/api/users", s.Plan.User)
	if err != nil {
		return c.fail(NameRegisterUser, latency, err.Error())
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return c.fail(NameRegisterUser, latency, fmt.Sprintf("registration failed with status %d", status))
	}
	id, ok := extractID(body, "userId")
	if !ok {
		return c.fail(NameRegisterUser, latency, "failed to parse user registration response")
	}
	c.ok(NameRegisterUser, latency)
	s.UserID = id
	return nil
}

// CreateCart opens a cart for a registered session.
func (c *Client) CreateCart(ctx context.Context, s *session.State) error {
	if !s.Registered() {
		return ErrPrecondition
	}
	payload := c.gen.Cart(s.UserID)
	body, status, latency, err := c.call(ctx, http.MethodPost, "/order-service/api/carts", payload)
	if err != nil {
		return c.fail(NameCreateCart, latency, err.Error())
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return c.fail(NameCreateCart, latency, fmt.Sprintf("cart creation failed: %d", status))
	}
	id, ok := extractID(body, "cartId")
	if !ok {
		return c.fail(NameCreateCart, latency, "failed to parse cart creation response")
	}
	c.ok(NameCreateCart, latency)
	s.CartID = id
	return nil
}

// PlaceOrder converts the session's open cart into an order.
func (c *Client) PlaceOrder(ctx context.Context, s *session.State) error {
	if !s.HasCart() {
		return ErrPrecondition
	}
	payload := c.gen.Order(s.CartID)
	body, status, latency, err := c.call(ctx, http.MethodPost, "/order-service/api/orders", payload)
	if err != nil {
		return c.fail(NamePlaceOrder, latency, err.Error())
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return c.fail(NamePlaceOrder, latency, fmt.Sprintf("order placement failed: %d", status))
	}
	id, ok := extractID(body, "orderId")
	if !ok {
		return c.fail(NamePlaceOrder, latency, "failed to parse order response")
	}
	c.ok(NamePlaceOrder, latency)
	s.OrderIDs = append(s.OrderIDs, id)
	return nil
}

// GetUserOrders queries the session's order history. Read-only.
func (c *Client) GetUserOrders(ctx context.Context, s *session.State) error {
	if !s.Registered() {
		return ErrPrecondition
	}
	path := "/order-service/api/orders?userId=" + strconv.FormatInt(s.UserID, 10)
	_, status, latency, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return c.fail(NameGetUserOrders, latency, err.Error())
	}
	if status != http.StatusOK {
		return c.fail(NameGetUserOrders, latency, fmt.Sprintf("get orders failed: %d", status))
	}
	c.ok(NameGetUserOrders, latency)
	return nil
}

// Health probes one service's actuator health endpoint.
func (c *Client) Health(ctx context.Context, service string) error {
	name, ok := healthNames[service]
	if !ok {
		name = "Health Check - " + service
	}
	_, status, latency, err := c.call(ctx, http.MethodGet, "/"+service+"/actuator/health", nil)
	if err != nil {
		return c.fail(name, latency, err.Error())
	}
	if status != http.StatusOK {
		return c.fail(name, latency, fmt.Sprintf("health check failed: %d", status))
	}
	c.ok(name, latency)
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, payload any) (body []byte, status int, latency time.Duration, err error) {
	var rdr io.Reader
	if payload != nil {
		b, merr := json.Marshal(payload)
		if merr != nil {
			return nil, 0, 0, merr
		}
		rdr = bytes.NewReader(b)
	}
	// Run shutdown stops scheduling between actions; an action already on
	// the wire finishes and records its real outcome. The call stays
	// bounded by the HTTP client's timeout.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), method, c.base+path, rdr)
	if err != nil {
		return nil, 0, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	latency = time.Since(start)
	if err != nil {
		return nil, 0, latency, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, latency, err
	}
	return body, resp.StatusCode, latency, nil
}

func (c *Client) ok(name string, latency time.Duration) {
	if c.rec != nil {
		c.rec.Record(metrics.Outcome{Name: name, Latency: latency})
	}
}

func (c *Client) fail(name string, latency time.Duration, reason string) error {
	if c.rec != nil {
		c.rec.Record(metrics.Outcome{Name: name, Latency: latency, Failed: true, Reason: reason})
	}
	c.log.Debug("request failed",
		zap.String("endpoint", name),
		zap.String("reason", reason),
		zap.Duration("latency", latency))
	return fmt.Errorf("%w: %s: %s", ErrRequestFailed, name, reason)
}

// extractID pulls a numeric identifier out of a JSON object body. Accepts
// numbers and numeric strings; zero and missing values are both unusable.
func extractID(body []byte, key string) (int64, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return 0, false
	}
	raw, ok := m[key]
	if !ok {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n != 0
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if n, perr := strconv.ParseInt(str, 10, 64); perr == nil {
			return n, n != 0
		}
	}
	return 0, false
}
