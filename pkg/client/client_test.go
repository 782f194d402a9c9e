package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeload/storeload/pkg/fixtures"
	"github.com/storeload/storeload/pkg/metrics"
	"github.com/storeload/storeload/pkg/session"
)

type captureRecorder struct {
	outcomes []metrics.Outcome
}

func (r *captureRecorder) Record(o metrics.Outcome) {
	r.outcomes = append(r.outcomes, o)
}

func (r *captureRecorder) last(t *testing.T) metrics.Outcome {
	t.Helper()
	require.NotEmpty(t, r.outcomes)
	return r.outcomes[len(r.outcomes)-1]
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *captureRecorder, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	rec := &captureRecorder{}
	return New(srv.URL, rec, fixtures.NewGenerator(1)), rec, srv
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func TestCancelledContextDoesNotAbortInflightCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c, rec, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Write([]byte(`[{"productId": 1}]`))
	}))
	s := session.New("casual", fixtures.Plan{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.GetProducts(ctx, s) }()

	<-started
	cancel()
	close(release)

	require.NoError(t, <-done, "a call already on the wire finishes despite cancellation")
	o := rec.last(t)
	assert.False(t, o.Failed)
	assert.Len(t, s.Products, 1)
}

func TestRegisterBindsIdentity(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusCreated, `{"userId": 42}`))
	s := session.New("casual", fixtures.NewGenerator(1).SessionPlan())

	require.NoError(t, c.Register(context.Background(), s))
	assert.Equal(t, int64(42), s.UserID)

	o := rec.last(t)
	assert.Equal(t, NameRegisterUser, o.Name)
	assert.False(t, o.Failed)
}

func TestRegisterIdempotent(t *testing.T) {
	hits := 0
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"userId": 42}`))
	}))
	s := session.New("casual", fixtures.Plan{})

	require.NoError(t, c.Register(context.Background(), s))
	require.NoError(t, c.Register(context.Background(), s))
	assert.Equal(t, 1, hits)
}

func TestRegisterMissingKeyIsPayloadFailure(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusOK, `{"ok": true}`))
	s := session.New("casual", fixtures.Plan{})

	err := c.Register(context.Background(), s)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.False(t, s.Registered(), "failed call must not transition state")

	o := rec.last(t)
	assert.True(t, o.Failed)
	assert.Equal(t, "failed to parse user registration response", o.Reason)
}

func TestRegisterBadStatus(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusInternalServerError, `{}`))
	s := session.New("casual", fixtures.Plan{})

	err := c.Register(context.Background(), s)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.False(t, s.Registered())
	assert.Contains(t, rec.last(t).Reason, "status 500")
}

func TestCreateCartRequiresIdentity(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusOK, `{"cartId": 9}`))
	s := session.New("casual", fixtures.Plan{})

	err := c.CreateCart(context.Background(), s)
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Empty(t, rec.outcomes, "precondition no-ops are not recorded")
	assert.False(t, s.HasCart())
}

func TestPlaceOrderRequiresCart(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusOK, `{"orderId": 9}`))
	s := session.New("casual", fixtures.Plan{})
	s.UserID = 1

	err := c.PlaceOrder(context.Background(), s)
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Empty(t, rec.outcomes)
	assert.False(t, s.HasOrders())
}

func TestPurchaseFlowTransitions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user-service/api/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"userId": 5}`))
	})
	mux.HandleFunc("POST /order-service/api/carts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"cartId": 11}`))
	})
	mux.HandleFunc("POST /order-service/api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"orderId": 77}`))
	})
	c, _, _ := newTestClient(t, mux)

	gen := fixtures.NewGenerator(1)
	s := session.New("frequent", gen.SessionPlan())
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, s))
	require.NoError(t, c.CreateCart(ctx, s))
	require.NoError(t, c.PlaceOrder(ctx, s))

	assert.Equal(t, int64(5), s.UserID)
	assert.Equal(t, int64(11), s.CartID)
	assert.Equal(t, []int64{77}, s.OrderIDs)
}

func TestFailedCartLeavesStateUnchanged(t *testing.T) {
	c, _, _ := newTestClient(t, jsonHandler(http.StatusServiceUnavailable, `{}`))
	s := session.New("active", fixtures.Plan{})
	s.UserID = 5

	err := c.CreateCart(context.Background(), s)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.False(t, s.HasCart())

	err = c.PlaceOrder(context.Background(), s)
	assert.True(t, errors.Is(err, ErrPrecondition), "order must stay gated after cart failure")
}

func TestGetProductsParsesCatalog(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusOK,
		`[{"productId": 1, "productTitle": "Widget", "priceUnit": 9.99}, {"productId": 2}]`))
	s := session.New("casual", fixtures.Plan{})

	require.NoError(t, c.GetProducts(context.Background(), s))
	require.Len(t, s.Products, 2)
	assert.Equal(t, int64(1), s.Products[0].ProductID)
	assert.Equal(t, "Widget", s.Products[0].ProductTitle)
	assert.False(t, rec.last(t).Failed)
}

func TestGetProductsUnparsableBody(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusOK, `not json`))
	s := session.New("casual", fixtures.Plan{})
	s.Products = []session.Product{{ProductID: 1}}

	err := c.GetProducts(context.Background(), s)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Nil(t, s.Products, "stale snapshot is cleared on parse failure")
	assert.Equal(t, "failed to parse products JSON", rec.last(t).Reason)
}

func TestSearchEscapesTerm(t *testing.T) {
	var gotQuery string
	c, rec, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search")
		w.Write([]byte(`[]`))
	}))

	require.NoError(t, c.Search(context.Background(), "running shoes"))
	assert.Equal(t, "running shoes", gotQuery)
	assert.Equal(t, NameSearchProducts, rec.last(t).Name)
}

func TestGetUserOrdersRequiresIdentity(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusOK, `[]`))
	s := session.New("casual", fixtures.Plan{})

	err := c.GetUserOrders(context.Background(), s)
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Empty(t, rec.outcomes)
}

func TestHealthCheckNames(t *testing.T) {
	c, rec, _ := newTestClient(t, jsonHandler(http.StatusOK, `{"status":"UP"}`))

	require.NoError(t, c.Health(context.Background(), "product-service"))
	assert.Equal(t, "Health Check - Product Service", rec.last(t).Name)
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
		want int64
		ok   bool
	}{
		{"number", `{"userId": 42}`, "userId", 42, true},
		{"numeric string", `{"userId": "42"}`, "userId", 42, true},
		{"missing", `{"other": 1}`, "userId", 0, false},
		{"zero", `{"userId": 0}`, "userId", 0, false},
		{"not json", `nope`, "userId", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractID([]byte(tt.body), tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
