// Package session holds the per-virtual-user state that the behavior loop
// mutates. A State is owned by exactly one goroutine for its lifetime, so it
// carries no locking.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/storeload/storeload/pkg/fixtures"
)

// Product is one catalog entry as returned by the product service listing.
type Product struct {
	ProductID    int64   `json:"productId"`
	ProductTitle string  `json:"productTitle"`
	PriceUnit    float64 `json:"priceUnit"`
}

// State is the mutable state of one virtual user. Identity, cart, and order
// fields are assigned only by successful action calls; a failed call leaves
// the state untouched.
type State struct {
	ID      string
	Profile string
	Plan    fixtures.Plan

	UserID   int64
	CartID   int64
	OrderIDs []int64
	Products []Product

	Actions    int
	MaxActions int // 0 means unlimited
	StartedAt  time.Time
}

// New builds a fresh anonymous session for the named profile.
func New(profile string, plan fixtures.Plan) *State {
	return &State{
		ID:        uuid.NewString(),
		Profile:   profile,
		Plan:      plan,
		StartedAt: time.Now(),
	}
}

// Registered reports whether the session has an identity.
func (s *State) Registered() bool { return s.UserID != 0 }

// HasCart reports whether the session has an open cart.
func (s *State) HasCart() bool { return s.CartID != 0 }

// HasOrders reports whether the session has placed at least one order.
func (s *State) HasOrders() bool { return len(s.OrderIDs) > 0 }

// Exhausted reports whether the session has used up its action budget.
func (s *State) Exhausted() bool {
	return s.MaxActions > 0 && s.Actions >= s.MaxActions
}

// Recycle starts a new session-like cycle for long-running users: the cart
// reference is dropped and the action counter reset, identity and order
// history are kept.
func (s *State) Recycle(maxActions int) {
	s.CartID = 0
	s.Actions = 0
	s.MaxActions = maxActions
	s.StartedAt = time.Now()
}
