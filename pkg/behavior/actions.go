package behavior

import (
	"context"
	"time"
)

// browseProducts refreshes the catalog snapshot and views a handful of
// random product details, pausing between views like a reading user.
// Individual detail failures are recorded but do not abort the loop.
func browseProducts(ctx context.Context, e *Env) {
	_ = e.Client.GetProducts(ctx, e.State)
	if len(e.State.Products) == 0 {
		return
	}
	n := e.State.Plan.ProductsToView
	if len(e.State.Products) < n {
		n = len(e.State.Products)
	}
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}
		p := e.State.Products[e.Rand.Intn(len(e.State.Products))]
		if p.ProductID != 0 {
			_ = e.Client.ViewProduct(ctx, p.ProductID)
		}
		e.pause(ctx, 500*time.Millisecond, 2*time.Second)
	}
}

// searchProducts runs the session's pre-drawn search terms.
func searchProducts(ctx context.Context, e *Env) {
	for _, term := range e.State.Plan.SearchTerms {
		if ctx.Err() != nil {
			return
		}
		_ = e.Client.Search(ctx, term)
		e.pause(ctx, 300*time.Millisecond, time.Second)
	}
}

// register ensures the session has an identity. Reports whether the session
// is registered afterwards.
func register(ctx context.Context, e *Env) bool {
	if err := e.Client.Register(ctx, e.State); err != nil {
		return false
	}
	return true
}

// purchase creates a cart and, on success, converts it to an order after an
// optional decision pause.
func purchase(ctx context.Context, e *Env, decideMin, decideMax time.Duration) {
	if e.Client.CreateCart(ctx, e.State) != nil {
		return
	}
	if decideMax > 0 {
		e.pause(ctx, decideMin, decideMax)
	}
	_ = e.Client.PlaceOrder(ctx, e.State)
}

// checkOrders reads the order history when the session has any orders.
func checkOrders(ctx context.Context, e *Env) {
	if !e.State.HasOrders() {
		return
	}
	_ = e.Client.GetUserOrders(ctx, e.State)
}

// randomAction executes one uniformly chosen primitive action; "order" is a
// no-op unless the session holds a cart.
func randomAction(ctx context.Context, e *Env) {
	switch e.Rand.Intn(4) {
	case 0:
		browseProducts(ctx, e)
	case 1:
		searchProducts(ctx, e)
	case 2:
		_ = e.Client.CreateCart(ctx, e.State)
	case 3:
		if e.State.HasCart() {
			_ = e.Client.PlaceOrder(ctx, e.State)
		}
	}
}
