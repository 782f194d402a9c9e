package fixtures

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPayloadShape(t *testing.T) {
	g := NewGenerator(1)
	u := g.User()

	assert.NotEmpty(t, u.FirstName)
	assert.NotEmpty(t, u.LastName)
	assert.Contains(t, u.Email, "@")
	assert.NotEmpty(t, u.Username)
	assert.Equal(t, "EMAIL", u.CredentialType)
	assert.Equal(t, "TestPass123!", u.Password)
}

func TestEmailsAndUsernamesPairwiseDistinct(t *testing.T) {
	g := NewGenerator(42)

	emails := make(map[string]struct{})
	usernames := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		u := g.User()
		_, dupEmail := emails[u.Email]
		require.False(t, dupEmail, "duplicate email %q at draw %d", u.Email, i)
		emails[u.Email] = struct{}{}

		_, dupName := usernames[u.Username]
		require.False(t, dupName, "duplicate username %q at draw %d", u.Username, i)
		usernames[u.Username] = struct{}{}
	}
}

func TestUniqueEmailFallbackUnderForcedCollisions(t *testing.T) {
	g := NewGenerator(7)
	g.emailFn = func() string { return "collide@example.com" }

	seen := make(map[string]struct{})
	for i := 0; i < 12; i++ {
		u := g.User()
		_, dup := seen[u.Email]
		require.False(t, dup, "duplicate email %q at draw %d", u.Email, i)
		seen[u.Email] = struct{}{}
		assert.True(t, strings.HasSuffix(u.Email, "@example.com"))
	}
}

func TestUniqueUsernameFallbackUnderForcedCollisions(t *testing.T) {
	g := NewGenerator(7)
	g.usernameFn = func() string { return "collide" }

	seen := make(map[string]struct{})
	for i := 0; i < 12; i++ {
		u := g.User()
		_, dup := seen[u.Username]
		require.False(t, dup, "duplicate username %q at draw %d", u.Username, i)
		seen[u.Username] = struct{}{}
		assert.True(t, strings.HasPrefix(u.Username, "collide"))
	}
}

func TestUniqueUsernameTerminatesWithSuffixSpaceExhausted(t *testing.T) {
	g := NewGenerator(7)
	g.usernameFn = func() string { return "collide" }

	// Occupy the base name and every 4-digit suffix variant.
	g.usedUsernames["collide"] = struct{}{}
	for i := 0; i < 10000; i++ {
		g.usedUsernames[fmt.Sprintf("collide%04d", i)] = struct{}{}
	}

	name := g.uniqueUsername()
	assert.True(t, strings.HasPrefix(name, "collide"))
	_, dup := g.usedUsernames[name]
	assert.True(t, dup, "result is reserved in the uniqueness set")
	assert.Greater(t, len(name), len("collide9999"))
}

func TestProductPayload(t *testing.T) {
	g := NewGenerator(3)
	p := g.Product()

	assert.NotEmpty(t, p.ProductTitle)
	assert.True(t, strings.HasPrefix(p.SKU, "SKU"))
	assert.GreaterOrEqual(t, p.PriceUnit, 10.0)
	assert.LessOrEqual(t, p.PriceUnit, 500.0)
	assert.Contains(t, categories, p.CategoryTitle)
}

func TestOrderReferencesCart(t *testing.T) {
	g := NewGenerator(3)
	o := g.Order(99)

	assert.Equal(t, int64(99), o.CartID)
	assert.Equal(t, fmt.Sprintf("Order for cart %d", 99), o.OrderDesc)
	assert.GreaterOrEqual(t, o.OrderFee, 15.0)
	assert.LessOrEqual(t, o.OrderFee, 200.0)
}

func TestPaymentAndShippingPayloads(t *testing.T) {
	g := NewGenerator(5)

	pay := g.Payment(12, 120.50)
	assert.Equal(t, int64(12), pay.OrderID)
	assert.Equal(t, 120.50, pay.Amount)
	assert.Equal(t, "PENDING", pay.PaymentStatus)
	assert.Contains(t, paymentMethods, pay.PaymentMethod)

	ship := g.Shipping(12)
	assert.Equal(t, int64(12), ship.OrderID)
	assert.Contains(t, shippingCompanies, ship.ShippingCompany)
	assert.LessOrEqual(t, len(ship.ShippingAddress), 100)
}

func TestSessionPlanBounds(t *testing.T) {
	g := NewGenerator(11)

	for i := 0; i < 50; i++ {
		plan := g.SessionPlan()
		assert.NotEmpty(t, plan.SessionID)
		assert.GreaterOrEqual(t, plan.ProductsToView, 3)
		assert.LessOrEqual(t, plan.ProductsToView, 10)
		assert.GreaterOrEqual(t, len(plan.SearchTerms), 1)
		assert.LessOrEqual(t, len(plan.SearchTerms), 3)
		for _, term := range plan.SearchTerms {
			assert.Contains(t, searchVocabulary, term)
		}
		assert.GreaterOrEqual(t, plan.ItemsToAdd, 1)
		assert.LessOrEqual(t, plan.ItemsToAdd, 5)
		assert.GreaterOrEqual(t, plan.PurchaseLikelihood, 0.3)
		assert.LessOrEqual(t, plan.PurchaseLikelihood, 0.9)
	}
}

func TestSearchTermFromVocabulary(t *testing.T) {
	g := NewGenerator(2)
	assert.Contains(t, searchVocabulary, g.SearchTerm())
}
