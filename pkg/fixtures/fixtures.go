// Package fixtures generates randomized payloads for the synthetic user
// sessions: users, products, carts, orders, payments, and shipping entries.
// Values come from gofakeit; email and username are kept locally unique for
// the lifetime of the generator.
package fixtures

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// uniqueAttempts bounds the fresh draws tried before falling back to a
// deterministic disambiguating suffix.
const uniqueAttempts = 10

var categories = []string{"Electronics", "Clothing", "Books", "Home", "Sports", "Beauty"}

var paymentMethods = []string{"CREDIT_CARD", "DEBIT_CARD", "PAYPAL", "BANK_TRANSFER"}

var shippingCompanies = []string{"FedEx", "UPS", "DHL", "USPS", "Local Delivery"}

var searchVocabulary = []string{
	"laptop", "smartphone", "headphones", "book", "shirt", "shoes",
	"watch", "camera", "tablet", "keyboard", "mouse", "monitor",
	"jacket", "jeans", "sneakers", "backpack", "wallet", "sunglasses",
}

// UserPayload is a user registration request body.
type UserPayload struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Phone          string `json:"phone"`
	ImageURL       string `json:"imageUrl"`
	CredentialType string `json:"credentialType"`
}

// ProductPayload is a product creation request body.
type ProductPayload struct {
	ProductTitle  string  `json:"productTitle"`
	ImageURL      string  `json:"imageUrl"`
	SKU           string  `json:"sku"`
	PriceUnit     float64 `json:"priceUnit"`
	Quantity      int     `json:"quantity"`
	CategoryTitle string  `json:"categoryTitle"`
	ProductDesc   string  `json:"productDesc"`
}

// CartPayload is a cart creation request body.
type CartPayload struct {
	UserID int64 `json:"userId"`
}

// OrderPayload is an order placement request body.
type OrderPayload struct {
	OrderDate string  `json:"orderDate"`
	OrderDesc string  `json:"orderDesc"`
	OrderFee  float64 `json:"orderFee"`
	CartID    int64   `json:"cartId"`
}

// PaymentPayload is a payment request body.
type PaymentPayload struct {
	OrderID       int64   `json:"orderId"`
	PaymentDate   string  `json:"paymentDate"`
	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"paymentStatus"`
}

// ShippingPayload is a shipping request body.
type ShippingPayload struct {
	OrderID           int64  `json:"orderId"`
	ShippingDate      string `json:"shippingDate"`
	ShippingAddress   string `json:"shippingAddress"`
	ShippingCompany   string `json:"shippingCompany"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

// Plan is the pre-drawn shape of one virtual-user session.
type Plan struct {
	SessionID          string
	User               UserPayload
	ProductsToView     int
	SearchTerms        []string
	ItemsToAdd         int
	PurchaseLikelihood float64
}

// Generator produces fixture payloads. Safe for use from multiple sessions;
// the uniqueness sets are guarded by a mutex and grow for the generator's
// lifetime, which is bounded by the run that owns it.
type Generator struct {
	mu            sync.Mutex
	faker         *gofakeit.Faker
	usedEmails    map[string]struct{}
	usedUsernames map[string]struct{}
	now           func() time.Time

	// overridable draws, used to force collisions in tests
	emailFn    func() string
	usernameFn func() string
}

// NewGenerator returns a generator seeded for reproducible runs. A zero seed
// selects a random one.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)
	g := &Generator{
		faker:         faker,
		usedEmails:    make(map[string]struct{}),
		usedUsernames: make(map[string]struct{}),
		now:           time.Now,
	}
	g.emailFn = faker.Email
	g.usernameFn = faker.Username
	return g
}

// User generates a registration payload with run-unique email and username.
func (g *Generator) User() UserPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return UserPayload{
		FirstName:      g.faker.FirstName(),
		LastName:       g.faker.LastName(),
		Email:          g.uniqueEmail(),
		Username:       g.uniqueUsername(),
		Password:       "TestPass123!",
		Phone:          g.faker.Phone(),
		ImageURL:       fmt.Sprintf("https://picsum.photos/200/200?random=%d", g.faker.Number(1, 1000)),
		CredentialType: "EMAIL",
	}
}

// Product generates a product creation payload.
func (g *Generator) Product() ProductPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ProductPayload{
		ProductTitle:  g.faker.ProductName(),
		ImageURL:      fmt.Sprintf("https://picsum.photos/300/300?random=%d", g.faker.Number(1, 1000)),
		SKU:           fmt.Sprintf("SKU%d", g.faker.Number(10000, 99999)),
		PriceUnit:     g.faker.Price(10, 500),
		Quantity:      g.faker.Number(10, 1000),
		CategoryTitle: g.faker.RandomString(categories),
		ProductDesc:   g.faker.ProductDescription(),
	}
}

// Cart generates a cart creation payload for the given user.
func (g *Generator) Cart(userID int64) CartPayload {
	return CartPayload{UserID: userID}
}

// Order generates an order payload referencing the given cart.
func (g *Generator) Order(cartID int64) OrderPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return OrderPayload{
		OrderDate: g.now().Format(time.RFC3339),
		OrderDesc: fmt.Sprintf("Order for cart %d", cartID),
		OrderFee:  g.faker.Price(15, 200),
		CartID:    cartID,
	}
}

// Payment generates a payment payload for the given order and amount.
func (g *Generator) Payment(orderID int64, amount float64) PaymentPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return PaymentPayload{
		OrderID:       orderID,
		PaymentDate:   g.now().Format(time.RFC3339),
		PaymentMethod: g.faker.RandomString(paymentMethods),
		Amount:        amount,
		PaymentStatus: "PENDING",
	}
}

// Shipping generates a shipping payload for the given order.
func (g *Generator) Shipping(orderID int64) ShippingPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	addr := g.faker.Address()
	street := strings.ReplaceAll(addr.Address, "\n", ", ")
	if len(street) > 100 {
		street = street[:100]
	}
	return ShippingPayload{
		OrderID:           orderID,
		ShippingDate:      g.now().AddDate(0, 0, g.faker.Number(1, 3)).Format(time.RFC3339),
		ShippingAddress:   street,
		ShippingCompany:   g.faker.RandomString(shippingCompanies),
		EstimatedDelivery: g.now().AddDate(0, 0, g.faker.Number(5, 14)).Format(time.RFC3339),
	}
}

// SearchTerm draws one term from the fixed search vocabulary.
func (g *Generator) SearchTerm() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faker.RandomString(searchVocabulary)
}

// SessionPlan draws the full shape of one session up front: identity
// payload, browse depth, search terms, and purchase intent.
func (g *Generator) SessionPlan() Plan {
	user := g.User()

	g.mu.Lock()
	defer g.mu.Unlock()
	terms := make([]string, g.faker.Number(1, 3))
	for i := range terms {
		terms[i] = g.faker.RandomString(searchVocabulary)
	}
	return Plan{
		SessionID:          uuid.NewString(),
		User:               user,
		ProductsToView:     g.faker.Number(3, 10),
		SearchTerms:        terms,
		ItemsToAdd:         g.faker.Number(1, 5),
		PurchaseLikelihood: 0.3 + g.faker.Float64Range(0, 0.6),
	}
}

// uniqueEmail draws until an unseen address appears; after the attempt
// budget it appends a timestamp token to the local part. Callers hold g.mu.
func (g *Generator) uniqueEmail() string {
	var email string
	for i := 0; i < uniqueAttempts; i++ {
		email = g.emailFn()
		if _, seen := g.usedEmails[email]; !seen {
			g.usedEmails[email] = struct{}{}
			return email
		}
	}
	suffix := g.now().UnixNano()
	email = strings.Replace(email, "@", fmt.Sprintf("+%d@", suffix), 1)
	for {
		if _, seen := g.usedEmails[email]; !seen {
			break
		}
		suffix++
		email = strings.Replace(g.emailFn(), "@", fmt.Sprintf("+%d@", suffix), 1)
	}
	g.usedEmails[email] = struct{}{}
	return email
}

// uniqueUsername mirrors uniqueEmail with a numeric suffix fallback.
func (g *Generator) uniqueUsername() string {
	var name string
	for i := 0; i < uniqueAttempts; i++ {
		name = g.usernameFn()
		if _, seen := g.usedUsernames[name]; !seen {
			g.usedUsernames[name] = struct{}{}
			return name
		}
	}
	base := name
	for i := 0; i < uniqueAttempts; i++ {
		name = fmt.Sprintf("%s%04d", base, g.faker.Number(0, 9999))
		if _, seen := g.usedUsernames[name]; !seen {
			g.usedUsernames[name] = struct{}{}
			return name
		}
	}
	for suffix := g.now().UnixNano(); ; suffix++ {
		name = fmt.Sprintf("%s%d", base, suffix)
		if _, seen := g.usedUsernames[name]; !seen {
			break
		}
	}
	g.usedUsernames[name] = struct{}{}
	return name
}
