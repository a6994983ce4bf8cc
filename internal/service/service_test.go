package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"campus_marketplace/internal/eventbus"
	"campus_marketplace/internal/repository/repotest"
	"campus_marketplace/internal/settings"
	"campus_marketplace/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeGuard struct {
	mu       sync.Mutex
	held     map[uuid.UUID]bool
	err      error
	released int
}

func (g *fakeGuard) Acquire(ctx context.Context, orderID uuid.UUID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.held == nil {
		g.held = map[uuid.UUID]bool{}
	}
	if g.held[orderID] {
		return false, nil
	}
	g.held[orderID] = true
	return true, nil
}

func (g *fakeGuard) Release(ctx context.Context, orderID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, orderID)
	g.released++
	return nil
}

type fixture struct {
	store    *repotest.MemStore
	events   *recordingPublisher
	guard    *fakeGuard
	settings *settings.Service
	carts    *CartService
	orders   *OrderService
	chat     *MessagingService
	reviews  *ReviewService
	reports  *ReportService
	products *ProductService
	accounts *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	events := &recordingPublisher{}
	guard := &fakeGuard{}
	st := settings.NewService(store.Settings(), nil)
	return &fixture{
		store:    store,
		events:   events,
		guard:    guard,
		settings: st,
		carts:    NewCartService(store, st),
		orders:   NewOrderService(store, store.Stats(), st, guard, events),
		chat:     NewMessagingService(store, nil),
		reviews:  NewReviewService(store, events),
		reports:  NewReportService(store),
		products: NewProductService(store, st),
		accounts: NewAccountService(store, "test-secret", time.Hour),
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

// listed seeds a seller with one active product at price.
func (f *fixture) listed(price string) (models.User, models.Product) {
	seller := f.store.AddUser(models.User{})
	p := f.store.AddProduct(models.Product{SellerID: seller.ID, Price: money(price)})
	return seller, p
}

// ordered puts the products in a fresh buyer's cart and checks out.
func (f *fixture) ordered(t *testing.T, products ...models.Product) (models.User, *models.Order) {
	t.Helper()
	ctx := context.Background()
	buyer := f.store.AddUser(models.User{})
	for _, p := range products {
		_, err := f.carts.AddItem(ctx, buyer.ID, p.ID, 1)
		require.NoError(t, err)
	}
	o, err := f.orders.CreateOrder(ctx, buyer.ID, models.PaymentCredit, models.DeliveryInfo{Address: "1 Campus Way"})
	require.NoError(t, err)
	return buyer, o
}

func actor(u models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}
