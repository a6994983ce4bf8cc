package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus_marketplace/internal/repository/repotest"
	"campus_marketplace/internal/service"
	"campus_marketplace/internal/settings"
	"campus_marketplace/models"
	"campus_marketplace/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Error   *models.ErrorDetail    `json:"error"`
	Meta    *models.PaginationMeta `json:"meta"`
}

type testApp struct {
	app   *fiber.App
	store *repotest.MemStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := repotest.New()
	st := settings.NewService(store.Settings(), nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(app, Deps{
		Accounts: service.NewAccountService(store, testSecret, time.Hour),
		Products: service.NewProductService(store, st),
		Carts:    service.NewCartService(store, st),
		Orders:   service.NewOrderService(store, store.Stats(), st, nil, nil),
		Messages: service.NewMessagingService(store, nil),
		Reviews:  service.NewReviewService(store, nil),
		Reports:  service.NewReportService(store),
		Settings: st,
	})
	return &testApp{app: app, store: store}
}

func (a *testApp) token(t *testing.T, u models.User) string {
	t.Helper()
	tok, err := utils.GenerateToken(u.ID, u.Role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewBufferString(raw)
	} else if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	status, env := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestAuthEndpoints(t *testing.T) {
	a := newTestApp(t)

	status, env := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "Alice@Example.edu",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.edu",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, status)
	var session service.Session
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)

	status, env = a.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice", me.Username)

	status, env = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.edu",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestProtectedRoutes(t *testing.T) {
	a := newTestApp(t)
	user := a.store.AddUser(models.User{})
	admin := a.store.AddUser(models.User{Role: models.RoleAdmin})

	status, env := a.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "no_token", env.Error.Code)

	status, _ = a.do(t, http.MethodGet, "/api/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = a.do(t, http.MethodGet, "/api/admin/users", a.token(t, user), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "admin_only", env.Error.Code)

	status, env = a.do(t, http.MethodGet, "/api/admin/users", a.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 2, env.Meta.Total)
}

func TestCartAndOrderFlow(t *testing.T) {
	a := newTestApp(t)
	seller := a.store.AddUser(models.User{})
	buyer := a.store.AddUser(models.User{})
	stranger := a.store.AddUser(models.User{})
	p := a.store.AddProduct(models.Product{SellerID: seller.ID, Price: decimal.RequireFromString("20.00")})
	tok := a.token(t, buyer)

	status, env := a.do(t, http.MethodPost, "/api/cart/items", tok, map[string]uint{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = a.do(t, http.MethodGet, "/api/cart", tok, nil)
	require.Equal(t, http.StatusOK, status)
	var cart cartView
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "1.00", cart.Totals.ServiceFee.StringFixed(2))
	assert.Equal(t, "21.00", cart.Totals.Total.StringFixed(2))

	status, env = a.do(t, http.MethodPost, "/api/cart/items", a.token(t, seller), map[string]uint{"product_id": p.ID})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "self_purchase", env.Error.Code)

	status, env = a.do(t, http.MethodPost, "/api/orders", tok, map[string]interface{}{
		"payment_method": "credit",
		"delivery":       map[string]string{"address": "Dorm 4"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "21.00", order.Total.StringFixed(2))
	assert.Equal(t, models.ProductSold, a.store.Product(p.ID).Status)

	status, _ = a.do(t, http.MethodGet, "/api/orders/"+order.ID.String(), tok, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/orders/"+order.ID.String(), a.token(t, stranger), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = a.do(t, http.MethodGet, "/api/orders/not-a-uuid", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_id", env.Error.Code)

	status, env = a.do(t, http.MethodPost, "/api/cart/items", a.token(t, stranger), map[string]uint{"product_id": p.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "product_unavailable", env.Error.Code)

	status, _ = a.do(t, http.MethodPut, "/api/orders/"+order.ID.String()+"/cancel", tok, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ProductActive, a.store.Product(p.ID).Status)
}

func TestStaticRoutesBeforeParams(t *testing.T) {
	a := newTestApp(t)
	user := a.store.AddUser(models.User{})
	admin := a.store.AddUser(models.User{Role: models.RoleAdmin})

	status, env := a.do(t, http.MethodGet, "/api/orders/stats", a.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, status, env.Message)

	status, _ = a.do(t, http.MethodGet, "/api/orders/stats", a.token(t, user), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = a.do(t, http.MethodGet, "/api/messages/unread/count", a.token(t, user), nil)
	assert.Equal(t, http.StatusOK, status, env.Message)
	assert.JSONEq(t, `{"count":0}`, string(env.Data))
}

func TestMalformedBody(t *testing.T) {
	a := newTestApp(t)
	user := a.store.AddUser(models.User{})

	status, env := a.do(t, http.MethodPost, "/api/cart/items", a.token(t, user), "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_body", env.Error.Code)
}

func TestMessagingEndpoints(t *testing.T) {
	a := newTestApp(t)
	seller := a.store.AddUser(models.User{})
	buyer := a.store.AddUser(models.User{})
	p := a.store.AddProduct(models.Product{SellerID: seller.ID, Price: decimal.RequireFromString("5.00")})

	status, env := a.do(t, http.MethodPost, "/api/messages", a.token(t, buyer), map[string]interface{}{
		"product_id": p.ID,
		"text":       "Is this still available?",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = a.do(t, http.MethodGet, "/api/messages/unread/count", a.token(t, seller), nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	status, env = a.do(t, http.MethodPost, "/api/messages", a.token(t, seller), map[string]interface{}{
		"product_id": p.ID,
		"text":       "hello me",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "self_message", env.Error.Code)
}

func TestErrorHandlerHidesServerFaults(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, env.Message, "unexpected EOF")
}

func TestProductListingHidesModeratedStatuses(t *testing.T) {
	a := newTestApp(t)
	seller := a.store.AddUser(models.User{})
	admin := a.store.AddUser(models.User{Role: models.RoleAdmin})
	a.store.AddProduct(models.Product{SellerID: seller.ID, Price: decimal.RequireFromString("3.00")})
	for _, st := range []models.ProductStatus{models.ProductPending, models.ProductRejected, models.ProductSuspended} {
		a.store.AddProduct(models.Product{SellerID: seller.ID, Price: decimal.RequireFromString("3.00"), Status: st})
	}

	status, env := a.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.Meta.Total)

	for _, st := range []string{"pending", "rejected", "suspended"} {
		status, env = a.do(t, http.MethodGet, "/api/products?status="+st, "", nil)
		assert.Equal(t, http.StatusForbidden, status, st)
		assert.Empty(t, env.Data, st)

		status, env = a.do(t, http.MethodGet, "/api/admin/products?status="+st, a.token(t, admin), nil)
		require.Equal(t, http.StatusOK, status, st)
		assert.EqualValues(t, 1, env.Meta.Total, st)
	}

	status, _ = a.do(t, http.MethodGet, "/api/admin/products?status=pending", a.token(t, seller), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = a.do(t, http.MethodGet, "/api/admin/products?status=archived", a.token(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_product_status", env.Error.Code)
}
