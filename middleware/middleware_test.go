package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus_marketplace/internal/apperr"
	"campus_marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBadToken = apperr.New(apperr.Unauthenticated, "invalid_credentials", "Invalid token")

type stubAuth map[string]service.Actor

func (s stubAuth) Authenticate(token string) (service.Actor, error) {
	if a, ok := s[token]; ok {
		return a, nil
	}
	return service.Actor{}, errBadToken
}

// errorStatus keeps the test independent of the handlers package.
func errorStatus(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok {
		switch e.Kind {
		case apperr.Unauthenticated:
			return c.Status(fiber.StatusUnauthorized).SendString(e.Code)
		case apperr.Forbidden:
			return c.Status(fiber.StatusForbidden).SendString(e.Code)
		case apperr.NotFound:
			return c.Status(fiber.StatusNotFound).SendString(e.Code)
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).SendString(fe.Message)
	}
	return c.SendStatus(fiber.StatusInternalServerError)
}

func newApp() *fiber.App {
	auth := stubAuth{
		"user-token":  {UserID: 7, Role: "user"},
		"admin-token": {UserID: 1, Role: "admin"},
	}
	app := fiber.New(fiber.Config{ErrorHandler: errorStatus})
	SetupMiddleware(app, "*")

	whoami := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id"), "role": c.Locals("role")})
	}
	app.Get("/me", AuthMiddleware(auth), whoami)
	app.Get("/admin", AuthMiddleware(auth), AdminOnly, whoami)
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	app.Use(NotFound)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp()

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/me", "", http.StatusUnauthorized},
		{"unknown token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "/me", "Basic user-token", http.StatusUnauthorized},
		{"bearer header", "/me", "Bearer user-token", http.StatusOK},
		{"lowercase scheme", "/me", "bearer user-token", http.StatusOK},
		{"query token", "/me?token=user-token", "", http.StatusOK},
		{"user on admin route", "/admin", "Bearer user-token", http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSetupMiddleware(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
