package handlers

import (
	"campus_marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// LoginRequest defines the payload for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register - POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parse(c, &req); err != nil {
		return err
	}
	user, err := h.accounts.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return created(c, "User registered successfully", user)
}

// Login - POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	session, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(c, "Login successful", session)
}

// Me - GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.accounts.Me(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, "User retrieved", user)
}
