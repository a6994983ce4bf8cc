package handlers

import (
	"campus_marketplace/internal/service"
	"campus_marketplace/internal/settings"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the user listing and marketplace settings.
type AdminHandler struct {
	accounts *service.AccountService
	settings settings.Provider
}

func NewAdminHandler(accounts *service.AccountService, settings settings.Provider) *AdminHandler {
	return &AdminHandler{accounts: accounts, settings: settings}
}

// ListUsers - GET /api/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, err := h.accounts.ListUsers(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return paged(c, "Users retrieved", page)
}

// GetSettings - GET /api/admin/settings
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	st, err := h.settings.Get(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "Settings retrieved", st)
}

// UpdateSettings - PUT /api/admin/settings
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var patch settings.Patch
	if err := parse(c, &patch); err != nil {
		return err
	}
	st, err := h.settings.Update(c.UserContext(), patch)
	if err != nil {
		return err
	}
	return ok(c, "Settings updated", st)
}
