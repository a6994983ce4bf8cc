package handlers

import (
	"campus_marketplace/internal/service"
	"campus_marketplace/models"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartView struct {
	Items  []models.CartLine `json:"items"`
	Totals models.CartTotals `json:"totals"`
}

// GetCart - GET /api/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID := actor(c).UserID
	items, err := h.carts.GetItems(c.UserContext(), userID)
	if err != nil {
		return err
	}
	totals, err := h.carts.CalculateTotals(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return ok(c, "Cart retrieved", cartView{Items: items, Totals: totals})
}

// AddItem - POST /api/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	req := AddItemRequest{Quantity: 1}
	if err := parse(c, &req); err != nil {
		return err
	}
	item, err := h.carts.AddItem(c.UserContext(), actor(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return created(c, "Item added to cart", item)
}

// UpdateItem - PUT /api/cart/items/:id
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateQuantityRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	item, err := h.carts.UpdateItemQuantity(c.UserContext(), actor(c).UserID, id, req.Quantity)
	if err != nil {
		return err
	}
	return ok(c, "Cart item updated", item)
}

// RemoveItem - DELETE /api/cart/items/:id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	removed, err := h.carts.RemoveItem(c.UserContext(), actor(c).UserID, id)
	if err != nil {
		return err
	}
	return ok(c, "Cart item removed", fiber.Map{"removed": removed})
}

// ClearCart - DELETE /api/cart
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	cleared, err := h.carts.ClearCart(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, "Cart cleared", fiber.Map{"cleared": cleared})
}

// Validate - GET /api/cart/validate
func (h *CartHandler) Validate(c *fiber.Ctx) error {
	stale, err := h.carts.ValidateItems(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, "Cart validated", fiber.Map{
		"valid":             len(stale) == 0,
		"unavailable_items": stale,
	})
}

// Count - GET /api/cart/count
func (h *CartHandler) Count(c *fiber.Ctx) error {
	n, err := h.carts.Count(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, "Cart count retrieved", fiber.Map{"count": n})
}

// Check - GET /api/cart/check/:productId
func (h *CartHandler) Check(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	in, err := h.carts.Contains(c.UserContext(), actor(c).UserID, productID)
	if err != nil {
		return err
	}
	return ok(c, "Cart checked", fiber.Map{"in_cart": in})
}
