package handlers

import (
	"campus_marketplace/internal/service"
	"campus_marketplace/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type ReviewProductRequest struct {
	Decision string `json:"decision"` // approve, reject, suspend
}

// CreateProduct - POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductInput
	if err := parse(c, &req); err != nil {
		return err
	}
	product, err := h.products.Create(c.UserContext(), actor(c).UserID, req)
	if err != nil {
		return err
	}
	return created(c, "Product created", product)
}

// GetAllProducts - GET /api/products, GET /api/admin/products
func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	f := models.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Status:   models.ProductStatus(c.Query("status")),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
	}
	if seller := c.QueryInt("seller_id", 0); seller > 0 {
		f.SellerID = uint(seller)
	}
	if v := c.Query("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return service.ErrInvalidProduct
		}
		f.MinPrice = &d
	}
	if v := c.Query("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return service.ErrInvalidProduct
		}
		f.MaxPrice = &d
	}

	page, err := h.products.List(c.UserContext(), actor(c), f)
	if err != nil {
		return err
	}
	return paged(c, "Products retrieved", page)
}

// GetProduct - GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.products.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "Product retrieved", detail)
}

// UpdateProduct - PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.ProductInput
	if err := parse(c, &req); err != nil {
		return err
	}
	product, err := h.products.Update(c.UserContext(), actor(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, "Product updated", product)
}

// DeleteProduct - DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return ok(c, "Product deleted", nil)
}

// ReviewProduct - PUT /api/admin/products/:id/review
func (h *ProductHandler) ReviewProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req ReviewProductRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	product, err := h.products.Review(c.UserContext(), id, req.Decision)
	if err != nil {
		return err
	}
	return ok(c, "Product reviewed", product)
}

// GetCategories - GET /api/categories
func (h *ProductHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.products.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "Categories retrieved", categories)
}
