package handlers

import (
	"campus_marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview - POST /api/reviews
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	var req service.ReviewInput
	if err := parse(c, &req); err != nil {
		return err
	}
	rv, err := h.reviews.Create(c.UserContext(), actor(c).UserID, req)
	if err != nil {
		return err
	}
	return created(c, "Review created", rv)
}

// GetSellerReviews - GET /api/reviews/seller/:id
func (h *ReviewHandler) GetSellerReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	page, err := h.reviews.ListBySeller(c.UserContext(), id, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return paged(c, "Reviews retrieved", page)
}

// GetSellerStats - GET /api/reviews/seller/:id/stats
func (h *ReviewHandler) GetSellerStats(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.reviews.GetSellerRatingStats(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "Rating stats retrieved", stats)
}

// GetProductReviews - GET /api/reviews/product/:id
func (h *ReviewHandler) GetProductReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.reviews.ListByProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "Reviews retrieved", reviews)
}

// CheckEligibility - GET /api/reviews/check-eligibility/:productId
func (h *ReviewHandler) CheckEligibility(c *fiber.Ctx) error {
	id, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	el, err := h.reviews.CheckEligibility(c.UserContext(), actor(c).UserID, id)
	if err != nil {
		return err
	}
	return ok(c, "Eligibility checked", el)
}

// UpdateReview - PUT /api/reviews/:id
func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateReviewRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	rv, err := h.reviews.Update(c.UserContext(), actor(c), id, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return ok(c, "Review updated", rv)
}

// DeleteReview - DELETE /api/reviews/:id
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.reviews.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return ok(c, "Review deleted", nil)
}
