package handlers

import (
	"campus_marketplace/internal/service"
	"campus_marketplace/models"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type CreateOrderRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Delivery      models.DeliveryInfo  `json:"delivery"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type UpdatePaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// CreateOrder - POST /api/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	order, err := h.orders.CreateOrder(c.UserContext(), actor(c).UserID, req.PaymentMethod, req.Delivery)
	if err != nil {
		return err
	}
	return created(c, "Order created", order)
}

// GetMyOrders - GET /api/orders
func (h *OrderHandler) GetMyOrders(c *fiber.Ctx) error {
	page, err := h.orders.GetUserOrders(c.UserContext(), actor(c).UserID, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return paged(c, "Orders retrieved", page)
}

// GetOrder - GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orders.GetOrderByID(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return ok(c, "Order retrieved", order)
}

// CancelOrder - PUT /api/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orders.CancelOrder(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return ok(c, "Order cancelled", order)
}

// UpdatePayment - PUT /api/orders/:id/payment
func (h *OrderHandler) UpdatePayment(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdatePaymentRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	order, err := h.orders.UpdatePaymentStatus(c.UserContext(), actor(c), id, req.PaymentStatus)
	if err != nil {
		return err
	}
	return ok(c, "Payment status updated", order)
}

// Checkout - POST /api/orders/:id/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.CheckoutRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	order, err := h.orders.ProcessCheckout(c.UserContext(), actor(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, "Payment processed", order)
}

// GetAllOrders - GET /api/orders/all (admin)
func (h *OrderHandler) GetAllOrders(c *fiber.Ctx) error {
	page, err := h.orders.GetAllOrders(c.UserContext(), models.OrderFilter{
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
		Page:          c.QueryInt("page", 1),
		Limit:         c.QueryInt("limit", 20),
	})
	if err != nil {
		return err
	}
	return paged(c, "Orders retrieved", page)
}

// UpdateStatus - PUT /api/orders/:id/status (admin)
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	order, err := h.orders.UpdateOrderStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, "Order status updated", order)
}

// GetStats - GET /api/orders/stats (admin)
func (h *OrderHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.orders.GetStats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "Order stats retrieved", stats)
}

// GetMonthlySales - GET /api/orders/monthly-sales (admin)
func (h *OrderHandler) GetMonthlySales(c *fiber.Ctx) error {
	sales, err := h.orders.GetMonthlySales(c.UserContext(), c.QueryInt("months", 6))
	if err != nil {
		return err
	}
	return ok(c, "Monthly sales retrieved", sales)
}
