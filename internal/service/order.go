package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"campus_marketplace/internal/eventbus"
	"campus_marketplace/internal/repository"
	"campus_marketplace/internal/settings"
	"campus_marketplace/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const maxOrderNumberAttempts = 5

// CheckoutRequest is the simulated payment submitted for an order.
type CheckoutRequest struct {
	PaymentType  string `json:"payment_type"`
	PaymentToken string `json:"payment_method_id"`
}

type OrderService struct {
	store    repository.Store
	stats    repository.StatsRepository
	settings settings.Provider
	guard    CheckoutGuard
	events   eventbus.Publisher

	orderNumber func() string
}

// NewOrderService wires the order engine. guard and events may be nil.
func NewOrderService(store repository.Store, stats repository.StatsRepository, settings settings.Provider, guard CheckoutGuard, events eventbus.Publisher) *OrderService {
	if guard == nil {
		guard = noopGuard{}
	}
	if events == nil {
		events = eventbus.NopPublisher{}
	}
	return &OrderService{
		store:       store,
		stats:       stats,
		settings:    settings,
		guard:       guard,
		events:      events,
		orderNumber: randomOrderNumber,
	}
}

func randomOrderNumber() string {
	return fmt.Sprintf("ORD-%d", 10000+rand.Intn(90000))
}

// CreateOrder converts the buyer's active cart lines into an order. The
// order row, its items, the product status flips and the cart clear commit
// together. A clash on the order number retries the whole transaction.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uint, method models.PaymentMethod, delivery models.DeliveryInfo) (*models.Order, error) {
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order, err = s.createOnce(ctx, buyerID, method, delivery, st)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		log.Warn().Int("attempt", attempt).Msg("order number collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.OrderCreated, order)
	return order, nil
}

func (s *OrderService) createOnce(ctx context.Context, buyerID uint, method models.PaymentMethod, delivery models.DeliveryInfo, st models.Setting) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		lines, err := tx.Carts().Lines(ctx, buyerID)
		if err != nil {
			return err
		}
		active := lines[:0:0]
		for _, l := range lines {
			if l.Available() {
				active = append(active, l)
			}
		}
		if len(active) == 0 {
			return ErrEmptyCart
		}

		totals := ComputeTotals(active, st)
		order = &models.Order{
			ID:            uuid.New(),
			OrderNumber:   s.orderNumber(),
			BuyerID:       buyerID,
			Total:         totals.Total,
			ServiceFee:    totals.ServiceFee,
			Status:        models.OrderPending,
			PaymentStatus: models.PaymentPending,
			PaymentMethod: method,
			Delivery:      delivery,
		}
		for _, l := range active {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:       l.ProductID,
				Quantity:        l.Quantity,
				PriceAtPurchase: l.Price,
				Title:           l.Title,
				SellerID:        l.SellerID,
			})
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		for _, l := range active {
			ok, err := tx.Products().MarkSold(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrProductUnavailable
			}
		}

		_, err = tx.Carts().Clear(ctx, buyerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder moves a pending order to cancelled and puts its products back
// on sale.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		o, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !actor.owns(o.BuyerID) {
			return ErrNotOrderParty
		}
		if o.Status.Terminal() {
			return ErrAlreadyTerminal
		}
		if err := s.cancel(ctx, tx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventbus.OrderCancelled, order)
	return order, nil
}

// cancel restores every line item's product to active whatever its current
// status is. Products that were not sold are logged.
func (s *OrderService) cancel(ctx context.Context, tx repository.Store, o *models.Order) error {
	if err := tx.Orders().UpdateStatus(ctx, o.ID, models.OrderCancelled); err != nil {
		return err
	}
	for _, it := range o.Items {
		p, err := tx.Products().GetByID(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn().Str("order", o.OrderNumber).Uint("product_id", it.ProductID).Msg("cancelled order references a deleted product")
			continue
		}
		if err != nil {
			return err
		}
		if p.Status != models.ProductSold {
			log.Warn().
				Str("order", o.OrderNumber).
				Uint("product_id", p.ID).
				Str("status", string(p.Status)).
				Msg("restoring product that was not sold")
		}
		if err := tx.Products().SetStatus(ctx, p.ID, models.ProductActive); err != nil {
			return err
		}
	}
	o.Status = models.OrderCancelled
	return nil
}

// complete bumps each distinct seller's sales counter once.
func (s *OrderService) complete(ctx context.Context, tx repository.Store, o *models.Order) error {
	sellers, err := tx.Orders().SellerIDs(ctx, o.ID)
	if err != nil {
		return err
	}
	return tx.Users().IncrementTotalSales(ctx, sellers)
}

// UpdateOrderStatus is the admin transition. Terminal orders do not move.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	var order *models.Order
	var event string
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		o, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		order = o
		if o.Status == status {
			return nil
		}
		if o.Status.Terminal() {
			return ErrAlreadyTerminal
		}

		switch status {
		case models.OrderCancelled:
			event = eventbus.OrderCancelled
			return s.cancel(ctx, tx, o)
		case models.OrderCompleted:
			event = eventbus.OrderCompleted
			if err := s.complete(ctx, tx, o); err != nil {
				return err
			}
		}
		if err := tx.Orders().UpdateStatus(ctx, o.ID, status); err != nil {
			return err
		}
		o.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event != "" {
		s.publish(ctx, event, order)
	}
	return order, nil
}

// UpdatePaymentStatus records a payment. Paying a pending order completes it.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidPaymentStatus
	}

	var order *models.Order
	completed := false
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		o, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !actor.owns(o.BuyerID) {
			return ErrNotOrderParty
		}
		order = o
		if o.PaymentStatus == status {
			return nil
		}
		if o.PaymentStatus == models.PaymentPaid {
			return ErrAlreadyPaid
		}
		if o.Status == models.OrderCancelled {
			return ErrAlreadyTerminal
		}

		next := o.Status
		if o.Status == models.OrderPending {
			next = models.OrderCompleted
			if err := s.complete(ctx, tx, o); err != nil {
				return err
			}
			completed = true
		}
		if err := tx.Orders().UpdatePayment(ctx, o.ID, status, next); err != nil {
			return err
		}
		o.PaymentStatus, o.Status = status, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.publish(ctx, eventbus.OrderCompleted, order)
	}
	return order, nil
}

// ProcessCheckout simulates a payment gateway. Card and PayPal payments need
// a token; anything else is accepted as is.
func (s *OrderService) ProcessCheckout(ctx context.Context, actor Actor, orderID uuid.UUID, req CheckoutRequest) (*models.Order, error) {
	o, err := s.load(ctx, s.store, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID {
		return nil, ErrNotOrderParty
	}
	if o.PaymentStatus == models.PaymentPaid {
		return nil, ErrAlreadyPaid
	}
	if o.Status == models.OrderCancelled {
		return nil, ErrAlreadyTerminal
	}
	if (req.PaymentType == "card" || req.PaymentType == "paypal") && req.PaymentToken == "" {
		return nil, ErrPaymentFailed
	}

	acquired, err := s.guard.Acquire(ctx, orderID)
	if err != nil {
		log.Warn().Err(err).Str("order", o.OrderNumber).Msg("checkout guard unavailable")
	} else if !acquired {
		return nil, ErrAlreadyPaid
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		cur, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if cur.PaymentStatus == models.PaymentPaid {
			return ErrAlreadyPaid
		}
		if cur.Status != models.OrderCompleted {
			if err := s.complete(ctx, tx, cur); err != nil {
				return err
			}
		}
		if err := tx.Orders().UpdatePayment(ctx, cur.ID, models.PaymentPaid, models.OrderCompleted); err != nil {
			return err
		}
		cur.PaymentStatus, cur.Status = models.PaymentPaid, models.OrderCompleted
		o = cur
		return nil
	})
	if err != nil {
		if acquired {
			if rerr := s.guard.Release(ctx, orderID); rerr != nil {
				log.Warn().Err(rerr).Str("order", o.OrderNumber).Msg("failed to release checkout guard")
			}
		}
		return nil, err
	}

	log.Info().Str("order", o.OrderNumber).Str("payment_type", req.PaymentType).Msg("checkout processed")
	s.publish(ctx, eventbus.OrderCompleted, o)
	return o, nil
}

func (s *OrderService) GetUserOrders(ctx context.Context, buyerID uint, page, limit int) (models.Page[models.Order], error) {
	page, limit, _ = models.NormalizePage(page, limit, 100)
	return s.store.Orders().ListByBuyer(ctx, buyerID, page, limit)
}

// GetOrderByID is visible to the buyer, to sellers of any line item and to
// admins.
func (s *OrderService) GetOrderByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	o, err := s.load(ctx, s.store, orderID)
	if err != nil {
		return nil, err
	}
	if actor.owns(o.BuyerID) {
		return o, nil
	}
	for _, it := range o.Items {
		if it.SellerID == actor.UserID {
			return o, nil
		}
	}
	return nil, ErrNotOrderParty
}

func (s *OrderService) GetAllOrders(ctx context.Context, f models.OrderFilter) (models.Page[models.Order], error) {
	if f.Status != "" && !f.Status.Valid() {
		return models.Page[models.Order]{}, ErrInvalidOrderStatus
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return models.Page[models.Order]{}, ErrInvalidPaymentStatus
	}
	f.Page, f.Limit, _ = models.NormalizePage(f.Page, f.Limit, 100)
	return s.store.Orders().List(ctx, f)
}

func (s *OrderService) GetStats(ctx context.Context) (models.OrderStats, error) {
	return s.stats.OrderStats(ctx)
}

func (s *OrderService) GetMonthlySales(ctx context.Context, months int) ([]models.MonthlySales, error) {
	if months < 1 {
		months = 6
	}
	if months > 24 {
		months = 24
	}
	return s.stats.MonthlySales(ctx, months)
}

func (s *OrderService) load(ctx context.Context, store repository.Store, id uuid.UUID) (*models.Order, error) {
	o, err := store.Orders().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

type orderEvent struct {
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	BuyerID     uint               `json:"buyer_id"`
	Total       decimal.Decimal    `json:"total"`
	Status      models.OrderStatus `json:"status"`
	ProductIDs  []uint             `json:"product_ids"`
}

// publish is best effort: the order is already committed.
func (s *OrderService) publish(ctx context.Context, eventType string, o *models.Order) {
	payload := orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		BuyerID:     o.BuyerID,
		Total:       o.Total,
		Status:      o.Status,
	}
	for _, it := range o.Items {
		payload.ProductIDs = append(payload.ProductIDs, it.ProductID)
	}
	if err := s.events.Publish(ctx, eventbus.NewEvent(eventType, payload)); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("order", o.OrderNumber).Msg("failed to publish order event")
	}
}
