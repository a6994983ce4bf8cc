package service

import (
	"context"
	"errors"
	"fmt"

	"campus_marketplace/internal/repository"
	"campus_marketplace/internal/settings"
	"campus_marketplace/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CartService struct {
	store    repository.Store
	settings settings.Provider
}

func NewCartService(store repository.Store, settings settings.Provider) *CartService {
	return &CartService{store: store, settings: settings}
}

// ComputeTotals applies the fee rule to the active lines. Rounding to cents
// happens once, on the final figures.
func ComputeTotals(lines []models.CartLine, st models.Setting) models.CartTotals {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		if !l.Available() {
			continue
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		count += l.Quantity
	}

	fee := decimal.Zero
	if subtotal.IsPositive() {
		fee = decimal.Max(subtotal.Mul(st.CommissionRate), st.MinCommission)
	}

	return models.CartTotals{
		Subtotal:   subtotal.Round(2),
		ServiceFee: fee.Round(2),
		Total:      subtotal.Add(fee).Round(2),
		ItemCount:  count,
	}
}

// GetItems prunes rows whose product is no longer active and returns what
// is left.
func (s *CartService) GetItems(ctx context.Context, userID uint) ([]models.CartLine, error) {
	stale, err := s.ValidateItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		if _, err := s.RemoveUnavailableItems(ctx, userID); err != nil {
			return nil, err
		}
	}
	return s.store.Carts().Lines(ctx, userID)
}

// ValidateItems returns the cart rows whose product is not active. It does
// not modify the cart.
func (s *CartService) ValidateItems(ctx context.Context, userID uint) ([]models.CartLine, error) {
	lines, err := s.store.Carts().Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	stale := []models.CartLine{}
	for _, l := range lines {
		if !l.Available() {
			stale = append(stale, l)
		}
	}
	return stale, nil
}

func (s *CartService) RemoveUnavailableItems(ctx context.Context, userID uint) (int64, error) {
	stale, err := s.ValidateItems(ctx, userID)
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	ids := make([]uint, len(stale))
	for i, l := range stale {
		ids[i] = l.ItemID
	}
	n, err := s.store.Carts().DeleteItems(ctx, ids)
	if err != nil {
		return 0, err
	}
	log.Debug().Uint("user_id", userID).Int64("removed", n).Msg("pruned unavailable cart items")
	return n, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.store.Products().GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProductActive {
		return nil, ErrProductUnavailable
	}
	if p.SellerID == userID {
		return nil, ErrSelfPurchase
	}

	item, err := s.store.Carts().Upsert(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	if err := s.store.Products().IncrementInterested(ctx, productID); err != nil {
		log.Warn().Err(err).Uint("product_id", productID).Msg("failed to bump interested counter")
	}
	return item, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Carts().UpdateQuantity(ctx, itemID, quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes one cart row. Removing a row that is already gone is
// not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (bool, error) {
	_, err := s.ownedItem(ctx, userID, itemID)
	if errors.Is(err, ErrCartItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.store.Carts().Delete(ctx, itemID)
}

func (s *CartService) ClearCart(ctx context.Context, userID uint) (bool, error) {
	n, err := s.store.Carts().Clear(ctx, userID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CartService) CalculateTotals(ctx context.Context, userID uint) (models.CartTotals, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return models.CartTotals{}, err
	}
	lines, err := s.store.Carts().Lines(ctx, userID)
	if err != nil {
		return models.CartTotals{}, err
	}
	return ComputeTotals(lines, st), nil
}

// Count is the sum of quantities across the whole cart.
func (s *CartService) Count(ctx context.Context, userID uint) (int, error) {
	lines, err := s.store.Carts().Lines(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n, nil
}

func (s *CartService) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	lines, err := s.store.Carts().Lines(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, l := range lines {
		if l.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s *CartService) ownedItem(ctx context.Context, userID, itemID uint) (*models.CartItem, error) {
	item, err := s.store.Carts().GetItem(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart item %d: %w", itemID, err)
	}
	if item.UserID != userID {
		return nil, ErrNotCartOwner
	}
	return item, nil
}
