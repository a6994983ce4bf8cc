package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("orderRepo.Create: %w", translate(err))
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Preload("Items.Product").First(&o, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("orderRepo.GetByID: %w", translate(err))
	}
	fillItemProjection(&o)
	return &o, nil
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID uint, page, limit int) (models.Page[models.Order], error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("buyer_id = ?", buyerID)
	return r.page(q, page, limit)
}

func (r *orderRepo) List(ctx context.Context, f models.OrderFilter) (models.Page[models.Order], error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	return r.page(q, f.Page, f.Limit)
}

func (r *orderRepo) page(q *gorm.DB, page, limit int) (models.Page[models.Order], error) {
	out := models.Page[models.Order]{Page: page, Limit: limit}
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("orderRepo.page count: %w", err)
	}
	err := q.Preload("Items.Product").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset(page, limit)).
		Find(&out.Items).Error
	if err != nil {
		return out, fmt.Errorf("orderRepo.page: %w", err)
	}
	for i := range out.Items {
		fillItemProjection(&out.Items[i])
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("orderRepo.UpdateStatus: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("orderRepo.UpdateStatus: %w", ErrNotFound)
	}
	return nil
}

func (r *orderRepo) UpdatePayment(ctx context.Context, id uuid.UUID, payment models.PaymentStatus, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"payment_status": payment,
		"status":         status,
	})
	if res.Error != nil {
		return fmt.Errorf("orderRepo.UpdatePayment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("orderRepo.UpdatePayment: %w", ErrNotFound)
	}
	return nil
}

func (r *orderRepo) SellerIDs(ctx context.Context, id uuid.UUID) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Table("order_items oi").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id = ?", id).
		Distinct().
		Pluck("p.seller_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("orderRepo.SellerIDs: %w", err)
	}
	return ids, nil
}

func (r *orderRepo) HasCompletedPurchase(ctx context.Context, buyerID, productID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("orders o").
		Joins("JOIN order_items oi ON oi.order_id = o.id").
		Where("o.buyer_id = ? AND oi.product_id = ? AND o.status = ?", buyerID, productID, models.OrderCompleted).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("orderRepo.HasCompletedPurchase: %w", err)
	}
	return n > 0, nil
}

func fillItemProjection(o *models.Order) {
	for i := range o.Items {
		if p := o.Items[i].Product; p != nil {
			o.Items[i].Title = p.Title
			o.Items[i].SellerID = p.SellerID
		}
	}
}
