package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepo struct {
	db *gorm.DB
}

func (r *cartRepo) Lines(ctx context.Context, userID uint) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := r.db.WithContext(ctx).Table("cart_items ci").
		Select(`ci.id AS item_id, ci.product_id, ci.quantity, ci.added_at,
			p.title, p.price, p.image_url, p.status, p.seller_id,
			u.username AS seller_username, u.full_name AS seller_name`).
		Joins("JOIN products p ON p.id = ci.product_id").
		Joins("JOIN users u ON u.id = p.seller_id").
		Where("ci.user_id = ?", userID).
		Order("ci.added_at DESC, ci.id DESC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("cartRepo.Lines: %w", err)
	}
	return lines, nil
}

// Upsert merges the quantity in a single statement so that two concurrent
// adds of the same product cannot lose an increment.
func (r *cartRepo) Upsert(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	db := r.db.WithContext(ctx)
	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, fmt.Errorf("cartRepo.Upsert: %w", translate(err))
	}

	var merged models.CartItem
	if err := db.Where("user_id = ? AND product_id = ?", userID, productID).First(&merged).Error; err != nil {
		return nil, fmt.Errorf("cartRepo.Upsert reload: %w", translate(err))
	}
	return &merged, nil
}

func (r *cartRepo) GetItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, fmt.Errorf("cartRepo.GetItem: %w", translate(err))
	}
	return &item, nil
}

func (r *cartRepo) UpdateQuantity(ctx context.Context, id uint, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("cartRepo.UpdateQuantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cartRepo.UpdateQuantity: %w", ErrNotFound)
	}
	return nil
}

func (r *cartRepo) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("cartRepo.Delete: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *cartRepo) DeleteItems(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("cartRepo.DeleteItems: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *cartRepo) DeleteByProduct(ctx context.Context, productID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("cartRepo.DeleteByProduct: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *cartRepo) Clear(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("cartRepo.Clear: %w", res.Error)
	}
	return res.RowsAffected, nil
}
