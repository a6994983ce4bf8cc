package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type reviewRepo struct {
	db *gorm.DB
}

func (r *reviewRepo) Create(ctx context.Context, rv *models.Review) error {
	if err := r.db.WithContext(ctx).Create(rv).Error; err != nil {
		return fmt.Errorf("reviewRepo.Create: %w", translate(err))
	}
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var rv models.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, fmt.Errorf("reviewRepo.GetByID: %w", translate(err))
	}
	return &rv, nil
}

func (r *reviewRepo) Update(ctx context.Context, rv *models.Review) error {
	res := r.db.WithContext(ctx).Model(rv).Select("rating", "comment").Updates(rv)
	if res.Error != nil {
		return fmt.Errorf("reviewRepo.Update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reviewRepo.Update: %w", ErrNotFound)
	}
	return nil
}

func (r *reviewRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return fmt.Errorf("reviewRepo.Delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reviewRepo.Delete: %w", ErrNotFound)
	}
	return nil
}

func (r *reviewRepo) Exists(ctx context.Context, reviewerID, productID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("reviewer_id = ? AND product_id = ?", reviewerID, productID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("reviewRepo.Exists: %w", err)
	}
	return n > 0, nil
}

func (r *reviewRepo) withReviewer(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Review{}).
		Select("reviews.*, users.username AS reviewer_name").
		Joins("JOIN users ON users.id = reviews.reviewer_id")
}

func (r *reviewRepo) ListBySeller(ctx context.Context, sellerID uint, page, limit int) (models.Page[models.Review], error) {
	out := models.Page[models.Review]{Page: page, Limit: limit}
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("seller_id = ?", sellerID).Count(&out.Total).Error
	if err != nil {
		return out, fmt.Errorf("reviewRepo.ListBySeller count: %w", err)
	}
	err = r.withReviewer(ctx).
		Where("reviews.seller_id = ?", sellerID).
		Order("reviews.created_at DESC").
		Limit(limit).
		Offset(offset(page, limit)).
		Scan(&out.Items).Error
	if err != nil {
		return out, fmt.Errorf("reviewRepo.ListBySeller: %w", err)
	}
	return out, nil
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	list := []models.Review{}
	err := r.withReviewer(ctx).
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC").
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("reviewRepo.ListByProduct: %w", err)
	}
	return list, nil
}

func (r *reviewRepo) SellerRatingCounts(ctx context.Context, sellerID uint) (map[int]int, error) {
	var rows []struct {
		Rating int
		Count  int
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("seller_id = ?", sellerID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reviewRepo.SellerRatingCounts: %w", err)
	}
	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}

func (r *reviewRepo) RecomputeSellerRating(ctx context.Context, sellerID uint) error {
	var avg decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(ROUND(AVG(rating)::numeric, 2), 0)").
		Where("seller_id = ?", sellerID).
		Row().Scan(&avg)
	if err != nil {
		return fmt.Errorf("reviewRepo.RecomputeSellerRating avg: %w", err)
	}
	err = r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", sellerID).
		UpdateColumn("rating", avg).Error
	if err != nil {
		return fmt.Errorf("reviewRepo.RecomputeSellerRating update: %w", err)
	}
	return nil
}
