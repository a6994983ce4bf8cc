package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("userRepo.Create: %w", translate(err))
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, fmt.Errorf("userRepo.GetByID: %w", translate(err))
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", translate(err))
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context, page, limit int) (models.Page[models.User], error) {
	out := models.Page[models.User]{Page: page, Limit: limit}
	q := r.db.WithContext(ctx).Model(&models.User{})
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("userRepo.List count: %w", err)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset(page, limit)).Find(&out.Items).Error; err != nil {
		return out, fmt.Errorf("userRepo.List: %w", err)
	}
	return out, nil
}

func (r *userRepo) IncrementTotalSales(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ?", ids).
		UpdateColumn("total_sales", gorm.Expr("total_sales + 1")).Error
	if err != nil {
		return fmt.Errorf("userRepo.IncrementTotalSales: %w", err)
	}
	return nil
}

func (r *userRepo) UpdateRating(ctx context.Context, id uint, rating decimal.Decimal) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("rating", rating).Error
	if err != nil {
		return fmt.Errorf("userRepo.UpdateRating: %w", err)
	}
	return nil
}
