package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"gorm.io/gorm"
)

type categoryRepo struct {
	db *gorm.DB
}

func (r *categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	list := []models.Category{}
	if err := r.db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("categoryRepo.List: %w", err)
	}
	return list, nil
}

func (r *categoryRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, fmt.Errorf("categoryRepo.ExistsBySlug: %w", err)
	}
	return n > 0, nil
}
