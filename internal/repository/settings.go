package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"gorm.io/gorm"
)

type settingRepo struct {
	db *gorm.DB
}

func (r *settingRepo) Get(ctx context.Context) (*models.Setting, error) {
	var s models.Setting
	if err := r.db.WithContext(ctx).Order("id").First(&s).Error; err != nil {
		return nil, fmt.Errorf("settingRepo.Get: %w", translate(err))
	}
	return &s, nil
}

func (r *settingRepo) Save(ctx context.Context, s *models.Setting) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("settingRepo.Save: %w", err)
	}
	return nil
}
