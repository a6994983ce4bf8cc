package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"gorm.io/gorm"
)

type reportRepo struct {
	db *gorm.DB
}

func (r *reportRepo) Create(ctx context.Context, rp *models.Report) error {
	if err := r.db.WithContext(ctx).Create(rp).Error; err != nil {
		return fmt.Errorf("reportRepo.Create: %w", translate(err))
	}
	return nil
}

func (r *reportRepo) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var rp models.Report
	if err := r.db.WithContext(ctx).First(&rp, id).Error; err != nil {
		return nil, fmt.Errorf("reportRepo.GetByID: %w", translate(err))
	}
	return &rp, nil
}

func (r *reportRepo) List(ctx context.Context, status models.ReportStatus, page, limit int) (models.Page[models.Report], error) {
	out := models.Page[models.Report]{Page: page, Limit: limit}
	q := r.db.WithContext(ctx).Model(&models.Report{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("reportRepo.List count: %w", err)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset(page, limit)).Find(&out.Items).Error; err != nil {
		return out, fmt.Errorf("reportRepo.List: %w", err)
	}
	return out, nil
}

func (r *reportRepo) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus, note string) error {
	res := r.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"admin_note": note,
	})
	if res.Error != nil {
		return fmt.Errorf("reportRepo.UpdateStatus: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reportRepo.UpdateStatus: %w", ErrNotFound)
	}
	return nil
}
