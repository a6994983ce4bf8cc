package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"gorm.io/gorm"
)

type productRepo struct {
	db *gorm.DB
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("productRepo.Create: %w", translate(err))
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("productRepo.GetByID: %w", translate(err))
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, f models.ProductFilter) (models.Page[models.Product], error) {
	out := models.Page[models.Product]{Page: f.Page, Limit: f.Limit}

	q := r.db.WithContext(ctx).Model(&models.Product{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.SellerID != 0 {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if f.Search != "" {
		q = q.Where("title ILIKE ?", "%"+f.Search+"%")
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("productRepo.List count: %w", err)
	}
	err := q.Order("created_at DESC").
		Limit(f.Limit).
		Offset(offset(f.Page, f.Limit)).
		Find(&out.Items).Error
	if err != nil {
		return out, fmt.Errorf("productRepo.List: %w", err)
	}
	return out, nil
}

func (r *productRepo) ListRelated(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	var list []models.Product
	err := r.db.WithContext(ctx).
		Where("category = ? AND id <> ? AND status = ?", p.Category, p.ID, models.ProductActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("productRepo.ListRelated: %w", err)
	}
	return list, nil
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).Model(p).
		Select("title", "description", "price", "category", "condition", "image_url", "status").
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("productRepo.Update: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("productRepo.Update: %w", ErrNotFound)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("productRepo.Delete: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("productRepo.Delete: %w", ErrNotFound)
	}
	return nil
}

func (r *productRepo) SetStatus(ctx context.Context, id uint, status models.ProductStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("productRepo.SetStatus: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("productRepo.SetStatus: %w", ErrNotFound)
	}
	return nil
}

func (r *productRepo) MarkSold(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND status = ?", id, models.ProductActive).
		Update("status", models.ProductSold)
	if res.Error != nil {
		return false, fmt.Errorf("productRepo.MarkSold: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) IncrementViews(ctx context.Context, id uint) error {
	return r.bump(ctx, id, "views")
}

func (r *productRepo) IncrementInterested(ctx context.Context, id uint) error {
	return r.bump(ctx, id, "interested")
}

func (r *productRepo) bump(ctx context.Context, id uint, column string) error {
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return fmt.Errorf("productRepo.bump %s: %w", column, err)
	}
	return nil
}
