package service

import (
	"context"
	"errors"
	"strings"

	"campus_marketplace/internal/repository"
	"campus_marketplace/internal/settings"
	"campus_marketplace/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const relatedLimit = 4

var validConditions = map[string]bool{"": true, "new": true, "like_new": true, "good": true, "fair": true}

type ProductInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Condition   string          `json:"condition"`
	ImageURL    string          `json:"image_url"`
}

// ProductDetail is the single product view with its seller and a few
// related listings.
type ProductDetail struct {
	models.Product
	Seller  *models.UserSummary `json:"seller"`
	Related []models.Product    `json:"related"`
}

type ProductService struct {
	store    repository.Store
	settings settings.Provider
}

func NewProductService(store repository.Store, settings settings.Provider) *ProductService {
	return &ProductService{store: store, settings: settings}
}

func (s *ProductService) validate(ctx context.Context, in *ProductInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || !in.Price.IsPositive() {
		return ErrInvalidProduct
	}
	if !validConditions[in.Condition] {
		return ErrInvalidCondition
	}
	if in.Category != "" {
		ok, err := s.store.Categories().ExistsBySlug(ctx, in.Category)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownCategory
		}
	}
	return nil
}

// Create lists a product. It goes live immediately unless listings need
// admin approval.
func (s *ProductService) Create(ctx context.Context, sellerID uint, in ProductInput) (*models.Product, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    in.Category,
		Condition:   in.Condition,
		ImageURL:    in.ImageURL,
		Status:      models.ProductActive,
	}
	if st.RequireListingApproval {
		p.Status = models.ProductPending
	}
	if err := s.store.Products().Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get assembles the detail view. Seller and related lookups degrade to
// empty values instead of failing the request.
func (s *ProductService) Get(ctx context.Context, id uint) (*ProductDetail, error) {
	p, err := s.store.Products().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.Products().IncrementViews(ctx, id); err != nil {
		log.Warn().Err(err).Uint("product_id", id).Msg("failed to bump view counter")
	}

	detail := &ProductDetail{Product: *p, Related: []models.Product{}}
	if u, err := s.store.Users().GetByID(ctx, p.SellerID); err != nil {
		log.Warn().Err(err).Uint("seller_id", p.SellerID).Msg("seller lookup failed")
	} else {
		detail.Seller = &models.UserSummary{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
			ImageURL: u.ImageURL,
			Rating:   u.Rating,
		}
	}
	if related, err := s.store.Products().ListRelated(ctx, p, relatedLimit); err != nil {
		log.Warn().Err(err).Uint("product_id", id).Msg("related products lookup failed")
	} else {
		detail.Related = related
	}
	return detail, nil
}

// List serves the catalogue. Listings held back by moderation are only
// visible to admins.
func (s *ProductService) List(ctx context.Context, actor Actor, f models.ProductFilter) (models.Page[models.Product], error) {
	switch {
	case f.Status == "":
		f.Status = models.ProductActive
	case !f.Status.Valid():
		return models.Page[models.Product]{}, ErrInvalidProductStatus
	case f.Status != models.ProductActive && f.Status != models.ProductSold && !actor.IsAdmin():
		return models.Page[models.Product]{}, ErrModeratedListing
	}
	f.Page, f.Limit, _ = models.NormalizePage(f.Page, f.Limit, 100)
	return s.store.Products().List(ctx, f)
}

func (s *ProductService) Update(ctx context.Context, actor Actor, id uint, in ProductInput) (*models.Product, error) {
	p, err := s.owned(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.Category = in.Category
	p.Condition = in.Condition
	p.ImageURL = in.ImageURL
	if err := s.store.Products().Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-deletes the product and removes every cart row pointing at
// it. Order history keeps referencing the row.
func (s *ProductService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := s.owned(ctx, tx, actor, id); err != nil {
			return err
		}
		if _, err := tx.Carts().DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return tx.Products().Delete(ctx, id)
	})
}

// Review applies an admin moderation decision.
func (s *ProductService) Review(ctx context.Context, id uint, decision string) (*models.Product, error) {
	var status models.ProductStatus
	switch decision {
	case "approve":
		status = models.ProductActive
	case "reject":
		status = models.ProductRejected
	case "suspend":
		status = models.ProductSuspended
	default:
		return nil, ErrInvalidDecision
	}

	if err := s.store.Products().SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.store.Products().GetByID(ctx, id)
}

func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.Categories().List(ctx)
}

func (s *ProductService) owned(ctx context.Context, store repository.Store, actor Actor, id uint) (*models.Product, error) {
	p, err := store.Products().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.owns(p.SellerID) {
		return nil, ErrNotProductOwner
	}
	return p, nil
}
