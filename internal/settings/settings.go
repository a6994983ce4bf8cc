// Package settings serves the marketplace configuration row (commission
// rate, minimum commission, listing approval) to the engines that need it.
package settings

import (
	"context"
	"errors"
	"fmt"

	"campus_marketplace/internal/apperr"
	"campus_marketplace/internal/repository"
	"campus_marketplace/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCommissionRate = apperr.New(apperr.InvalidInput, "invalid_commission_rate", "Commission rate must be between 0 and 1")
	ErrInvalidMinCommission  = apperr.New(apperr.InvalidInput, "invalid_min_commission", "Minimum commission cannot be negative")
)

type Provider interface {
	Get(ctx context.Context) (models.Setting, error)
	Update(ctx context.Context, patch Patch) (models.Setting, error)
	Invalidate(ctx context.Context) error
}

// Patch carries the fields an admin wants to change. Nil fields are kept.
type Patch struct {
	CommissionRate         *decimal.Decimal `json:"commission_rate"`
	MinCommission          *decimal.Decimal `json:"min_commission"`
	RequireListingApproval *bool            `json:"require_listing_approval"`
}

// Cache stores the current settings row. Load returns nil on a miss.
type Cache interface {
	Load(ctx context.Context) (*models.Setting, error)
	Store(ctx context.Context, s models.Setting) error
	Delete(ctx context.Context) error
}

type Service struct {
	repo  repository.SettingRepository
	cache Cache
}

// NewService returns a Provider reading from repo. cache may be nil.
func NewService(repo repository.SettingRepository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) Get(ctx context.Context) (models.Setting, error) {
	if s.cache != nil {
		cached, err := s.cache.Load(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("settings cache read failed, using database")
		} else if cached != nil {
			return *cached, nil
		}
	}

	current, err := s.load(ctx)
	if err != nil {
		return models.Setting{}, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, current); err != nil {
			log.Warn().Err(err).Msg("settings cache write failed")
		}
	}
	return current, nil
}

func (s *Service) load(ctx context.Context) (models.Setting, error) {
	row, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultSetting(), nil
	}
	if err != nil {
		return models.Setting{}, fmt.Errorf("settings.load: %w", err)
	}
	return *row, nil
}

func (s *Service) Update(ctx context.Context, patch Patch) (models.Setting, error) {
	if r := patch.CommissionRate; r != nil && (r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1))) {
		return models.Setting{}, ErrInvalidCommissionRate
	}
	if m := patch.MinCommission; m != nil && m.IsNegative() {
		return models.Setting{}, ErrInvalidMinCommission
	}

	current, err := s.load(ctx)
	if err != nil {
		return models.Setting{}, err
	}
	if patch.CommissionRate != nil {
		current.CommissionRate = *patch.CommissionRate
	}
	if patch.MinCommission != nil {
		current.MinCommission = *patch.MinCommission
	}
	if patch.RequireListingApproval != nil {
		current.RequireListingApproval = *patch.RequireListingApproval
	}

	if err := s.repo.Save(ctx, &current); err != nil {
		return models.Setting{}, fmt.Errorf("settings.Update: %w", err)
	}
	if err := s.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("settings cache invalidation failed")
	}
	return current, nil
}

func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx)
}
