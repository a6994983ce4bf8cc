package service

import (
	"context"
	"errors"

	"campus_marketplace/internal/eventbus"
	"campus_marketplace/internal/repository"
	"campus_marketplace/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ReviewInput struct {
	SellerID  uint   `json:"seller_id"`
	ProductID *uint  `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type Eligibility struct {
	Eligible     bool `json:"eligible"`
	HasPurchased bool `json:"has_purchased"`
	HasReviewed  bool `json:"has_reviewed"`
}

// ReviewService keeps each seller's denormalised rating in step with their
// reviews. Every write recomputes the mean inside the same transaction.
type ReviewService struct {
	store  repository.Store
	events eventbus.Publisher
}

func NewReviewService(store repository.Store, events eventbus.Publisher) *ReviewService {
	if events == nil {
		events = eventbus.NopPublisher{}
	}
	return &ReviewService{store: store, events: events}
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}

func (s *ReviewService) Create(ctx context.Context, reviewerID uint, in ReviewInput) (*models.Review, error) {
	if !validRating(in.Rating) {
		return nil, ErrInvalidRating
	}
	if in.SellerID == reviewerID {
		return nil, ErrSelfReview
	}
	if _, err := s.store.Users().GetByID(ctx, in.SellerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}

	if in.ProductID != nil {
		p, err := s.store.Products().GetByID(ctx, *in.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}
		if p.SellerID != in.SellerID {
			return nil, ErrSellerMismatch
		}
		el, err := s.CheckEligibility(ctx, reviewerID, *in.ProductID)
		if err != nil {
			return nil, err
		}
		if !el.HasPurchased {
			return nil, ErrNotPurchased
		}
		if el.HasReviewed {
			return nil, ErrAlreadyReviewed
		}
	}

	rv := &models.Review{
		ReviewerID: reviewerID,
		ProductID:  in.ProductID,
		SellerID:   in.SellerID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Reviews().Create(ctx, rv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyReviewed
			}
			return err
		}
		return tx.Reviews().RecomputeSellerRating(ctx, rv.SellerID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "created", rv)
	return rv, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id uint, rating int, comment string) (*models.Review, error) {
	if !validRating(rating) {
		return nil, ErrInvalidRating
	}

	var rv *models.Review
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		rv, err = s.owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		rv.Rating = rating
		rv.Comment = comment
		if err := tx.Reviews().Update(ctx, rv); err != nil {
			return err
		}
		return tx.Reviews().RecomputeSellerRating(ctx, rv.SellerID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "updated", rv)
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	var rv *models.Review
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		rv, err = s.owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if err := tx.Reviews().Delete(ctx, id); err != nil {
			return err
		}
		return tx.Reviews().RecomputeSellerRating(ctx, rv.SellerID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, "deleted", rv)
	return nil
}

// GetSellerRatingStats reports every rating bucket from 1 to 5, zero when
// no review has that rating.
func (s *ReviewService) GetSellerRatingStats(ctx context.Context, sellerID uint) (models.RatingStats, error) {
	counts, err := s.store.Reviews().SellerRatingCounts(ctx, sellerID)
	if err != nil {
		return models.RatingStats{}, err
	}

	stats := models.RatingStats{Distribution: make(map[int]int, 5)}
	sum := 0
	for r := 1; r <= 5; r++ {
		stats.Distribution[r] = counts[r]
		stats.Total += int64(counts[r])
		sum += r * counts[r]
	}
	if stats.Total > 0 {
		stats.Average, _ = decimal.NewFromInt(int64(sum)).
			Div(decimal.NewFromInt(stats.Total)).
			Round(2).
			Float64()
	}
	return stats, nil
}

func (s *ReviewService) ListBySeller(ctx context.Context, sellerID uint, page, limit int) (models.Page[models.Review], error) {
	page, limit, _ = models.NormalizePage(page, limit, 100)
	return s.store.Reviews().ListBySeller(ctx, sellerID, page, limit)
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	return s.store.Reviews().ListByProduct(ctx, productID)
}

func (s *ReviewService) CheckEligibility(ctx context.Context, userID, productID uint) (Eligibility, error) {
	purchased, err := s.store.Orders().HasCompletedPurchase(ctx, userID, productID)
	if err != nil {
		return Eligibility{}, err
	}
	reviewed, err := s.store.Reviews().Exists(ctx, userID, productID)
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{
		Eligible:     purchased && !reviewed,
		HasPurchased: purchased,
		HasReviewed:  reviewed,
	}, nil
}

func (s *ReviewService) owned(ctx context.Context, tx repository.Store, actor Actor, id uint) (*models.Review, error) {
	rv, err := tx.Reviews().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.owns(rv.ReviewerID) {
		return nil, ErrNotReviewOwner
	}
	return rv, nil
}

type reviewEvent struct {
	Action   string `json:"action"`
	ReviewID uint   `json:"review_id"`
	SellerID uint   `json:"seller_id"`
	Rating   int    `json:"rating"`
}

func (s *ReviewService) publish(ctx context.Context, action string, rv *models.Review) {
	event := eventbus.NewEvent(eventbus.ReviewChanged, reviewEvent{
		Action:   action,
		ReviewID: rv.ID,
		SellerID: rv.SellerID,
		Rating:   rv.Rating,
	})
	if err := s.events.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Uint("review_id", rv.ID).Msg("failed to publish review event")
	}
}
