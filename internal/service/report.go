package service

import (
	"context"
	"errors"
	"strings"

	"campus_marketplace/internal/repository"
	"campus_marketplace/models"
)

type ReportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) *ReportService {
	return &ReportService{store: store}
}

func (s *ReportService) Create(ctx context.Context, reporterID uint, kind models.ReportType, itemID uint, reason string) (*models.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	switch kind {
	case models.ReportUser:
		if itemID == reporterID {
			return nil, ErrSelfReport
		}
		if _, err := s.store.Users().GetByID(ctx, itemID); err != nil {
			return nil, targetErr(err)
		}
	case models.ReportListing:
		p, err := s.store.Products().GetByID(ctx, itemID)
		if err != nil {
			return nil, targetErr(err)
		}
		if p.SellerID == reporterID {
			return nil, ErrSelfReport
		}
	default:
		return nil, ErrInvalidReportType
	}

	r := &models.Report{
		Type:       kind,
		ItemID:     itemID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     models.ReportPending,
	}
	if err := s.store.Reports().Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReported
		}
		return nil, err
	}
	return r, nil
}

func targetErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReportTargetMissing
	}
	return err
}

func (s *ReportService) List(ctx context.Context, status models.ReportStatus, page, limit int) (models.Page[models.Report], error) {
	if status != "" && !status.Valid() {
		return models.Page[models.Report]{}, ErrInvalidReportStatus
	}
	page, limit, _ = models.NormalizePage(page, limit, 100)
	return s.store.Reports().List(ctx, status, page, limit)
}

func (s *ReportService) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus, note string) (*models.Report, error) {
	if !status.Valid() {
		return nil, ErrInvalidReportStatus
	}
	if err := s.store.Reports().UpdateStatus(ctx, id, status, note); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return s.store.Reports().GetByID(ctx, id)
}
