package handlers

import (
	"campus_marketplace/internal/service"
	"campus_marketplace/models"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type CreateReportRequest struct {
	Type   models.ReportType `json:"type"`
	ItemID uint              `json:"item_id"`
	Reason string            `json:"reason"`
}

type ReviewReportRequest struct {
	Status    models.ReportStatus `json:"status"`
	AdminNote string              `json:"admin_note"`
}

// CreateReport - POST /api/reports
func (h *ReportHandler) CreateReport(c *fiber.Ctx) error {
	var req CreateReportRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	r, err := h.reports.Create(c.UserContext(), actor(c).UserID, req.Type, req.ItemID, req.Reason)
	if err != nil {
		return err
	}
	return created(c, "Report submitted", r)
}

// ListReports - GET /api/admin/reports
func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	page, err := h.reports.List(c.UserContext(), models.ReportStatus(c.Query("status")), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return paged(c, "Reports retrieved", page)
}

// UpdateReport - PUT /api/admin/reports/:id
func (h *ReportHandler) UpdateReport(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req ReviewReportRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	r, err := h.reports.UpdateStatus(c.UserContext(), id, req.Status, req.AdminNote)
	if err != nil {
		return err
	}
	return ok(c, "Report updated", r)
}
