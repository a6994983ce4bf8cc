package models

import "time"

type ReportType string

const (
	ReportUser    ReportType = "User"
	ReportListing ReportType = "Listing"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	return s == ReportPending || s == ReportResolved || s == ReportDismissed
}

type Report struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Type       ReportType   `gorm:"size:20;not null;uniqueIndex:idx_report_unique" json:"type"`
	ItemID     uint         `gorm:"not null;uniqueIndex:idx_report_unique" json:"item_id"`
	ReporterID uint         `gorm:"not null;uniqueIndex:idx_report_unique" json:"reporter_id"`
	Reason     string       `gorm:"type:text;not null" json:"reason"`
	Status     ReportStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNote  string       `gorm:"type:text" json:"admin_note"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
