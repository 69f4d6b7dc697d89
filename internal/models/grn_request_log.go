package models

import "time"

// GRNRequestLog: transition trail for a GRN, one row per successful
// status change.
type GRNRequestLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GRNRequestID uint      `gorm:"index;not null" json:"grn_request_id"`
	Action       string    `gorm:"size:100;not null" json:"action"`
	StatusFrom   GRNStatus `gorm:"size:40" json:"status_from"`
	StatusTo     GRNStatus `gorm:"size:40" json:"status_to"`
	Reason       string    `gorm:"type:text" json:"reason"`
	CreatedBy    uint      `json:"created_by"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
