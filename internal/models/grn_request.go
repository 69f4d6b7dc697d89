package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GRNStatus string

const (
	GRNStatusPending                   GRNStatus = "pending"
	GRNStatusInspecting                GRNStatus = "inspecting"
	GRNStatusAwaitingInventoryApproval GRNStatus = "awaiting_inventory_approval"
	GRNStatusApproved                  GRNStatus = "approved"
	GRNStatusRejected                  GRNStatus = "rejected"
	GRNStatusSentBack                  GRNStatus = "sent_back"
)

// Terminal statuses never transition again.
func (s GRNStatus) Terminal() bool {
	return s == GRNStatusApproved || s == GRNStatusRejected
}

type QCStatus string

const (
	QCStatusPass   QCStatus = "pass"
	QCStatusFail   QCStatus = "fail"
	QCStatusRework QCStatus = "rework"
)

func (s QCStatus) Valid() bool {
	return s == QCStatusPass || s == QCStatusFail || s == QCStatusRework
}

// GRNRequest: goods receipt logged against a purchase order, waiting to be
// inspected by QC and stored by inventory.
type GRNRequest struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	GRNNo           string    `gorm:"size:100;uniqueIndex;not null" json:"grn_no"`
	PONo            string    `gorm:"size:100;index" json:"po_no"`
	SupplierID      string    `gorm:"size:100" json:"supplier_id"`
	SupplierName    string    `gorm:"size:255" json:"supplier_name"`
	ReceiptDate     time.Time `gorm:"index" json:"receipt_date"`
	Status          GRNStatus `gorm:"size:40;not null;index;default:pending" json:"status"`
	RejectionReason *string   `gorm:"type:text" json:"rejection_reason"`
	Notes           string    `gorm:"type:text" json:"notes"`

	TotalAccepted decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"total_accepted"`
	TotalRejected decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"total_rejected"`

	CreatedBy    uint       `gorm:"index" json:"created_by"`
	ApprovedBy   *uint      `json:"approved_by"`
	ApprovalDate *time.Time `json:"approval_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Items []GRNLineItem   `gorm:"foreignKey:GRNRequestID;constraint:OnDelete:CASCADE" json:"items"`
	Logs  []GRNRequestLog `gorm:"foreignKey:GRNRequestID;constraint:OnDelete:CASCADE" json:"logs,omitempty"`
}

// GRNLineItem: one received item line. AcceptedQty + RejectedQty + ScrapQty
// may never exceed ReceivedQty, and must equal it before the GRN can leave
// inspection.
type GRNLineItem struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	GRNRequestID uint   `gorm:"index;not null" json:"grn_request_id"`
	ItemCode     string `gorm:"size:100;index;not null" json:"item_code"`
	ItemName     string `gorm:"size:255" json:"item_name"`

	ReceivedQty decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"received_qty"`
	AcceptedQty decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"accepted_qty"`
	RejectedQty decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"rejected_qty"`
	ScrapQty    decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"scrap_qty"`

	QCStatus      QCStatus        `gorm:"size:20" json:"qc_status"`
	WarehouseName string          `gorm:"size:255" json:"warehouse_name"`
	BinRack       string          `gorm:"size:100" json:"bin_rack"`
	BatchNo       string          `gorm:"size:100" json:"batch_no"`
	ValuationRate decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"valuation_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
