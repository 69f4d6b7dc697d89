package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockEntryType string

const (
	EntryTypeMaterialReceipt  StockEntryType = "Material Receipt"
	EntryTypeMaterialIssue    StockEntryType = "Material Issue"
	EntryTypeMaterialTransfer StockEntryType = "Material Transfer"
	EntryTypeMaterialReturn   StockEntryType = "Material Return"
	EntryTypeRepack           StockEntryType = "Repack"
	EntryTypeScrap            StockEntryType = "Scrap"
)

func (t StockEntryType) Valid() bool {
	switch t {
	case EntryTypeMaterialReceipt, EntryTypeMaterialIssue, EntryTypeMaterialTransfer,
		EntryTypeMaterialReturn, EntryTypeRepack, EntryTypeScrap:
		return true
	}
	return false
}

type StockEntryStatus string

const (
	EntryStatusDraft     StockEntryStatus = "Draft"
	EntryStatusSubmitted StockEntryStatus = "Submitted"
	EntryStatusCancelled StockEntryStatus = "Cancelled"
)

// StockEntry: atomic warehouse movement. Draft has no balance effect;
// Submitted applies the delta and freezes line items; Cancelled reverses
// the exact delta applied at submission.
//
// The unique index on (reference_doctype, reference_name) is what makes
// GRN posting idempotent even under concurrent approvals.
type StockEntry struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	EntryNo   string           `gorm:"size:100;uniqueIndex;not null" json:"entry_no"`
	EntryDate time.Time        `gorm:"index;not null" json:"entry_date"`
	EntryType StockEntryType   `gorm:"size:40;not null;index" json:"entry_type"`
	Status    StockEntryStatus `gorm:"size:20;not null;index;default:Draft" json:"status"`

	FromWarehouse *string `gorm:"size:255" json:"from_warehouse"`
	ToWarehouse   *string `gorm:"size:255" json:"to_warehouse"`

	Purpose          string  `gorm:"size:255" json:"purpose"`
	ReferenceDoctype *string `gorm:"size:100;uniqueIndex:idx_stock_entries_reference" json:"reference_doctype"`
	ReferenceName    *string `gorm:"size:100;uniqueIndex:idx_stock_entries_reference" json:"reference_name"`
	Remarks          string  `gorm:"type:text" json:"remarks"`

	TotalQty   decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"total_qty"`
	TotalValue decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"total_value"`

	CreatedBy   uint       `gorm:"index" json:"created_by"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []StockEntryLineItem `gorm:"foreignKey:StockEntryID;constraint:OnDelete:CASCADE" json:"items"`
}

// StockEntryLineItem: one moved item. WarehouseName optionally overrides the
// header destination so a single receipt can span warehouses (GRN lines keep
// their own storage assignment).
type StockEntryLineItem struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	StockEntryID uint   `gorm:"index;not null" json:"stock_entry_id"`
	ItemCode     string `gorm:"size:100;index;not null" json:"item_code"`

	Qty           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"qty"`
	UOM           string          `gorm:"size:20;default:Kg" json:"uom"`
	ValuationRate decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"valuation_rate"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"amount"`

	BatchNo       string `gorm:"size:100" json:"batch_no"`
	WarehouseName string `gorm:"size:255" json:"warehouse_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
