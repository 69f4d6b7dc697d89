package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WarehouseBalance: derived running on-hand quantity and value per
// (item, warehouse). Equal to the sum of deltas from all Submitted,
// non-cancelled stock entries touching that pair; never authored directly.
type WarehouseBalance struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ItemCode      string `gorm:"size:100;not null;uniqueIndex:idx_balance_item_warehouse" json:"item_code"`
	WarehouseName string `gorm:"size:255;not null;uniqueIndex:idx_balance_item_warehouse" json:"warehouse_name"`

	OnHandQty  decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"on_hand_qty"`
	StockValue decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"stock_value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
