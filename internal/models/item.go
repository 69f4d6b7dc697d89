package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item: directory entry carrying the current valuation rate used when
// inventory approval omits one.
type Item struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ItemCode      string          `gorm:"size:100;uniqueIndex;not null" json:"item_code"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	UOM           string          `gorm:"size:20;default:Kg" json:"uom"`
	ValuationRate decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"valuation_rate"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
