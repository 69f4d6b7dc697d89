package models

import "time"

// Warehouse: read-only directory of valid storage destinations.
type Warehouse struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WarehouseCode string    `gorm:"size:50;uniqueIndex;not null" json:"warehouse_code"`
	WarehouseName string    `gorm:"size:255;uniqueIndex;not null" json:"warehouse_name"`
	WarehouseType string    `gorm:"size:50" json:"warehouse_type"`
	Location      string    `gorm:"size:255" json:"location"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
