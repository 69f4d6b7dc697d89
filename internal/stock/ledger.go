package stock

import (
	"erp-backend/internal/apperr"
	"erp-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entryDirections: warehouse quantity effect per entry type. Inbound adds
// to the destination, outbound subtracts from the source; a transfer does
// both.
func entryDirections(t models.StockEntryType) (inbound, outbound bool) {
	switch t {
	case models.EntryTypeMaterialReceipt, models.EntryTypeMaterialReturn, models.EntryTypeRepack:
		return true, false
	case models.EntryTypeMaterialIssue, models.EntryTypeScrap:
		return false, true
	case models.EntryTypeMaterialTransfer:
		return true, true
	}
	return false, false
}

// applyBalanceDelta upserts one (item, warehouse) balance row, adding the
// quantity and value deltas in place. The additive form is what lets a
// cancellation reverse a submission exactly.
func applyBalanceDelta(tx *gorm.DB, itemCode, warehouse string, qty, value decimal.Decimal) error {
	row := models.WarehouseBalance{
		ItemCode:      itemCode,
		WarehouseName: warehouse,
		OnHandQty:     qty,
		StockValue:    value,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_code"}, {Name: "warehouse_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"on_hand_qty": gorm.Expr("on_hand_qty + ?", qty),
			"stock_value": gorm.Expr("stock_value + ?", value),
		}),
	}).Create(&row).Error
}

// applyEntryDelta posts the whole entry's balance effect. sign is +1 at
// submission and -1 at cancellation (the exact additive inverse).
func applyEntryDelta(tx *gorm.DB, e *models.StockEntry, sign int64) error {
	inbound, outbound := entryDirections(e.EntryType)
	mult := decimal.NewFromInt(sign)

	for _, li := range e.Items {
		qty := li.Qty.Mul(mult)
		value := li.Qty.Mul(li.ValuationRate).Mul(mult)

		if inbound {
			wh := li.WarehouseName
			if wh == "" && e.ToWarehouse != nil {
				wh = *e.ToWarehouse
			}
			if wh == "" {
				return apperr.Validation("Entry %s: no destination warehouse for item %s", e.EntryNo, li.ItemCode)
			}
			if err := applyBalanceDelta(tx, li.ItemCode, wh, qty, value); err != nil {
				return apperr.Persistence("update warehouse balance", err)
			}
		}
		if outbound {
			if e.FromWarehouse == nil || *e.FromWarehouse == "" {
				return apperr.Validation("Entry %s: no source warehouse for item %s", e.EntryNo, li.ItemCode)
			}
			if err := applyBalanceDelta(tx, li.ItemCode, *e.FromWarehouse, qty.Neg(), value.Neg()); err != nil {
				return apperr.Persistence("update warehouse balance", err)
			}
		}
	}
	return nil
}
