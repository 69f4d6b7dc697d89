package stock

import (
	"errors"
	"fmt"
	"time"

	"erp-backend/internal/apperr"
	"erp-backend/internal/database"
	"erp-backend/internal/logger"
	"erp-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var log = logger.WithModule("stock")

type EntryLineInput struct {
	ItemCode      string          `json:"item_code" validate:"required"`
	Qty           decimal.Decimal `json:"qty"`
	UOM           string          `json:"uom"`
	ValuationRate decimal.Decimal `json:"valuation_rate"`
	BatchNo       string          `json:"batch_no"`
	WarehouseName string          `json:"warehouse_name"`
}

type CreateEntryInput struct {
	EntryDate        string           `json:"entry_date" validate:"required"`
	EntryType        string           `json:"entry_type" validate:"required"`
	FromWarehouse    *string          `json:"from_warehouse"`
	ToWarehouse      *string          `json:"to_warehouse"`
	Purpose          string           `json:"purpose"`
	ReferenceDoctype *string          `json:"reference_doctype"`
	ReferenceName    *string          `json:"reference_name"`
	Remarks          string           `json:"remarks"`
	Items            []EntryLineInput `json:"items" validate:"required,min=1,dive"`
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FindEntry loads an entry with its lines, by numeric id or entry number.
func FindEntry(db *gorm.DB, ref string) (*models.StockEntry, error) {
	var e models.StockEntry
	q := db.Preload("Items")
	var err error
	if isNumeric(ref) {
		err = q.First(&e, "id = ?", ref).Error
	} else {
		err = q.First(&e, "entry_no = ?", ref).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Stock entry %s not found", ref)
	}
	if err != nil {
		return nil, apperr.Persistence("fetch stock entry", err)
	}
	return &e, nil
}

// FindEntryByReference returns the entry posted for a source document, or
// nil when none exists yet.
func FindEntryByReference(db *gorm.DB, doctype, name string) (*models.StockEntry, error) {
	var e models.StockEntry
	err := db.Preload("Items").
		Where("reference_doctype = ? AND reference_name = ?", doctype, name).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("fetch stock entry by reference", err)
	}
	return &e, nil
}

func validateWarehouses(e *models.StockEntry) error {
	inbound, outbound := entryDirections(e.EntryType)
	if inbound && (e.ToWarehouse == nil || *e.ToWarehouse == "") {
		// per-line destinations are enough for a receipt
		for _, li := range e.Items {
			if li.WarehouseName == "" {
				return apperr.Validation("Destination warehouse required for %s", e.EntryType)
			}
		}
	}
	if outbound && (e.FromWarehouse == nil || *e.FromWarehouse == "") {
		return apperr.Validation("Source warehouse required for %s", e.EntryType)
	}
	return nil
}

// CreateEntry records a Draft entry. No balance effect yet.
func CreateEntry(input CreateEntryInput, userID uint) (*models.StockEntry, error) {
	entryType := models.StockEntryType(input.EntryType)
	if !entryType.Valid() {
		return nil, apperr.Validation("Unknown entry type %q", input.EntryType)
	}

	entryDate, err := time.Parse("2006-01-02", input.EntryDate)
	if err != nil {
		return nil, apperr.Validation("entry_date must be 'YYYY-MM-DD'")
	}

	entry := &models.StockEntry{
		EntryDate:        entryDate,
		EntryType:        entryType,
		Status:           models.EntryStatusDraft,
		FromWarehouse:    input.FromWarehouse,
		ToWarehouse:      input.ToWarehouse,
		Purpose:          input.Purpose,
		ReferenceDoctype: input.ReferenceDoctype,
		ReferenceName:    input.ReferenceName,
		Remarks:          input.Remarks,
		CreatedBy:        userID,
	}

	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, li := range input.Items {
		if li.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, apperr.Validation("Item %s: qty must be greater than 0", li.ItemCode)
		}
		if li.ValuationRate.IsNegative() {
			return nil, apperr.Validation("Item %s: valuation_rate cannot be negative", li.ItemCode)
		}
		uom := li.UOM
		if uom == "" {
			uom = "Kg"
		}
		amount := li.Qty.Mul(li.ValuationRate)
		totalQty = totalQty.Add(li.Qty)
		totalValue = totalValue.Add(amount)
		entry.Items = append(entry.Items, models.StockEntryLineItem{
			ItemCode:      li.ItemCode,
			Qty:           li.Qty,
			UOM:           uom,
			ValuationRate: li.ValuationRate,
			Amount:        amount,
			BatchNo:       li.BatchNo,
			WarehouseName: li.WarehouseName,
		})
	}
	entry.TotalQty = totalQty
	entry.TotalValue = totalValue

	if err := validateWarehouses(entry); err != nil {
		return nil, err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for _, li := range input.Items {
			var item models.Item
			if err := tx.Where("item_code = ?", li.ItemCode).First(&item).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation("Item not found with code: %s", li.ItemCode)
				}
				return apperr.Persistence("look up item", err)
			}
		}

		entryNo, err := GenerateEntryNo(tx, entryType)
		if err != nil {
			return apperr.Persistence("generate entry number", err)
		}
		entry.EntryNo = entryNo

		if err := tx.Create(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.StateConflict("A stock entry already exists for %s %s",
					derefOr(input.ReferenceDoctype, "reference"), derefOr(input.ReferenceName, ""))
			}
			return apperr.Persistence("create stock entry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"entry_no":   entry.EntryNo,
		"entry_type": entry.EntryType,
	}).Info("stock entry created")

	return entry, nil
}

// SubmitEntry applies the balance delta and freezes the entry. Only Draft
// entries can be submitted; a concurrent losing submit fails fast.
func SubmitEntry(ref string, userID uint) (*models.StockEntry, error) {
	var entry *models.StockEntry
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		e, err := FindEntry(tx, ref)
		if err != nil {
			return err
		}
		s, err := submitInTx(tx, e, userID)
		if err != nil {
			return err
		}
		entry = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// submitInTx is the submit path shared with the GRN poster, which runs it
// inside the approval transaction.
func submitInTx(tx *gorm.DB, e *models.StockEntry, userID uint) (*models.StockEntry, error) {
	if e.Status != models.EntryStatusDraft {
		return nil, apperr.StateConflict("Stock entry %s is %s, only Draft entries can be submitted", e.EntryNo, e.Status)
	}
	for _, li := range e.Items {
		if li.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, apperr.Validation("Item %s: qty must be greater than 0", li.ItemCode)
		}
	}
	if err := validateWarehouses(e); err != nil {
		return nil, err
	}

	if err := applyEntryDelta(tx, e, 1); err != nil {
		return nil, err
	}

	now := time.Now()
	res := tx.Model(&models.StockEntry{}).
		Where("id = ? AND status = ?", e.ID, models.EntryStatusDraft).
		Updates(map[string]interface{}{
			"status":       models.EntryStatusSubmitted,
			"submitted_at": now,
		})
	if res.Error != nil {
		return nil, apperr.Persistence(fmt.Sprintf("submit stock entry %s", e.EntryNo), res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.StateConflict("Stock entry %s was modified concurrently", e.EntryNo)
	}

	e.Status = models.EntryStatusSubmitted
	e.SubmittedAt = &now

	log.WithFields(map[string]interface{}{
		"entry_no":   e.EntryNo,
		"entry_type": e.EntryType,
		"total_qty":  e.TotalQty,
	}).Info("stock entry submitted")

	return e, nil
}

// CancelEntry reverses the exact delta applied at submission and retains
// the record for audit. Only Submitted entries can be cancelled.
func CancelEntry(ref string, userID uint) (*models.StockEntry, error) {
	var entry *models.StockEntry
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		e, err := FindEntry(tx, ref)
		if err != nil {
			return err
		}
		if e.Status != models.EntryStatusSubmitted {
			return apperr.StateConflict("Stock entry %s is %s, only Submitted entries can be cancelled", e.EntryNo, e.Status)
		}

		if err := applyEntryDelta(tx, e, -1); err != nil {
			return err
		}

		res := tx.Model(&models.StockEntry{}).
			Where("id = ? AND status = ?", e.ID, models.EntryStatusSubmitted).
			Update("status", models.EntryStatusCancelled)
		if res.Error != nil {
			return apperr.Persistence(fmt.Sprintf("cancel stock entry %s", e.EntryNo), res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.StateConflict("Stock entry %s was modified concurrently", e.EntryNo)
		}

		e.Status = models.EntryStatusCancelled
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("entry_no", entry.EntryNo).Info("stock entry cancelled")
	return entry, nil
}

// DeleteEntry removes a Draft entry and its lines. Anything past Draft has
// (or had) a ledger effect and must be cancelled instead.
func DeleteEntry(ref string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		e, err := FindEntry(tx, ref)
		if err != nil {
			return err
		}
		if e.Status != models.EntryStatusDraft {
			return apperr.StateConflict("Stock entry %s is %s, only Draft entries can be deleted", e.EntryNo, e.Status)
		}

		if err := tx.Where("stock_entry_id = ?", e.ID).Delete(&models.StockEntryLineItem{}).Error; err != nil {
			return apperr.Persistence("delete stock entry items", err)
		}
		res := tx.Where("id = ? AND status = ?", e.ID, models.EntryStatusDraft).Delete(&models.StockEntry{})
		if res.Error != nil {
			return apperr.Persistence(fmt.Sprintf("delete stock entry %s", e.EntryNo), res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.StateConflict("Stock entry %s was modified concurrently", e.EntryNo)
		}
		return nil
	})
}

// UpdateEntry edits the free-text fields of a Draft entry. Submitted
// entries are frozen.
func UpdateEntry(ref, purpose, remarks string) (*models.StockEntry, error) {
	var entry *models.StockEntry
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		e, err := FindEntry(tx, ref)
		if err != nil {
			return err
		}
		res := tx.Model(&models.StockEntry{}).
			Where("id = ? AND status = ?", e.ID, models.EntryStatusDraft).
			Updates(map[string]interface{}{"purpose": purpose, "remarks": remarks})
		if res.Error != nil {
			return apperr.Persistence(fmt.Sprintf("update stock entry %s", e.EntryNo), res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.StateConflict("Stock entry %s is %s and frozen", e.EntryNo, e.Status)
		}
		e.Purpose = purpose
		e.Remarks = remarks
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PostGRNReceipt converts an approved GRN's accepted lines into one
// Material Receipt, submitted in the same transaction. Idempotent: an
// existing entry for the GRN is returned unchanged, and the unique index
// on (reference_doctype, reference_name) closes the concurrent window.
func PostGRNReceipt(tx *gorm.DB, g *models.GRNRequest, userID uint) (*models.StockEntry, error) {
	doctype := "GRN"
	existing, err := FindEntryByReference(tx, doctype, g.GRNNo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var lines []models.StockEntryLineItem
	totalQty := decimal.Zero
	totalValue := decimal.Zero
	var toWarehouse *string
	for _, li := range g.Items {
		if li.AcceptedQty.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount := li.AcceptedQty.Mul(li.ValuationRate)
		totalQty = totalQty.Add(li.AcceptedQty)
		totalValue = totalValue.Add(amount)
		if toWarehouse == nil && li.WarehouseName != "" {
			wh := li.WarehouseName
			toWarehouse = &wh
		}
		lines = append(lines, models.StockEntryLineItem{
			ItemCode:      li.ItemCode,
			Qty:           li.AcceptedQty,
			ValuationRate: li.ValuationRate,
			Amount:        amount,
			BatchNo:       li.BatchNo,
			WarehouseName: li.WarehouseName,
			UOM:           "Kg",
		})
	}
	if len(lines) == 0 {
		// every line rejected or scrapped, nothing to store
		return nil, nil
	}

	entryNo, err := GenerateEntryNo(tx, models.EntryTypeMaterialReceipt)
	if err != nil {
		return nil, apperr.Persistence("generate entry number", err)
	}

	grnNo := g.GRNNo
	entry := &models.StockEntry{
		EntryNo:          entryNo,
		EntryDate:        time.Now(),
		EntryType:        models.EntryTypeMaterialReceipt,
		Status:           models.EntryStatusDraft,
		ToWarehouse:      toWarehouse,
		Purpose:          fmt.Sprintf("GRN Approved - %s", grnNo),
		ReferenceDoctype: &doctype,
		ReferenceName:    &grnNo,
		Remarks:          fmt.Sprintf("Auto-generated from GRN %s", grnNo),
		TotalQty:         totalQty,
		TotalValue:       totalValue,
		CreatedBy:        userID,
		Items:            lines,
	}

	if err := tx.Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race to a concurrent approval; that transaction owns
			// the posting and this one must roll back whole
			return nil, apperr.StateConflict("GRN %s was approved concurrently", grnNo)
		}
		return nil, apperr.Persistence("create stock entry", err)
	}

	return submitInTx(tx, entry, userID)
}

func derefOr(s *string, def string) string {
	if s != nil {
		return *s
	}
	return def
}
