package grn

import (
	"errors"
	"time"

	"erp-backend/internal/apperr"
	"erp-backend/internal/database"
	"erp-backend/internal/logger"
	"erp-backend/internal/models"
	"erp-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var log = logger.WithModule("grn")

const (
	actionCreated            = "CREATED"
	actionStartInspection    = "START_INSPECTION"
	actionInspectionComplete = "INSPECTION_COMPLETE"
	actionRejected           = "REJECTED"
	actionSentBack           = "SENT_BACK"
	actionReopened           = "REOPENED"
	actionInventoryApproved  = "INVENTORY_APPROVED"
)

type CreateLineInput struct {
	ItemCode      string          `json:"item_code" validate:"required"`
	ItemName      string          `json:"item_name"`
	ReceivedQty   decimal.Decimal `json:"received_qty"`
	BatchNo       string          `json:"batch_no"`
	WarehouseName string          `json:"warehouse_name"`
}

type CreateGRNInput struct {
	GRNNo        string            `json:"grn_no"`
	PONo         string            `json:"po_no" validate:"required"`
	SupplierID   string            `json:"supplier_id"`
	SupplierName string            `json:"supplier_name"`
	ReceiptDate  string            `json:"receipt_date"`
	Notes        string            `json:"notes"`
	Items        []CreateLineInput `json:"items" validate:"required,min=1,dive"`
}

// InspectionLineInput: one line's QC verdict, either saved incrementally or
// presented whole at inspection completion.
type InspectionLineInput struct {
	ID          uint            `json:"id" validate:"required"`
	AcceptedQty decimal.Decimal `json:"accepted_qty"`
	RejectedQty decimal.Decimal `json:"rejected_qty"`
	ScrapQty    decimal.Decimal `json:"scrap_qty"`
	QCStatus    models.QCStatus `json:"qc_status"`
}

// ApprovalLineInput: storage assignment for one accepted line.
type ApprovalLineInput struct {
	ID            uint             `json:"id" validate:"required"`
	AcceptedQty   decimal.Decimal  `json:"accepted_qty"`
	RejectedQty   decimal.Decimal  `json:"rejected_qty"`
	ScrapQty      decimal.Decimal  `json:"scrap_qty"`
	QCStatus      models.QCStatus  `json:"qc_status"`
	WarehouseName string           `json:"warehouse_name"`
	BinRack       string           `json:"bin_rack"`
	BatchNo       string           `json:"batch_no"`
	ValuationRate *decimal.Decimal `json:"valuation_rate"`
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

// FindGRN loads a GRN with lines and transition log, by numeric id or
// business key.
func FindGRN(db *gorm.DB, ref string) (*models.GRNRequest, error) {
	var g models.GRNRequest
	q := db.Preload("Items").Preload("Logs", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	})
	var err error
	if isNumeric(ref) {
		err = q.First(&g, "id = ?", ref).Error
	} else {
		err = q.First(&g, "grn_no = ?", ref).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("GRN request %s not found", ref)
	}
	if err != nil {
		return nil, apperr.Persistence("fetch GRN request", err)
	}
	return &g, nil
}

// transition flips the status with the expected current status in the
// WHERE clause; zero rows affected means a concurrent caller won.
func transition(tx *gorm.DB, g *models.GRNRequest, to models.GRNStatus, updates map[string]interface{}) error {
	if !CanTransition(g.Status, to) {
		return apperr.StateConflict("GRN %s cannot move from %s to %s", g.GRNNo, g.Status, to)
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	res := tx.Model(&models.GRNRequest{}).
		Where("id = ? AND status = ?", g.ID, g.Status).
		Updates(updates)
	if res.Error != nil {
		return apperr.Persistence("update GRN status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.StateConflict("GRN %s was modified concurrently, reload and retry", g.GRNNo)
	}
	return nil
}

func writeLog(tx *gorm.DB, g *models.GRNRequest, action string, to models.GRNStatus, reason string, userID uint) error {
	entry := models.GRNRequestLog{
		GRNRequestID: g.ID,
		Action:       action,
		StatusFrom:   g.Status,
		StatusTo:     to,
		Reason:       reason,
		CreatedBy:    userID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return apperr.Persistence("write GRN log", err)
	}
	return nil
}

// Create logs a new receipt against a purchase order. Status starts at
// pending; the PO itself belongs to its own store and is not touched here.
func Create(input CreateGRNInput, userID uint) (*models.GRNRequest, error) {
	receiptDate := time.Now()
	if input.ReceiptDate != "" {
		d, err := time.Parse("2006-01-02", input.ReceiptDate)
		if err != nil {
			return nil, apperr.Validation("receipt_date must be 'YYYY-MM-DD'")
		}
		receiptDate = d
	}

	g := &models.GRNRequest{
		GRNNo:        input.GRNNo,
		PONo:         input.PONo,
		SupplierID:   input.SupplierID,
		SupplierName: input.SupplierName,
		ReceiptDate:  receiptDate,
		Status:       models.GRNStatusPending,
		Notes:        input.Notes,
		CreatedBy:    userID,
	}
	for _, li := range input.Items {
		if li.ReceivedQty.IsNegative() {
			return nil, apperr.Validation("Item %s: received_qty cannot be negative", li.ItemCode)
		}
		g.Items = append(g.Items, models.GRNLineItem{
			ItemCode:      li.ItemCode,
			ItemName:      li.ItemName,
			ReceivedQty:   li.ReceivedQty,
			BatchNo:       li.BatchNo,
			WarehouseName: li.WarehouseName,
		})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if g.GRNNo == "" {
			no, err := GenerateGRNNo(tx)
			if err != nil {
				return apperr.Persistence("generate GRN number", err)
			}
			g.GRNNo = no
		}
		if err := tx.Create(g).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Validation("GRN %s already exists", g.GRNNo)
			}
			return apperr.Persistence("create GRN request", err)
		}
		return writeLog(tx, g, actionCreated, models.GRNStatusPending, "", userID)
	})
	if err != nil {
		return nil, err
	}

	log.WithField("grn_no", g.GRNNo).Info("GRN request created")
	return g, nil
}

// StartInspection: pending -> inspecting, no extra precondition.
func StartInspection(ref string, userID uint) (*models.GRNRequest, error) {
	return doTransition(ref, models.GRNStatusInspecting, actionStartInspection, "", userID, nil)
}

// Reject: inspecting -> rejected, terminal. A reason is mandatory.
func Reject(ref, reason string, userID uint) (*models.GRNRequest, error) {
	if reason == "" {
		return nil, apperr.Validation("Rejection reason required")
	}
	return doTransition(ref, models.GRNStatusRejected, actionRejected, reason, userID,
		map[string]interface{}{"rejection_reason": reason})
}

// SendBack: awaiting_inventory_approval -> sent_back, manual override for
// re-inspection.
func SendBack(ref, reason string, userID uint) (*models.GRNRequest, error) {
	return doTransition(ref, models.GRNStatusSentBack, actionSentBack, reason, userID, nil)
}

// Reopen: sent_back -> pending, QC picks the receipt up again.
func Reopen(ref string, userID uint) (*models.GRNRequest, error) {
	return doTransition(ref, models.GRNStatusPending, actionReopened, "", userID, nil)
}

func doTransition(ref string, to models.GRNStatus, action, reason string, userID uint, updates map[string]interface{}) (*models.GRNRequest, error) {
	var out *models.GRNRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		g, err := FindGRN(tx, ref)
		if err != nil {
			return err
		}
		if err := transition(tx, g, to, updates); err != nil {
			return err
		}
		if err := writeLog(tx, g, action, to, reason, userID); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"grn_no": out.GRNNo,
		"from":   out.Status,
		"to":     to,
	}).Info("GRN transition")

	return FindGRN(database.DB, ref)
}

// applyInspection copies a QC verdict onto a line, holding the standing
// invariant accepted + rejected + scrap <= received on every write.
func applyInspection(li *models.GRNLineItem, in InspectionLineInput) error {
	if in.AcceptedQty.IsNegative() || in.RejectedQty.IsNegative() || in.ScrapQty.IsNegative() {
		return apperr.Validation("Item %s: quantities cannot be negative", li.ItemCode)
	}
	if in.AcceptedQty.GreaterThan(li.ReceivedQty) {
		return apperr.Validation("Item %s: accepted (%s) cannot exceed received (%s)",
			li.ItemCode, in.AcceptedQty, li.ReceivedQty)
	}
	sum := in.AcceptedQty.Add(in.RejectedQty).Add(in.ScrapQty)
	if sum.GreaterThan(li.ReceivedQty) {
		return apperr.Validation("Item %s: accepted (%s) + rejected (%s) + scrap (%s) cannot exceed received (%s)",
			li.ItemCode, in.AcceptedQty, in.RejectedQty, in.ScrapQty, li.ReceivedQty)
	}
	li.AcceptedQty = in.AcceptedQty
	li.RejectedQty = in.RejectedQty
	li.ScrapQty = in.ScrapQty
	if in.QCStatus != "" {
		if !in.QCStatus.Valid() {
			return apperr.Validation("Item %s: qc_status %q is not one of pass, fail, rework", li.ItemCode, in.QCStatus)
		}
		li.QCStatus = in.QCStatus
	}
	return nil
}

// InspectItem saves one line's verdict while the GRN is still inspecting,
// without attempting the transition. Lets QC work line by line.
func InspectItem(ref string, input InspectionLineInput, userID uint) (*models.GRNRequest, error) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		g, err := FindGRN(tx, ref)
		if err != nil {
			return err
		}
		if g.Status != models.GRNStatusInspecting {
			return apperr.StateConflict("GRN %s is %s, lines can only be inspected while inspecting", g.GRNNo, g.Status)
		}
		li := lineByID(g, input.ID)
		if li == nil {
			return apperr.Validation("Item with id %d not found in GRN %s", input.ID, g.GRNNo)
		}
		if err := applyInspection(li, input); err != nil {
			return err
		}
		if err := tx.Save(li).Error; err != nil {
			return apperr.Persistence("save GRN line inspection", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FindGRN(database.DB, ref)
}

// CompleteInspection: inspecting -> awaiting_inventory_approval, guarded by
// the reconciliation engine. Incomplete quantities roll the whole write
// back and leave the status untouched.
func CompleteInspection(ref string, items []InspectionLineInput, userID uint) (*models.GRNRequest, error) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		g, err := FindGRN(tx, ref)
		if err != nil {
			return err
		}

		for _, in := range items {
			li := lineByID(g, in.ID)
			if li == nil {
				return apperr.Validation("Item with id %d not found in GRN %s", in.ID, g.GRNNo)
			}
			if err := applyInspection(li, in); err != nil {
				return err
			}
		}

		results, complete := Reconcile(g.Items)
		if !complete {
			return apperr.Reconciliation("GRN %s does not reconcile: %s", g.GRNNo, firstReason(results))
		}

		totalAccepted, totalRejected := totals(g.Items)
		for i := range g.Items {
			if err := tx.Save(&g.Items[i]).Error; err != nil {
				return apperr.Persistence("save GRN line inspection", err)
			}
		}

		if err := transition(tx, g, models.GRNStatusAwaitingInventoryApproval, map[string]interface{}{
			"total_accepted": totalAccepted,
			"total_rejected": totalRejected,
		}); err != nil {
			return err
		}
		return writeLog(tx, g, actionInspectionComplete, models.GRNStatusAwaitingInventoryApproval, "", userID)
	})
	if err != nil {
		return nil, err
	}
	return FindGRN(database.DB, ref)
}

// InventoryApprove: awaiting_inventory_approval -> approved. Assigns
// storage per accepted line, posts the stock entry exactly once and flips
// the status, all in one transaction. Re-issuing against an approved GRN
// returns the existing posting unchanged.
func InventoryApprove(ref string, items []ApprovalLineInput, userID uint) (*models.GRNRequest, *models.StockEntry, error) {
	var entry *models.StockEntry
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		g, err := FindGRN(tx, ref)
		if err != nil {
			return err
		}

		if g.Status == models.GRNStatusApproved {
			existing, err := stock.FindEntryByReference(tx, "GRN", g.GRNNo)
			if err != nil {
				return err
			}
			entry = existing
			return nil
		}
		if !CanTransition(g.Status, models.GRNStatusApproved) {
			return apperr.StateConflict("GRN %s cannot move from %s to %s", g.GRNNo, g.Status, models.GRNStatusApproved)
		}

		for _, in := range items {
			li := lineByID(g, in.ID)
			if li == nil {
				return apperr.Validation("Item with id %d not found in GRN %s", in.ID, g.GRNNo)
			}
			if err := applyInspection(li, InspectionLineInput{
				ID:          in.ID,
				AcceptedQty: in.AcceptedQty,
				RejectedQty: in.RejectedQty,
				ScrapQty:    in.ScrapQty,
				QCStatus:    in.QCStatus,
			}); err != nil {
				return err
			}
			if li.QCStatus == "" {
				li.QCStatus = models.QCStatusPass
			}
			if in.WarehouseName != "" {
				li.WarehouseName = in.WarehouseName
			}
			if in.BinRack != "" {
				li.BinRack = in.BinRack
			}
			if in.BatchNo != "" {
				li.BatchNo = in.BatchNo
			}
			if in.ValuationRate != nil {
				if in.ValuationRate.IsNegative() {
					return apperr.Validation("Item %s: valuation_rate cannot be negative", li.ItemCode)
				}
				li.ValuationRate = *in.ValuationRate
			}
		}

		// every accepted line needs a resolvable warehouse and a rate
		for i := range g.Items {
			li := &g.Items[i]
			if !li.AcceptedQty.IsPositive() {
				continue
			}
			if li.WarehouseName == "" {
				return &apperr.MissingWarehouseError{ItemCode: li.ItemCode}
			}
			if err := resolveWarehouse(tx, li); err != nil {
				return err
			}
			if li.ValuationRate.IsZero() {
				li.ValuationRate = itemDirectoryRate(tx, li.ItemCode)
			}
		}

		results, complete := Reconcile(g.Items)
		if !complete {
			return apperr.Reconciliation("GRN %s does not reconcile: %s", g.GRNNo, firstReason(results))
		}

		for i := range g.Items {
			if err := tx.Save(&g.Items[i]).Error; err != nil {
				return apperr.Persistence("save GRN line approval", err)
			}
		}

		posted, err := stock.PostGRNReceipt(tx, g, userID)
		if err != nil {
			return err
		}
		entry = posted

		totalAccepted, totalRejected := totals(g.Items)
		now := time.Now()
		if err := transition(tx, g, models.GRNStatusApproved, map[string]interface{}{
			"total_accepted": totalAccepted,
			"total_rejected": totalRejected,
			"approved_by":    userID,
			"approval_date":  now,
		}); err != nil {
			return err
		}
		return writeLog(tx, g, actionInventoryApproved, models.GRNStatusApproved, "", userID)
	})
	if err != nil {
		return nil, nil, err
	}

	g, err := FindGRN(database.DB, ref)
	if err != nil {
		return nil, nil, err
	}

	fields := map[string]interface{}{"grn_no": g.GRNNo}
	if entry != nil {
		fields["entry_no"] = entry.EntryNo
	}
	log.WithFields(fields).Info("GRN approved by inventory")

	return g, entry, nil
}

func lineByID(g *models.GRNRequest, id uint) *models.GRNLineItem {
	for i := range g.Items {
		if g.Items[i].ID == id {
			return &g.Items[i]
		}
	}
	return nil
}

func totals(items []models.GRNLineItem) (accepted, rejected decimal.Decimal) {
	accepted, rejected = decimal.Zero, decimal.Zero
	for _, li := range items {
		accepted = accepted.Add(li.AcceptedQty)
		rejected = rejected.Add(li.RejectedQty)
	}
	return accepted, rejected
}

func firstReason(results []LineReconciliation) string {
	for _, r := range results {
		if !r.Complete {
			return r.Reason
		}
	}
	return ""
}

// resolveWarehouse checks the line's warehouse against the directory, by
// name or code.
func resolveWarehouse(tx *gorm.DB, li *models.GRNLineItem) error {
	var wh models.Warehouse
	err := tx.Where("(warehouse_name = ? OR warehouse_code = ?) AND is_active = ?",
		li.WarehouseName, li.WarehouseName, true).
		First(&wh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.MissingWarehouseError{ItemCode: li.ItemCode}
	}
	if err != nil {
		return apperr.Persistence("look up warehouse", err)
	}
	li.WarehouseName = wh.WarehouseName
	return nil
}

// itemDirectoryRate: the Item Directory's current valuation rate, 0 when
// the item is unknown there.
func itemDirectoryRate(tx *gorm.DB, itemCode string) decimal.Decimal {
	var item models.Item
	if err := tx.Where("item_code = ?", itemCode).First(&item).Error; err != nil {
		return decimal.Zero
	}
	return item.ValuationRate
}
