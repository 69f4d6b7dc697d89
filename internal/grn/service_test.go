package grn

import (
	"fmt"
	"sync/atomic"
	"testing"

	"erp-backend/internal/apperr"
	"erp-backend/internal/database"
	"erp-backend/internal/models"
	"erp-backend/internal/stock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq int64

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:grn_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	require.NoError(t, db.Create(&models.Warehouse{
		WarehouseCode: "MAIN",
		WarehouseName: "Main",
		WarehouseType: "Storage",
		IsActive:      true,
	}).Error)
	require.NoError(t, db.Create(&models.Warehouse{
		WarehouseCode: "QR",
		WarehouseName: "Quarantine",
		WarehouseType: "Storage",
		IsActive:      false,
	}).Error)
	require.NoError(t, db.Create(&models.Item{
		ItemCode:      "RM-001",
		Name:          "Raw Material 001",
		UOM:           "Kg",
		ValuationRate: decimal.NewFromInt(50),
	}).Error)
}

func createTestGRN(t *testing.T, received int64) *models.GRNRequest {
	t.Helper()
	g, err := Create(CreateGRNInput{
		PONo:         "PO-2026-001",
		SupplierName: "Acme Supplies",
		Items: []CreateLineInput{
			{ItemCode: "RM-001", ItemName: "Raw Material 001", ReceivedQty: d(received)},
		},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, models.GRNStatusPending, g.Status)
	require.Len(t, g.Items, 1)
	return g
}

func grnBalance(t *testing.T, itemCode, warehouse string) models.WarehouseBalance {
	t.Helper()
	var b models.WarehouseBalance
	err := database.DB.Where("item_code = ? AND warehouse_name = ?", itemCode, warehouse).First(&b).Error
	require.NoError(t, err)
	return b
}

func TestApprovalFlowPostsStockEntry(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 100)
	lineID := g.Items[0].ID

	g, err := StartInspection(g.GRNNo, 2)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusInspecting, g.Status)

	g, err = CompleteInspection(g.GRNNo, []InspectionLineInput{
		{ID: lineID, AcceptedQty: d(90), RejectedQty: d(10), QCStatus: models.QCStatusPass},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusAwaitingInventoryApproval, g.Status)
	assert.True(t, g.TotalAccepted.Equal(d(90)))
	assert.True(t, g.TotalRejected.Equal(d(10)))

	g, entry, err := InventoryApprove(g.GRNNo, []ApprovalLineInput{
		{ID: lineID, AcceptedQty: d(90), RejectedQty: d(10), QCStatus: models.QCStatusPass, WarehouseName: "Main"},
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusApproved, g.Status)
	require.NotNil(t, g.ApprovedBy)
	assert.Equal(t, uint(3), *g.ApprovedBy)
	assert.NotNil(t, g.ApprovalDate)

	require.NotNil(t, entry)
	assert.Equal(t, models.EntryTypeMaterialReceipt, entry.EntryType)
	assert.Equal(t, models.EntryStatusSubmitted, entry.Status)
	assert.True(t, entry.TotalQty.Equal(d(90)))
	// valuation falls back to the item directory rate of 50
	assert.True(t, entry.TotalValue.Equal(d(4500)))
	require.NotNil(t, entry.ReferenceName)
	assert.Equal(t, g.GRNNo, *entry.ReferenceName)

	b := grnBalance(t, "RM-001", "Main")
	assert.True(t, b.OnHandQty.Equal(d(90)))
	assert.True(t, b.StockValue.Equal(d(4500)))
}

func TestCompleteInspectionRequiresReconciledLines(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 100)
	lineID := g.Items[0].ID

	_, err := StartInspection(g.GRNNo, 2)
	require.NoError(t, err)

	_, err = CompleteInspection(g.GRNNo, []InspectionLineInput{
		{ID: lineID, AcceptedQty: d(90), RejectedQty: d(5), QCStatus: models.QCStatusPass},
	}, 2)
	var recErr *apperr.ReconciliationError
	require.ErrorAs(t, err, &recErr)

	// the failed attempt must not move the status
	g, err = FindGRN(database.DB, g.GRNNo)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusInspecting, g.Status)
}

func TestInspectItemEnforcesLineInvariant(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 100)
	lineID := g.Items[0].ID

	// lines cannot be inspected before inspection starts
	_, err := InspectItem(g.GRNNo, InspectionLineInput{ID: lineID, AcceptedQty: d(10)}, 2)
	var conflict *apperr.StateConflictError
	require.ErrorAs(t, err, &conflict)

	_, err = StartInspection(g.GRNNo, 2)
	require.NoError(t, err)

	_, err = InspectItem(g.GRNNo, InspectionLineInput{ID: lineID, AcceptedQty: d(120)}, 2)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = InspectItem(g.GRNNo, InspectionLineInput{
		ID: lineID, AcceptedQty: d(60), RejectedQty: d(50),
	}, 2)
	require.ErrorAs(t, err, &validation)

	g, err = InspectItem(g.GRNNo, InspectionLineInput{
		ID: lineID, AcceptedQty: d(60), QCStatus: models.QCStatusPass,
	}, 2)
	require.NoError(t, err)
	assert.True(t, g.Items[0].AcceptedQty.Equal(d(60)))
	assert.Equal(t, models.GRNStatusInspecting, g.Status)
}

func TestInventoryApproveIsIdempotent(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 100)
	lineID := g.Items[0].ID

	_, err := StartInspection(g.GRNNo, 2)
	require.NoError(t, err)
	_, err = CompleteInspection(g.GRNNo, []InspectionLineInput{
		{ID: lineID, AcceptedQty: d(100), QCStatus: models.QCStatusPass},
	}, 2)
	require.NoError(t, err)

	_, first, err := InventoryApprove(g.GRNNo, []ApprovalLineInput{
		{ID: lineID, AcceptedQty: d(100), QCStatus: models.QCStatusPass, WarehouseName: "Main"},
	}, 3)
	require.NoError(t, err)
	require.NotNil(t, first)

	g2, second, err := InventoryApprove(g.GRNNo, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusApproved, g2.Status)
	require.NotNil(t, second)
	assert.Equal(t, first.EntryNo, second.EntryNo)

	var count int64
	require.NoError(t, database.DB.Model(&models.StockEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// balance must reflect exactly one posting
	b := grnBalance(t, "RM-001", "Main")
	assert.True(t, b.OnHandQty.Equal(d(100)))
}

func TestInventoryApproveRequiresWarehouse(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 50)
	lineID := g.Items[0].ID

	_, err := StartInspection(g.GRNNo, 2)
	require.NoError(t, err)
	_, err = CompleteInspection(g.GRNNo, []InspectionLineInput{
		{ID: lineID, AcceptedQty: d(50), QCStatus: models.QCStatusPass},
	}, 2)
	require.NoError(t, err)

	_, _, err = InventoryApprove(g.GRNNo, nil, 3)
	var missing *apperr.MissingWarehouseError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "RM-001", missing.ItemCode)

	// an inactive warehouse is as good as none
	_, _, err = InventoryApprove(g.GRNNo, []ApprovalLineInput{
		{ID: lineID, AcceptedQty: d(50), QCStatus: models.QCStatusPass, WarehouseName: "Quarantine"},
	}, 3)
	require.ErrorAs(t, err, &missing)

	// warehouse code resolves to its canonical name
	g, entry, err := InventoryApprove(g.GRNNo, []ApprovalLineInput{
		{ID: lineID, AcceptedQty: d(50), QCStatus: models.QCStatusPass, WarehouseName: "MAIN"},
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusApproved, g.Status)
	require.NotNil(t, entry)
	assert.Equal(t, "Main", entry.Items[0].WarehouseName)
}

func TestFullyRejectedGRNPostsNothing(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 40)
	lineID := g.Items[0].ID

	_, err := StartInspection(g.GRNNo, 2)
	require.NoError(t, err)
	_, err = CompleteInspection(g.GRNNo, []InspectionLineInput{
		{ID: lineID, RejectedQty: d(40), QCStatus: models.QCStatusFail},
	}, 2)
	require.NoError(t, err)

	g, entry, err := InventoryApprove(g.GRNNo, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusApproved, g.Status)
	assert.Nil(t, entry)

	var count int64
	require.NoError(t, database.DB.Model(&models.StockEntry{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRejectRequiresReason(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 10)

	_, err := StartInspection(g.GRNNo, 2)
	require.NoError(t, err)

	_, err = Reject(g.GRNNo, "", 2)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)

	g, err = Reject(g.GRNNo, "damaged packaging", 2)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusRejected, g.Status)
	require.NotNil(t, g.RejectionReason)
	assert.Equal(t, "damaged packaging", *g.RejectionReason)

	// terminal, no way back
	_, err = StartInspection(g.GRNNo, 2)
	var conflict *apperr.StateConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestIllegalTransitions(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 10)
	lineID := g.Items[0].ID

	// pending cannot be approved straight away
	_, _, err := InventoryApprove(g.GRNNo, nil, 3)
	var conflict *apperr.StateConflictError
	require.ErrorAs(t, err, &conflict)

	// pending cannot complete inspection either
	_, err = CompleteInspection(g.GRNNo, []InspectionLineInput{
		{ID: lineID, AcceptedQty: d(10), QCStatus: models.QCStatusPass},
	}, 2)
	require.ErrorAs(t, err, &conflict)

	// rejecting needs inspecting first
	_, err = Reject(g.GRNNo, "nope", 2)
	require.ErrorAs(t, err, &conflict)
}

func TestSendBackAndReopen(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 30)
	lineID := g.Items[0].ID

	_, err := StartInspection(g.GRNNo, 2)
	require.NoError(t, err)
	_, err = CompleteInspection(g.GRNNo, []InspectionLineInput{
		{ID: lineID, AcceptedQty: d(30), QCStatus: models.QCStatusPass},
	}, 2)
	require.NoError(t, err)

	g, err = SendBack(g.GRNNo, "batch numbers missing", 3)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusSentBack, g.Status)

	g, err = Reopen(g.GRNNo, 2)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusPending, g.Status)

	// the full trail survives in the transition log
	actions := make([]string, 0, len(g.Logs))
	for _, l := range g.Logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, actionSentBack)
	assert.Contains(t, actions, actionReopened)
	assert.Contains(t, actions, actionCreated)

	// and the cycle can run again
	g, err = StartInspection(g.GRNNo, 2)
	require.NoError(t, err)
	assert.Equal(t, models.GRNStatusInspecting, g.Status)
}

func TestCreateValidation(t *testing.T) {
	setupTestDB(t)

	_, err := Create(CreateGRNInput{
		PONo: "PO-X",
		Items: []CreateLineInput{
			{ItemCode: "RM-001", ReceivedQty: d(-5)},
		},
	}, 1)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = Create(CreateGRNInput{
		PONo:        "PO-X",
		ReceiptDate: "28-08-2026",
		Items:       []CreateLineInput{{ItemCode: "RM-001", ReceivedQty: d(5)}},
	}, 1)
	require.ErrorAs(t, err, &validation)

	g, err := Create(CreateGRNInput{
		PONo:  "PO-X",
		Items: []CreateLineInput{{ItemCode: "RM-001", ReceivedQty: d(5)}},
	}, 1)
	require.NoError(t, err)
	assert.Regexp(t, `^GRN-\d{6}-\d{6}$`, g.GRNNo)

	// duplicate business keys are refused
	_, err = Create(CreateGRNInput{
		GRNNo: g.GRNNo,
		PONo:  "PO-Y",
		Items: []CreateLineInput{{ItemCode: "RM-001", ReceivedQty: d(5)}},
	}, 1)
	require.ErrorAs(t, err, &validation)
}

func TestFindGRNByIDAndNumber(t *testing.T) {
	setupTestDB(t)

	g := createTestGRN(t, 10)

	byID, err := FindGRN(database.DB, fmt.Sprintf("%d", g.ID))
	require.NoError(t, err)
	assert.Equal(t, g.GRNNo, byID.GRNNo)

	byNo, err := FindGRN(database.DB, g.GRNNo)
	require.NoError(t, err)
	assert.Equal(t, g.ID, byNo.ID)

	_, err = FindGRN(database.DB, "GRN-000000-000000")
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// the stock side must see nothing posted yet
	e, err := stock.FindEntryByReference(database.DB, "GRN", g.GRNNo)
	require.NoError(t, err)
	assert.Nil(t, e)
}
