package grn

import (
	"testing"

	"erp-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestReconcileLine(t *testing.T) {
	tests := []struct {
		name     string
		line     models.GRNLineItem
		complete bool
	}{
		{
			name: "fully accepted",
			line: models.GRNLineItem{
				ReceivedQty: d(100), AcceptedQty: d(100),
				QCStatus: models.QCStatusPass,
			},
			complete: true,
		},
		{
			name: "split verdict balances",
			line: models.GRNLineItem{
				ReceivedQty: d(100), AcceptedQty: d(90), RejectedQty: d(7), ScrapQty: d(3),
				QCStatus: models.QCStatusPass,
			},
			complete: true,
		},
		{
			name: "sum short of received",
			line: models.GRNLineItem{
				ReceivedQty: d(100), AcceptedQty: d(90), RejectedQty: d(5),
				QCStatus: models.QCStatusPass,
			},
			complete: false,
		},
		{
			name: "sum over received",
			line: models.GRNLineItem{
				ReceivedQty: d(100), AcceptedQty: d(90), RejectedQty: d(20),
				QCStatus: models.QCStatusFail,
			},
			complete: false,
		},
		{
			name: "missing qc verdict",
			line: models.GRNLineItem{
				ReceivedQty: d(100), AcceptedQty: d(100),
			},
			complete: false,
		},
		{
			name: "unknown qc verdict",
			line: models.GRNLineItem{
				ReceivedQty: d(100), AcceptedQty: d(100),
				QCStatus: models.QCStatus("maybe"),
			},
			complete: false,
		},
		{
			name: "zero received needs zero quantities",
			line: models.GRNLineItem{
				ReceivedQty: d(0),
				QCStatus:    models.QCStatusFail,
			},
			complete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ReconcileLine(tt.line)
			assert.Equal(t, tt.complete, r.Complete)
			if !tt.complete {
				assert.NotEmpty(t, r.Reason)
			}
		})
	}
}

func TestReconcileAllLinesMustBalance(t *testing.T) {
	items := []models.GRNLineItem{
		{ItemCode: "RM-001", ReceivedQty: d(10), AcceptedQty: d(10), QCStatus: models.QCStatusPass},
		{ItemCode: "RM-002", ReceivedQty: d(20), AcceptedQty: d(15), QCStatus: models.QCStatusPass},
	}

	results, complete := Reconcile(items)
	assert.False(t, complete)
	assert.Len(t, results, 2)
	assert.True(t, results[0].Complete)
	assert.False(t, results[1].Complete)
	assert.Equal(t, "RM-002", results[1].ItemCode)

	items[1].RejectedQty = d(5)
	_, complete = Reconcile(items)
	assert.True(t, complete)
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to models.GRNStatus }{
		{models.GRNStatusPending, models.GRNStatusInspecting},
		{models.GRNStatusInspecting, models.GRNStatusAwaitingInventoryApproval},
		{models.GRNStatusInspecting, models.GRNStatusRejected},
		{models.GRNStatusAwaitingInventoryApproval, models.GRNStatusApproved},
		{models.GRNStatusAwaitingInventoryApproval, models.GRNStatusSentBack},
		{models.GRNStatusSentBack, models.GRNStatusPending},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to models.GRNStatus }{
		{models.GRNStatusPending, models.GRNStatusApproved},
		{models.GRNStatusPending, models.GRNStatusAwaitingInventoryApproval},
		{models.GRNStatusInspecting, models.GRNStatusApproved},
		{models.GRNStatusApproved, models.GRNStatusInspecting},
		{models.GRNStatusApproved, models.GRNStatusApproved},
		{models.GRNStatusRejected, models.GRNStatusPending},
		{models.GRNStatusSentBack, models.GRNStatusApproved},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}
