package grn

import (
	"fmt"

	"erp-backend/internal/models"
)

// LineReconciliation: completeness verdict for one GRN line.
type LineReconciliation struct {
	LineID   uint   `json:"line_id"`
	ItemCode string `json:"item_code"`
	Complete bool   `json:"complete"`
	Reason   string `json:"reason,omitempty"`
}

// ReconcileLine checks a single line: the qc verdict must be one of the
// closed set and accepted + rejected + scrap must equal received. A line
// with received_qty = 0 is complete only when all three sub-quantities are
// 0 too, which the equality already covers.
func ReconcileLine(li models.GRNLineItem) LineReconciliation {
	r := LineReconciliation{LineID: li.ID, ItemCode: li.ItemCode}

	if !li.QCStatus.Valid() {
		r.Reason = fmt.Sprintf("qc_status %q is not one of pass, fail, rework", li.QCStatus)
		return r
	}

	sum := li.AcceptedQty.Add(li.RejectedQty).Add(li.ScrapQty)
	if !sum.Equal(li.ReceivedQty) {
		r.Reason = fmt.Sprintf("accepted (%s) + rejected (%s) + scrap (%s) must equal received (%s)",
			li.AcceptedQty, li.RejectedQty, li.ScrapQty, li.ReceivedQty)
		return r
	}

	r.Complete = true
	return r
}

// Reconcile runs ReconcileLine over every line. The GRN is complete only
// when every line is. Pure: no lookups, no writes.
func Reconcile(items []models.GRNLineItem) ([]LineReconciliation, bool) {
	results := make([]LineReconciliation, 0, len(items))
	complete := true
	for _, li := range items {
		r := ReconcileLine(li)
		if !r.Complete {
			complete = false
		}
		results = append(results, r)
	}
	return results, complete
}
