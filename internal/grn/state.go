package grn

import "erp-backend/internal/models"

// allowedNext is the whole state machine: anything absent here is rejected,
// call sites never compare status strings themselves.
var allowedNext = map[models.GRNStatus][]models.GRNStatus{
	models.GRNStatusPending:                   {models.GRNStatusInspecting},
	models.GRNStatusInspecting:                {models.GRNStatusAwaitingInventoryApproval, models.GRNStatusRejected},
	models.GRNStatusAwaitingInventoryApproval: {models.GRNStatusApproved, models.GRNStatusSentBack},
	models.GRNStatusSentBack:                  {models.GRNStatusPending},
	models.GRNStatusApproved:                  {},
	models.GRNStatusRejected:                  {},
}

func CanTransition(from, to models.GRNStatus) bool {
	for _, next := range allowedNext[from] {
		if next == to {
			return true
		}
	}
	return false
}
