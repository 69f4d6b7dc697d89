package grn

import (
	"erp-backend/internal/auth"
	"erp-backend/internal/database"
	"erp-backend/internal/models"
	"erp-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type sendBackRequest struct {
	Reason string `json:"reason"`
}

type inspectionRequest struct {
	ApprovedItems []InspectionLineInput `json:"approvedItems" validate:"required,min=1,dive"`
}

type approvalRequest struct {
	ApprovedItems []ApprovalLineInput `json:"approvedItems" validate:"dive"`
}

// GET /api/grn-requests?status=&search=
func ListGRNRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Items").Order("created_at DESC")

		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if search := c.Query("search"); search != "" {
			term := "%" + search + "%"
			q = q.Where("(grn_no LIKE ? OR po_no LIKE ? OR supplier_name LIKE ?)", term, term, term)
		}

		var grns []models.GRNRequest
		if err := q.Find(&grns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list GRN requests")
		}

		return c.JSON(fiber.Map{"success": true, "data": grns, "count": len(grns)})
	}
}

// GET /api/grn-requests/:id
func GetGRNRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := FindGRN(database.DB, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": g})
	}
}

// POST /api/grn-requests
func CreateGRNRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateGRNInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		g, err := Create(body, auth.UserID(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    g,
			"message": "GRN request created",
		})
	}
}

// POST /api/grn-requests/:id/start-inspection
func StartInspectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := StartInspection(c.Params("id"), auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": g, "message": "Inspection started"})
	}
}

// PUT /api/grn-requests/:id/inspect-item
func InspectItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body InspectionLineInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		g, err := InspectItem(c.Params("id"), body, auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": g, "message": "Item inspection recorded"})
	}
}

// POST /api/grn-requests/:id/send-to-inventory
func CompleteInspectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body inspectionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		g, err := CompleteInspection(c.Params("id"), body.ApprovedItems, auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    g,
			"message": "GRN sent to inventory for approval",
		})
	}
}

// POST /api/grn-requests/:id/reject
func RejectGRNRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body rejectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		g, err := Reject(c.Params("id"), body.Reason, auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": g, "message": "GRN request rejected"})
	}
}

// POST /api/grn-requests/:id/send-back
func SendBackGRNRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body sendBackRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		g, err := SendBack(c.Params("id"), body.Reason, auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": g, "message": "GRN request sent back"})
	}
}

// POST /api/grn-requests/:id/reopen
func ReopenGRNRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := Reopen(c.Params("id"), auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": g, "message": "GRN request reopened"})
	}
}

// POST /api/grn-requests/:id/inventory-approve
func InventoryApproveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body approvalRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		g, entry, err := InventoryApprove(c.Params("id"), body.ApprovedItems, auth.UserID(c))
		if err != nil {
			return err
		}

		resp := fiber.Map{
			"success": true,
			"data":    g,
			"message": "GRN approved by inventory and items stored",
		}
		if entry != nil {
			resp["stock_entry"] = entry
		}
		return c.JSON(resp)
	}
}
