package stock

import (
	"time"

	"erp-backend/internal/auth"
	"erp-backend/internal/database"
	"erp-backend/internal/models"
	"erp-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type updateEntryRequest struct {
	Purpose string `json:"purpose"`
	Remarks string `json:"remarks"`
}

func entriesQuery(c *fiber.Ctx) *gorm.DB {
	q := database.DB.Preload("Items").Order("entry_date DESC, id DESC")

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if entryType := c.Query("entryType"); entryType != "" {
		q = q.Where("entry_type = ?", entryType)
	}
	if wh := c.Query("warehouse"); wh != "" {
		q = q.Where("(from_warehouse = ? OR to_warehouse = ?)", wh, wh)
	}
	if start := c.Query("startDate"); start != "" {
		if d, err := time.Parse("2006-01-02", start); err == nil {
			q = q.Where("entry_date >= ?", d)
		}
	}
	if end := c.Query("endDate"); end != "" {
		if d, err := time.Parse("2006-01-02", end); err == nil {
			q = q.Where("entry_date < ?", d.AddDate(0, 0, 1))
		}
	}
	if search := c.Query("search"); search != "" {
		q = q.Where("entry_no LIKE ?", "%"+search+"%")
	}
	return q
}

// GET /api/stock/entries
func ListEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entries []models.StockEntry
		if err := entriesQuery(c).Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list stock entries")
		}
		return c.JSON(fiber.Map{"success": true, "data": entries, "count": len(entries)})
	}
}

// GET /api/stock/entries/:id
func GetEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := FindEntry(database.DB, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": e})
	}
}

// POST /api/stock/entries
func CreateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEntryInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		e, err := CreateEntry(body, auth.UserID(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": e})
	}
}

// PUT /api/stock/entries/:id
func UpdateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body updateEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		e, err := UpdateEntry(c.Params("id"), body.Purpose, body.Remarks)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": e})
	}
}

// POST /api/stock/entries/:id/submit
func SubmitEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := SubmitEntry(c.Params("id"), auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": e, "message": "Stock entry submitted"})
	}
}

// POST /api/stock/entries/:id/cancel
func CancelEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := CancelEntry(c.Params("id"), auth.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": e, "message": "Stock entry cancelled"})
	}
}

// DELETE /api/stock/entries/:id
func DeleteEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := DeleteEntry(c.Params("id")); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "message": "Stock entry deleted"})
	}
}

// GET /api/stock/entries/next-number?entryType=
func NextEntryNumberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entryType := models.StockEntryType(c.Query("entryType"))
		if !entryType.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "entryType is required")
		}

		entryNo, err := GenerateEntryNo(database.DB, entryType)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate entry number")
		}
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"entry_no": entryNo}})
	}
}

// GET /api/stock/entries/statistics
// Aggregate counts and totals over the (optionally date-bounded) entries.
func StatisticsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entries []models.StockEntry
		if err := entriesQuery(c).Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load stock entries")
		}

		byType := map[models.StockEntryType]int{}
		byStatus := map[models.StockEntryStatus]int{}
		totalQty := decimal.Zero
		totalValue := decimal.Zero
		for _, e := range entries {
			byType[e.EntryType]++
			byStatus[e.Status]++
			totalQty = totalQty.Add(e.TotalQty)
			totalValue = totalValue.Add(e.TotalValue)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"total_entries": len(entries),
				"by_type":       byType,
				"by_status":     byStatus,
				"total_qty":     totalQty,
				"total_value":   totalValue,
			},
		})
	}
}
