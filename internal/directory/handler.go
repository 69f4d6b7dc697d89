package directory

import (
	"strings"

	"erp-backend/internal/database"
	"erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/stock/warehouses
func ListWarehousesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("warehouse_name ASC")

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("(warehouse_name LIKE ? OR warehouse_code LIKE ?)", like, like)
		}
		if active := c.Query("is_active"); active != "" {
			q = q.Where("is_active = ?", active == "true")
		}

		var warehouses []models.Warehouse
		if err := q.Find(&warehouses).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list warehouses")
		}
		return c.JSON(fiber.Map{"success": true, "data": warehouses, "count": len(warehouses)})
	}
}

// GET /api/items
// item_codes accepts a comma separated list for valuation rate lookups.
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("item_code ASC")

		if codes := c.Query("item_codes"); codes != "" {
			var list []string
			for _, code := range strings.Split(codes, ",") {
				if code = strings.TrimSpace(code); code != "" {
					list = append(list, code)
				}
			}
			if len(list) > 0 {
				q = q.Where("item_code IN ?", list)
			}
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("(item_code LIKE ? OR name LIKE ?)", like, like)
		}

		var items []models.Item
		if err := q.Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list items")
		}
		return c.JSON(fiber.Map{"success": true, "data": items, "count": len(items)})
	}
}

// GET /api/stock/balances
func ListBalancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("item_code ASC, warehouse_name ASC")

		if itemCode := c.Query("item_code"); itemCode != "" {
			q = q.Where("item_code = ?", itemCode)
		}
		if wh := c.Query("warehouse"); wh != "" {
			q = q.Where("warehouse_name = ?", wh)
		}

		var balances []models.WarehouseBalance
		if err := q.Find(&balances).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list warehouse balances")
		}
		return c.JSON(fiber.Map{"success": true, "data": balances, "count": len(balances)})
	}
}
