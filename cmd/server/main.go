package main

import (
	"strings"

	"erp-backend/internal/apperr"
	"erp-backend/internal/auth"
	"erp-backend/internal/config"
	"erp-backend/internal/database"
	"erp-backend/internal/directory"
	"erp-backend/internal/grn"
	"erp-backend/internal/logger"
	"erp-backend/internal/models"
	"erp-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	log := logger.WithModule("server")

	cfg := config.Load()
	database.Init(cfg)
	auth.SeedAdmin(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"success": false,
					"error":   e.Message,
				})
			}
			status := apperr.HTTPStatus(err)
			if status == fiber.StatusInternalServerError {
				log.WithError(err).Error("unexpected error")
				return c.Status(status).JSON(fiber.Map{
					"success": false,
					"error":   "Internal server error",
				})
			}
			return c.Status(status).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// GRN inspection workflow
	qcOnly := auth.RequireRole(models.RoleQC, models.RoleAdmin)
	inventoryOnly := auth.RequireRole(models.RoleInventory, models.RoleAdmin)

	grnRoutes := protected.Group("/grn-requests")
	grnRoutes.Get("", grn.ListGRNRequestsHandler())
	grnRoutes.Get("/:id", grn.GetGRNRequestHandler())
	grnRoutes.Post("", qcOnly, grn.CreateGRNRequestHandler())
	grnRoutes.Post("/:id/start-inspection", qcOnly, grn.StartInspectionHandler())
	grnRoutes.Put("/:id/inspect-item", qcOnly, grn.InspectItemHandler())
	grnRoutes.Post("/:id/send-to-inventory", qcOnly, grn.CompleteInspectionHandler())
	grnRoutes.Post("/:id/reject", qcOnly, grn.RejectGRNRequestHandler())
	grnRoutes.Post("/:id/reopen", qcOnly, grn.ReopenGRNRequestHandler())
	grnRoutes.Post("/:id/send-back", inventoryOnly, grn.SendBackGRNRequestHandler())
	grnRoutes.Post("/:id/inventory-approve", inventoryOnly, grn.InventoryApproveHandler())

	// Stock ledger
	stockRoutes := protected.Group("/stock")
	stockRoutes.Get("/entries/statistics", stock.StatisticsHandler())
	stockRoutes.Get("/entries/next-number", stock.NextEntryNumberHandler())
	stockRoutes.Get("/entries", stock.ListEntriesHandler())
	stockRoutes.Get("/entries/:id", stock.GetEntryHandler())
	stockRoutes.Post("/entries", inventoryOnly, stock.CreateEntryHandler())
	stockRoutes.Put("/entries/:id", inventoryOnly, stock.UpdateEntryHandler())
	stockRoutes.Post("/entries/:id/submit", inventoryOnly, stock.SubmitEntryHandler())
	stockRoutes.Post("/entries/:id/cancel", inventoryOnly, stock.CancelEntryHandler())
	stockRoutes.Delete("/entries/:id", inventoryOnly, stock.DeleteEntryHandler())

	stockRoutes.Get("/warehouses", directory.ListWarehousesHandler())
	stockRoutes.Get("/balances", directory.ListBalancesHandler())

	protected.Get("/items", directory.ListItemsHandler())

	log.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
