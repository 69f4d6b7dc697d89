package database

import (
	"log"

	"erp-backend/internal/config"
	"erp-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Database connected, migration complete.")
}

// Migrate applies the schema. Exported so tests can run it against their
// own (sqlite) handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Warehouse{},
		&models.Item{},
		&models.GRNRequest{},
		&models.GRNLineItem{},
		&models.GRNRequestLog{},
		&models.StockEntry{},
		&models.StockEntryLineItem{},
		&models.WarehouseBalance{},
	)
}
