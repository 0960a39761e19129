package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/meterops/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250214_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Reader{}, &models.Meter{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("meters", "readers", "users")
			},
		},
		{
			ID: "20250302_add_import_batches",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.ImportBatch{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("import_batches")
			},
		},
		{
			ID: "20250302_index_meter_status",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_meters_status ON meters (status)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_meters_status").Error
			},
		},
	})

	return m.Migrate()
}
