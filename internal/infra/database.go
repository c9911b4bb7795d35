package infra

import (
	"fmt"

	"oticash/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the two engine tables, then applies the SQL patches that GORM cannot
// express — most importantly the partial unique index that enforces the
// single-open-register rule at the storage layer.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique violations surface as gorm.ErrDuplicatedKey so the
		// service layer can map them to ConflictError without driver
		// imports.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.CashRegister{},
		&model.Payment{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches applies idempotent DDL that AutoMigrate cannot
// express. Each statement is safe to re-run on an already-patched schema.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open register system-wide. The insert performed
		// by open() is the atomic check-then-act; a concurrent second
		// open fails on this index instead of both succeeding.
		{"partial unique index on open registers", `
CREATE UNIQUE INDEX IF NOT EXISTS uni_cash_registers_single_open
ON cash_registers (status)
WHERE status = 'open' AND deleted_at IS NULL`},

		// Payments must carry a positive amount; the service validates
		// this too, the constraint is the backstop.
		{"payments positive amount check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_payments_amount_positive') THEN
    ALTER TABLE payments ADD CONSTRAINT chk_payments_amount_positive CHECK (amount > 0);
  END IF;
END $$`},

		// FK from payments to their owning register; a payment belongs to
		// exactly one register for its entire life.
		{"payments register foreign key", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_payments_cash_register') THEN
    ALTER TABLE payments ADD CONSTRAINT fk_payments_cash_register
      FOREIGN KEY (cash_register_id) REFERENCES cash_registers (id);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
