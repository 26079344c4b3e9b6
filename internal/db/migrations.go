package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'change_order_type') THEN
			CREATE TYPE change_order_type AS ENUM ('addition', 'omission');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'invoice_payment_type') THEN
			CREATE TYPE invoice_payment_type AS ENUM ('AdvancePayment', 'ProgressPayment', 'RetentionReleasePayment');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'invoice_status') THEN
			CREATE TYPE invoice_status AS ENUM ('paid', 'partially_paid', 'unpaid');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_method') THEN
			CREATE TYPE payment_method AS ENUM ('CurrentDated', 'PostDated');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_instrument') THEN
			CREATE TYPE payment_instrument AS ENUM ('PDC', 'LC', 'TrustReceipt');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS subcontractors (
		id BIGSERIAL PRIMARY KEY,
		project_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		contact_person VARCHAR(255),
		phone VARCHAR(64),
		email VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id BIGSERIAL PRIMARY KEY,
		subcontractor_id BIGINT NOT NULL REFERENCES subcontractors(id),
		lpo_number VARCHAR(64) NOT NULL,
		lpo_date DATE NOT NULL,
		lpo_value NUMERIC(18,2) NOT NULL,
		vat_percent NUMERIC(5,2) NOT NULL,
		lpo_value_with_vat NUMERIC(18,2) NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_orders_subcontractor ON purchase_orders (subcontractor_id);`,
	`CREATE TABLE IF NOT EXISTS change_orders (
		id BIGSERIAL PRIMARY KEY,
		purchase_order_id BIGINT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		ch_ref_no VARCHAR(64) NOT NULL,
		ch_date DATE NOT NULL,
		type change_order_type NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		vat_amount NUMERIC(18,2) NOT NULL,
		amount_with_vat NUMERIC(18,2) NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_change_orders_po ON change_orders (purchase_order_id);`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id BIGSERIAL PRIMARY KEY,
		subcontractor_id BIGINT NOT NULL REFERENCES subcontractors(id),
		purchase_order_id BIGINT REFERENCES purchase_orders(id),
		change_order_id BIGINT REFERENCES change_orders(id),
		invoice_number VARCHAR(64) NOT NULL,
		invoice_date DATE NOT NULL,
		due_date DATE,
		payment_type invoice_payment_type NOT NULL,
		invoice_amount NUMERIC(18,2) NOT NULL,
		vat_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		down_payment_recovery NUMERIC(18,2) NOT NULL DEFAULT 0,
		advance_recovery NUMERIC(18,2) NOT NULL DEFAULT 0,
		retention NUMERIC(18,2) NOT NULL DEFAULT 0,
		contra_charges_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		total_amount NUMERIC(18,2) NOT NULL,
		status invoice_status NOT NULL DEFAULT 'unpaid',
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_subcontractor ON invoices (subcontractor_id);`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_po ON invoices (purchase_order_id) WHERE purchase_order_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		subcontractor_id BIGINT NOT NULL REFERENCES subcontractors(id),
		total_payment_amount NUMERIC(18,2) NOT NULL,
		total_vat_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		payment_method payment_method NOT NULL,
		instrument_type payment_instrument,
		payment_date DATE NOT NULL,
		due_date DATE,
		liquidated BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_subcontractor ON payments (subcontractor_id);`,
	`CREATE TABLE IF NOT EXISTS payment_invoices (
		id BIGSERIAL PRIMARY KEY,
		payment_id BIGINT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
		invoice_id BIGINT NOT NULL REFERENCES invoices(id),
		payment_amount NUMERIC(18,2) NOT NULL,
		vat_amount NUMERIC(18,2) NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_payment_invoices_payment ON payment_invoices (payment_id);`,
	`CREATE INDEX IF NOT EXISTS idx_payment_invoices_invoice ON payment_invoices (invoice_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
