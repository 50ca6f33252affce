package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(32),
		role VARCHAR(32) NOT NULL,
		district_code VARCHAR(8),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_users_role_district ON users (role, district_code);`,
	`CREATE TABLE IF NOT EXISTS homestay_applications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		application_number VARCHAR(64) NOT NULL UNIQUE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		district_code VARCHAR(8) NOT NULL,
		kind VARCHAR(32) NOT NULL,
		category VARCHAR(16) NOT NULL,
		parent_application_id UUID REFERENCES homestay_applications(id) ON DELETE SET NULL,
		parent_application_number VARCHAR(64),
		service_context JSONB,
		status VARCHAR(32) NOT NULL DEFAULT 'draft',
		current_stage VARCHAR(32) NOT NULL DEFAULT 'application',
		property_name VARCHAR(255) NOT NULL,
		owner_name VARCHAR(255) NOT NULL,
		owner_gender VARCHAR(16),
		address TEXT,
		tehsil VARCHAR(128),
		village VARCHAR(128),
		gstin VARCHAR(32),
		location_type VARCHAR(16) NOT NULL DEFAULT 'rural',
		is_special_sub_division BOOLEAN NOT NULL DEFAULT FALSE,
		validity_years INT NOT NULL DEFAULT 1,
		single_bed_rooms INT NOT NULL DEFAULT 0,
		double_bed_rooms INT NOT NULL DEFAULT 0,
		family_suites INT NOT NULL DEFAULT 0,
		single_bed_room_beds INT NOT NULL DEFAULT 1,
		double_bed_room_beds INT NOT NULL DEFAULT 2,
		family_suite_beds INT NOT NULL DEFAULT 3,
		single_bed_room_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		double_bed_room_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		family_suite_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		attached_washrooms INT NOT NULL DEFAULT 0,
		total_rooms INT NOT NULL DEFAULT 0,
		da_id UUID REFERENCES users(id) ON DELETE SET NULL,
		da_review_date TIMESTAMPTZ,
		da_remarks TEXT,
		da_forwarded_date TIMESTAMPTZ,
		dtdo_id UUID REFERENCES users(id) ON DELETE SET NULL,
		dtdo_review_date TIMESTAMPTZ,
		dtdo_remarks TEXT,
		district_notes TEXT,
		rejection_reason TEXT,
		clarification_requested TEXT,
		revert_count INT NOT NULL DEFAULT 0,
		correction_submission_count INT NOT NULL DEFAULT 0,
		site_inspection_outcome VARCHAR(32),
		fee_paid BOOLEAN NOT NULL DEFAULT FALSE,
		payment_reference VARCHAR(128),
		certificate_number VARCHAR(64),
		certificate_issued_date TIMESTAMPTZ,
		certificate_expiry_date TIMESTAMPTZ,
		approved_at TIMESTAMPTZ,
		submitted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_homestay_applications_user_id ON homestay_applications (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_homestay_applications_status ON homestay_applications (status);`,
	`CREATE INDEX IF NOT EXISTS idx_homestay_applications_district ON homestay_applications (district_code);`,
	`CREATE INDEX IF NOT EXISTS idx_homestay_applications_parent_id ON homestay_applications (parent_application_id);`,
	`CREATE INDEX IF NOT EXISTS idx_homestay_applications_kind_status ON homestay_applications (kind, status);`,
	`CREATE TABLE IF NOT EXISTS application_actions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		application_id UUID NOT NULL REFERENCES homestay_applications(id) ON DELETE CASCADE,
		actor_id UUID REFERENCES users(id) ON DELETE SET NULL,
		action VARCHAR(64) NOT NULL,
		previous_status VARCHAR(32),
		new_status VARCHAR(32) NOT NULL,
		feedback TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_application_actions_application_id ON application_actions (application_id);`,
	`CREATE INDEX IF NOT EXISTS idx_application_actions_created_at ON application_actions (created_at);`,
	`CREATE TABLE IF NOT EXISTS application_documents (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		application_id UUID NOT NULL REFERENCES homestay_applications(id) ON DELETE CASCADE,
		doc_type VARCHAR(64) NOT NULL,
		file_url TEXT NOT NULL,
		verification VARCHAR(16) NOT NULL DEFAULT 'pending',
		verified_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_application_documents_application_id ON application_documents (application_id);`,
	`CREATE TABLE IF NOT EXISTS inspection_orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		application_id UUID NOT NULL REFERENCES homestay_applications(id) ON DELETE CASCADE,
		assigned_to UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status VARCHAR(16) NOT NULL DEFAULT 'scheduled',
		scheduled_date TIMESTAMPTZ NOT NULL,
		ordered_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_orders_application_id ON inspection_orders (application_id);`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_orders_assigned_to ON inspection_orders (assigned_to);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_inspection_order_open
		ON inspection_orders (application_id)
		WHERE status = 'scheduled';`,
	`CREATE TABLE IF NOT EXISTS inspection_reports (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL UNIQUE REFERENCES inspection_orders(id) ON DELETE CASCADE,
		application_id UUID NOT NULL REFERENCES homestay_applications(id) ON DELETE CASCADE,
		inspected_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		inspection_date TIMESTAMPTZ NOT NULL,
		recommendation VARCHAR(32) NOT NULL,
		remarks TEXT,
		early_override BOOLEAN NOT NULL DEFAULT FALSE,
		override_justification TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_reports_application_id ON inspection_reports (application_id);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_homestay_applications_updated_at') THEN
			CREATE TRIGGER trg_homestay_applications_updated_at
				BEFORE UPDATE ON homestay_applications
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_inspection_orders_updated_at') THEN
			CREATE TRIGGER trg_inspection_orders_updated_at
				BEFORE UPDATE ON inspection_orders
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_application_documents_updated_at') THEN
			CREATE TRIGGER trg_application_documents_updated_at
				BEFORE UPDATE ON application_documents
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
