package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates every table the portal reads or writes.  Statements are
// idempotent so Migrate can run on each start.  Invoices, payments and
// projects are owned by the back-office forms; they are created here so the
// foreign keys to companies exist in one place.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		email       VARCHAR(255) NULL,
		phone       VARCHAR(64)  NULL,
		address     VARCHAR(512) NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		first_name    VARCHAR(100) NOT NULL,
		last_name     VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('admin','client') NOT NULL DEFAULT 'client',
		company_id    BIGINT UNSIGNED NULL,
		is_active     TINYINT(1) NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		CONSTRAINT fk_users_company FOREIGN KEY (company_id) REFERENCES companies(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS mfa_codes (
		user_id    BIGINT UNSIGNED PRIMARY KEY,
		code       CHAR(6) NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		CONSTRAINT fk_mfa_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS password_resets (
		user_id    BIGINT UNSIGNED PRIMARY KEY,
		token      CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		UNIQUE KEY uq_password_resets_token (token),
		CONSTRAINT fk_reset_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS appointment (
		date         DATE NOT NULL,
		time         TIME NOT NULL,
		is_available TINYINT(1) NOT NULL DEFAULT 1,
		client_name  VARCHAR(255) NULL,
		email        VARCHAR(255) NULL,
		service      VARCHAR(255) NULL,
		message      TEXT NULL,
		PRIMARY KEY (date, time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS projects (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		company_id  BIGINT UNSIGNED NOT NULL,
		name        VARCHAR(255) NOT NULL,
		status      VARCHAR(32) NOT NULL DEFAULT 'active',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_projects_company FOREIGN KEY (company_id) REFERENCES companies(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		company_id    BIGINT UNSIGNED NOT NULL,
		number        VARCHAR(64) NOT NULL,
		amount_cents  BIGINT NOT NULL DEFAULT 0,
		status        VARCHAR(32) NOT NULL DEFAULT 'draft',
		issued_at     DATE NULL,
		due_at        DATE NULL,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_invoices_number (number),
		CONSTRAINT fk_invoices_company FOREIGN KEY (company_id) REFERENCES companies(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		invoice_id       BIGINT UNSIGNED NOT NULL,
		description      VARCHAR(512) NOT NULL,
		quantity         INT NOT NULL DEFAULT 1,
		unit_price_cents BIGINT NOT NULL DEFAULT 0,
		CONSTRAINT fk_items_invoice FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payments (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		invoice_id   BIGINT UNSIGNED NOT NULL,
		amount_cents BIGINT NOT NULL,
		method       VARCHAR(32) NOT NULL,
		paid_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_payments_invoice FOREIGN KEY (invoice_id) REFERENCES invoices(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
