package database

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes and seeds the fixed
// admin permission catalog. This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	ddlStatements := []string{
		// admin table: registered administrators
		`CREATE TABLE IF NOT EXISTS admin (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// admin_permission table: the fixed permission catalog
		`CREATE TABLE IF NOT EXISTS admin_permission (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE
		)`,

		// admin_permission_xref table: admin <-> permission grants
		`CREATE TABLE IF NOT EXISTS admin_permission_xref (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			admin_id INTEGER NOT NULL,
			admin_permission_id INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (admin_id, admin_permission_id),
			FOREIGN KEY (admin_id) REFERENCES admin(id) ON DELETE CASCADE,
			FOREIGN KEY (admin_permission_id) REFERENCES admin_permission(id) ON DELETE CASCADE
		)`,

		// Index on admin_id for fast grant lookups
		`CREATE INDEX IF NOT EXISTS idx_admin_permission_xref_admin ON admin_permission_xref(admin_id)`,

		// service table: provisioned tenants
		`CREATE TABLE IF NOT EXISTS service (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// service_admin_xref table: service ownership
		`CREATE TABLE IF NOT EXISTS service_admin_xref (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service_id INTEGER NOT NULL,
			admin_id INTEGER NOT NULL,
			UNIQUE (service_id, admin_id),
			FOREIGN KEY (service_id) REFERENCES service(id) ON DELETE CASCADE,
			FOREIGN KEY (admin_id) REFERENCES admin(id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return seedPermissionCatalog(db)
}

// permissionCatalog is the fixed set of admin permission codes. IDs are
// stable; the catalog is seeded, never created through the API.
var permissionCatalog = []struct {
	ID   int64
	Code string
}{
	{1, "CREATE_ADMINS"},
	{2, "DELETE_ADMINS"},
	{3, "GRANT_ADMIN_PERMISSIONS"},
	{4, "REVOKE_ADMIN_PERMISSIONS"},
	{5, "CREATE_SERVICES"},
	{6, "DELETE_SERVICES"},
	{7, "CREATE_USERS"},
	{8, "DELETE_USERS"},
	{9, "CREATE_USER_PERMISSIONS"},
	{10, "DELETE_USER_PERMISSIONS"},
	{11, "GRANT_USER_PERMISSIONS"},
	{12, "REVOKE_USER_PERMISSIONS"},
}

// seedPermissionCatalog inserts the fixed permission rows, skipping any that
// already exist.
func seedPermissionCatalog(db *sql.DB) error {
	for _, p := range permissionCatalog {
		_, err := db.Exec(
			"INSERT OR IGNORE INTO admin_permission (id, code) VALUES (?, ?)",
			p.ID, p.Code)
		if err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", p.Code, err)
		}
	}
	return nil
}
