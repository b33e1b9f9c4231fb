package model

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/opsgate/opsgate/internal/apperr"
	"github.com/opsgate/opsgate/internal/database"
)

// Service provisions tenant services. Each service owns a dynamically named
// per-service user table created at provisioning time.
type Service struct {
	db *database.Store
}

// NewService creates the service model.
func NewService(db *database.Store) *Service {
	return &Service{db: db}
}

// Create provisions a new service: the catalog row, the admin ownership
// xref, and the per-service user table. Code and name uniqueness are checked
// concurrently up front (code conflicts win). The xref and table creation
// run in one transaction; if that transaction fails, the already inserted
// service row is deleted before the original error re-propagates, so
// "service exists" and "service fully provisioned" never diverge.
//
// The code must have passed CodeField validation before reaching this point;
// it is interpolated into the user table name.
func (m *Service) Create(ctx context.Context, code, name string, adminID int64) (int64, error) {
	var codeTaken, nameTaken bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		codeTaken, err = m.db.DoesExist(gctx, "service", map[string]any{"code": code}, database.And)
		return err
	})
	g.Go(func() error {
		var err error
		nameTaken, err = m.db.DoesExist(gctx, "service", map[string]any{"name": name}, database.And)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, apperr.Wrap(err)
	}

	if codeTaken {
		return 0, apperr.New(apperr.RecordAlreadyExists, apperr.CodeServiceCodeInUse)
	}
	if nameTaken {
		return 0, apperr.New(apperr.RecordAlreadyExists, apperr.CodeServiceNameInUse)
	}

	rows, err := m.db.Execute(ctx,
		"INSERT INTO service (code, name) VALUES (?, ?) RETURNING id",
		code, name)
	if err != nil {
		return 0, apperr.Wrap(err)
	}
	if len(rows) == 0 {
		return 0, apperr.Wrap(fmt.Errorf("service insert returned no id"))
	}

	serviceID, ok := rows[0]["id"].(int64)
	if !ok {
		return 0, apperr.Wrap(fmt.Errorf("service insert returned non-integer id %v", rows[0]["id"]))
	}

	_, err = m.db.Transaction(ctx, []database.Statement{
		{Query: "INSERT INTO service_admin_xref (service_id, admin_id) VALUES (?, ?)",
			Args: []any{serviceID, adminID}},
		{Query: userTableDDL(code)},
	})
	if err != nil {
		// Compensate: remove the service row so a half-provisioned service
		// is not observable, then surface the original failure.
		if _, delErr := m.db.Execute(ctx, "DELETE FROM service WHERE id = ?", serviceID); delErr != nil {
			return 0, apperr.Wrap(fmt.Errorf("provisioning failed (%v); compensation also failed: %w", err, delErr))
		}
		return 0, apperr.Wrap(err)
	}

	return serviceID, nil
}

// userTableDDL builds the per-service user table definition.
func userTableDDL(code string) string {
	return fmt.Sprintf(`CREATE TABLE service_%s_user (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`, code)
}
