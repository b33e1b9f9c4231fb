package model

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/opsgate/opsgate/internal/apperr"
	"github.com/opsgate/opsgate/internal/database"
)

// PermissionCode identifies one entry of the fixed permission catalog.
type PermissionCode string

// The permission catalog. Seeded into the database at schema init; never
// created through the API.
const (
	CreateAdmins           PermissionCode = "CREATE_ADMINS"
	DeleteAdmins           PermissionCode = "DELETE_ADMINS"
	GrantAdminPermissions  PermissionCode = "GRANT_ADMIN_PERMISSIONS"
	RevokeAdminPermissions PermissionCode = "REVOKE_ADMIN_PERMISSIONS"
	CreateServices         PermissionCode = "CREATE_SERVICES"
	DeleteServices         PermissionCode = "DELETE_SERVICES"
	CreateUsers            PermissionCode = "CREATE_USERS"
	DeleteUsers            PermissionCode = "DELETE_USERS"
	CreateUserPermissions  PermissionCode = "CREATE_USER_PERMISSIONS"
	DeleteUserPermissions  PermissionCode = "DELETE_USER_PERMISSIONS"
	GrantUserPermissions   PermissionCode = "GRANT_USER_PERMISSIONS"
	RevokeUserPermissions  PermissionCode = "REVOKE_USER_PERMISSIONS"
)

// Permission manages the admin <-> permission grant relation.
type Permission struct {
	db *database.Store
}

// NewPermission creates the permission model.
func NewPermission(db *database.Store) *Permission {
	return &Permission{db: db}
}

// grantState holds the three existence checks shared by Grant and Revoke.
// The checks run concurrently; none of them mutates state, so the write path
// is only reached after all preconditions are confirmed.
type grantState struct {
	permissionExists bool
	adminExists      bool
	grantExists      bool
}

func (m *Permission) checkGrantState(ctx context.Context, permissionID, adminID int64) (grantState, error) {
	var state grantState

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		state.permissionExists, err = m.db.DoesExist(gctx, "admin_permission",
			map[string]any{"id": permissionID}, database.And)
		return err
	})
	g.Go(func() error {
		var err error
		state.adminExists, err = m.db.DoesExist(gctx, "admin",
			map[string]any{"id": adminID}, database.And)
		return err
	})
	g.Go(func() error {
		var err error
		state.grantExists, err = m.db.DoesExist(gctx, "admin_permission_xref",
			map[string]any{"admin_id": adminID, "admin_permission_id": permissionID}, database.And)
		return err
	})
	if err := g.Wait(); err != nil {
		return state, apperr.Wrap(err)
	}

	if !state.permissionExists {
		return state, apperr.New(apperr.RecordNotFound, apperr.CodeAdminPermissionNotFound)
	}
	if !state.adminExists {
		return state, apperr.New(apperr.RecordNotFound, apperr.CodeAdminNotFound)
	}

	return state, nil
}

// Grant gives the permission to the admin. Fails with RecordNotFound when
// the permission or admin does not exist, and RecordAlreadyExists when the
// grant is already in place. No side effect occurs unless all checks pass.
func (m *Permission) Grant(ctx context.Context, permissionID, adminID int64) error {
	state, err := m.checkGrantState(ctx, permissionID, adminID)
	if err != nil {
		return err
	}
	if state.grantExists {
		return apperr.New(apperr.RecordAlreadyExists, apperr.CodeAdminPermissionAlreadyGranted)
	}

	_, err = m.db.Execute(ctx,
		"INSERT INTO admin_permission_xref (admin_id, admin_permission_id) VALUES (?, ?)",
		adminID, permissionID)
	if err != nil {
		return apperr.Wrap(err)
	}

	return nil
}

// Revoke removes the grant. Fails with RecordAlreadyExists ("already
// revoked") when the grant is absent.
func (m *Permission) Revoke(ctx context.Context, permissionID, adminID int64) error {
	state, err := m.checkGrantState(ctx, permissionID, adminID)
	if err != nil {
		return err
	}
	if !state.grantExists {
		return apperr.New(apperr.RecordAlreadyExists, apperr.CodeAdminPermissionAlreadyRevoked)
	}

	_, err = m.db.Execute(ctx,
		"DELETE FROM admin_permission_xref WHERE admin_id = ? AND admin_permission_id = ?",
		adminID, permissionID)
	if err != nil {
		return apperr.Wrap(err)
	}

	return nil
}

// Has checks that the admin holds the permission identified by code. The
// check is a gate: absence is an AuthorizationFailed error, not a boolean.
func (m *Permission) Has(ctx context.Context, code PermissionCode, adminID int64) error {
	rows, err := m.db.Execute(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM admin_permission_xref AS apx
			JOIN admin_permission AS ap ON apx.admin_permission_id = ap.id
			WHERE ap.code = ? AND apx.admin_id = ?
		) AS does_exist`,
		string(code), adminID)
	if err != nil {
		return apperr.Wrap(err)
	}

	if len(rows) == 0 || rows[0]["doesExist"] != int64(1) {
		return apperr.New(apperr.AuthorizationFailed, apperr.CodeNotAuthorized)
	}

	return nil
}
