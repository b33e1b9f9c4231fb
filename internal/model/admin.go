// Package model implements the domain models: admin identity and session
// lifecycle, the permission grant/revoke/check operations, and service
// provisioning. Models own their operations but share the injected store
// clients by reference.
package model

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/opsgate/opsgate/internal/apperr"
	"github.com/opsgate/opsgate/internal/database"
	"github.com/opsgate/opsgate/internal/kv"
)

const bcryptCost = 12

// Admin manages admin identity and session lifecycle. It exclusively owns
// the session token mappings in the key-value store.
type Admin struct {
	db *database.Store
	kv *kv.Client
}

// NewAdmin creates the admin model with its injected store clients.
func NewAdmin(db *database.Store, kvc *kv.Client) *Admin {
	return &Admin{db: db, kv: kvc}
}

// sessionKeyByAdmin maps an admin id to its live session token.
func sessionKeyByAdmin(adminID int64) string {
	return "session:admin:" + strconv.FormatInt(adminID, 10)
}

// sessionKeyByToken maps a session token back to its admin id.
func sessionKeyByToken(token string) string {
	return "admin:session:" + token
}

// Create registers a new admin and returns its id. Email and username
// uniqueness are checked concurrently; on conflict the email check wins, so
// EMAIL_IN_USE is reported before USERNAME_IN_USE when both collide.
func (m *Admin) Create(ctx context.Context, email, username, password string) (int64, error) {
	var emailTaken, usernameTaken bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		emailTaken, err = m.db.DoesExist(gctx, "admin", map[string]any{"email": email}, database.And)
		return err
	})
	g.Go(func() error {
		var err error
		usernameTaken, err = m.db.DoesExist(gctx, "admin", map[string]any{"username": username}, database.And)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, apperr.Wrap(err)
	}

	if emailTaken {
		return 0, apperr.New(apperr.RecordAlreadyExists, apperr.CodeEmailInUse)
	}
	if usernameTaken {
		return 0, apperr.New(apperr.RecordAlreadyExists, apperr.CodeUsernameInUse)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, apperr.Wrap(err)
	}

	rows, err := m.db.Execute(ctx,
		"INSERT INTO admin (email, username, password) VALUES (?, ?, ?) RETURNING id",
		email, username, string(hash))
	if err != nil {
		return 0, apperr.Wrap(err)
	}
	if len(rows) == 0 {
		return 0, apperr.Wrap(fmt.Errorf("insert returned no id"))
	}

	id, ok := rows[0]["id"].(int64)
	if !ok {
		return 0, apperr.Wrap(fmt.Errorf("insert returned non-integer id %v", rows[0]["id"]))
	}

	return id, nil
}

// Remove deregisters an admin: one SQL transaction deletes all permission
// grants and the admin row (in that order). A live session is deleted as a
// best-effort follow-up outside the transaction; a leak between the two
// steps is an accepted risk.
func (m *Admin) Remove(ctx context.Context, id int64) error {
	results, err := m.db.Transaction(ctx, []database.Statement{
		{Query: "DELETE FROM admin_permission_xref WHERE admin_id = ?", Args: []any{id}},
		{Query: "DELETE FROM admin WHERE id = ? RETURNING id", Args: []any{id}},
	})
	if err != nil {
		return apperr.Wrap(err)
	}
	if len(results[1]) == 0 {
		return apperr.New(apperr.RecordNotFound, apperr.CodeAdminNotFound)
	}

	token, err := m.kv.Get(ctx, sessionKeyByAdmin(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		return apperr.Wrap(err)
	}

	return m.deleteSession(ctx, id, token)
}

// Login verifies credentials and returns a session token. The username
// argument may be either the email or the username. A missing account and a
// wrong password are indistinguishable to the caller. Login is idempotent:
// an existing live token is reused instead of minting a new one.
func (m *Admin) Login(ctx context.Context, username, password string) (string, error) {
	rows, err := m.db.Execute(ctx,
		"SELECT id, password FROM admin WHERE email = ? OR username = ?",
		username, username)
	if err != nil {
		return "", apperr.Wrap(err)
	}
	if len(rows) == 0 {
		return "", apperr.New(apperr.AuthenticationFailed, apperr.CodeInvalidUsernameOrPassword)
	}

	id, _ := rows[0]["id"].(int64)
	hash, _ := rows[0]["password"].(string)

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", apperr.New(apperr.AuthenticationFailed, apperr.CodeInvalidUsernameOrPassword)
	}

	token, err := m.kv.Get(ctx, sessionKeyByAdmin(id))
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return "", apperr.Wrap(err)
	}

	token, err = newSessionToken()
	if err != nil {
		return "", apperr.Wrap(err)
	}

	_, err = m.kv.Transaction(ctx, []kv.Command{
		kv.Set(sessionKeyByAdmin(id), token),
		kv.Set(sessionKeyByToken(token), strconv.FormatInt(id, 10)),
	})
	if err != nil {
		return "", apperr.Wrap(err)
	}

	return token, nil
}

// Logout deletes both directions of the session mapping unconditionally.
func (m *Admin) Logout(ctx context.Context, id int64, token string) error {
	return m.deleteSession(ctx, id, token)
}

// Authenticate resolves a session token to an admin id. This is the single
// gate every protected route passes through before authorization checks.
// A token whose admin row no longer exists is treated as invalid and the
// orphaned mapping is cleaned up on the spot.
func (m *Admin) Authenticate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, apperr.New(apperr.AuthenticationFailed, apperr.CodeInvalidSessionID)
	}

	value, err := m.kv.Get(ctx, sessionKeyByToken(token))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, apperr.New(apperr.AuthenticationFailed, apperr.CodeInvalidSessionID)
		}
		return 0, apperr.Wrap(err)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, apperr.Wrap(fmt.Errorf("corrupt session mapping for token: %w", err))
	}

	exists, err := m.db.DoesExist(ctx, "admin", map[string]any{"id": id}, database.And)
	if err != nil {
		return 0, apperr.Wrap(err)
	}
	if !exists {
		// Orphaned session left behind by a crash between admin deletion
		// and session cleanup; reconcile here.
		_ = m.deleteSession(ctx, id, token) //nolint:errcheck
		return 0, apperr.New(apperr.AuthenticationFailed, apperr.CodeInvalidSessionID)
	}

	return id, nil
}

// ChangePassword verifies the old password against the stored hash, then
// re-hashes and persists the new one.
func (m *Admin) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	rows, err := m.db.Execute(ctx, "SELECT password FROM admin WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(err)
	}
	if len(rows) == 0 {
		return apperr.New(apperr.RecordNotFound, apperr.CodeAdminNotFound)
	}

	hash, _ := rows[0]["password"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		return apperr.New(apperr.InvalidValue, apperr.CodeInvalidPassword)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return apperr.Wrap(err)
	}

	_, err = m.db.Execute(ctx,
		"UPDATE admin SET password = ?, modified_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(newHash), id)
	if err != nil {
		return apperr.Wrap(err)
	}

	return nil
}

// deleteSession removes both directions of the session mapping atomically.
func (m *Admin) deleteSession(ctx context.Context, id int64, token string) error {
	_, err := m.kv.Transaction(ctx, []kv.Command{
		kv.Del(sessionKeyByAdmin(id)),
		kv.Del(sessionKeyByToken(token)),
	})
	if err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

// newSessionToken mints an opaque 64-character hex token from a
// cryptographically strong random source.
func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
