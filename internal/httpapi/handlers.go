// Package httpapi exposes the admin and service operations over HTTP. Every
// route runs the same pipeline: decode, validate, authenticate, authorize,
// act, respond. Handlers stage a result and never write the response
// themselves; the single send step maps error kinds to statuses and decides
// what gets logged.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opsgate/opsgate/internal/model"
	"github.com/opsgate/opsgate/internal/validate"
)

// Handlers carries the capabilities every route draws from. Models are
// injected once at startup; handlers themselves are stateless.
type Handlers struct {
	logger     *slog.Logger
	admin      *model.Admin
	permission *model.Permission
	service    *model.Service
}

// NewHandlers wires the route handlers to their models.
func NewHandlers(logger *slog.Logger, admin *model.Admin, permission *model.Permission, service *model.Service) *Handlers {
	return &Handlers{
		logger:     logger,
		admin:      admin,
		permission: permission,
		service:    service,
	}
}

// sessionToken reads the opaque bearer credential. The header value is the
// raw token, not a standard auth scheme.
func sessionToken(r *http.Request) string {
	return r.Header.Get("Authorization")
}

// urlParamValue returns the parsed integer URL parameter, or the raw string
// when parsing fails so IntegerField validation rejects it with the
// field-specific format code.
func urlParamValue(r *http.Request, name string) any {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	return id
}

// HandleRegister creates a new admin account.
// POST /admin/register
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := decodeBody(r)

	if errs := validate.Validate(values, map[string]validate.Field{
		"email":    validate.EmailField,
		"username": validate.UsernameField,
		"password": validate.PasswordField,
	}); len(errs) > 0 {
		send(h.logger, w, r, failed(errs...))
		return
	}

	callerID, err := h.admin.Authenticate(ctx, sessionToken(r))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}
	if err := h.permission.Has(ctx, model.CreateAdmins, callerID); err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	adminID, err := h.admin.Create(ctx,
		values["email"].(string), values["username"].(string), values["password"].(string))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(map[string]any{"adminId": adminID}))
}

// HandleDeregister removes an admin account and everything granted to it.
// DELETE /admin/{id}/deregister
func (h *Handlers) HandleDeregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := map[string]any{"id": urlParamValue(r, "id")}

	if errs := validate.Validate(values, map[string]validate.Field{
		"id": validate.IntegerField,
	}); len(errs) > 0 {
		send(h.logger, w, r, failed(errs...))
		return
	}

	callerID, err := h.admin.Authenticate(ctx, sessionToken(r))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}
	if err := h.permission.Has(ctx, model.DeleteAdmins, callerID); err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	if err := h.admin.Remove(ctx, values["id"].(int64)); err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(nil))
}

// HandleLogin verifies credentials and returns the session token.
// POST /admin/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := decodeBody(r)

	if errs := validate.Validate(values, map[string]validate.Field{
		"username": validate.NotEmptyStringField,
		"password": validate.NotEmptyStringField,
	}); len(errs) > 0 {
		send(h.logger, w, r, failed(errs...))
		return
	}

	token, err := h.admin.Login(ctx, values["username"].(string), values["password"].(string))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(map[string]any{"sessionId": token}))
}

// HandleLogout invalidates the caller's session.
// POST /admin/logout
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := sessionToken(r)

	callerID, err := h.admin.Authenticate(ctx, token)
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	if err := h.admin.Logout(ctx, callerID, token); err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(nil))
}

// HandleChangePassword replaces the caller's password after verifying the
// old one.
// PUT /admin/change-password
func (h *Handlers) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := decodeBody(r)

	if errs := validate.Validate(values, map[string]validate.Field{
		"oldPassword": validate.NotEmptyStringField,
		"newPassword": validate.PasswordField,
	}); len(errs) > 0 {
		send(h.logger, w, r, failed(errs...))
		return
	}

	callerID, err := h.admin.Authenticate(ctx, sessionToken(r))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	err = h.admin.ChangePassword(ctx, callerID,
		values["oldPassword"].(string), values["newPassword"].(string))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(nil))
}

// HandleGrantPermission grants a permission to the target admin.
// POST /admin/{adminId}/permissions/grant
// Body: {"id": <permission id>}
func (h *Handlers) HandleGrantPermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := decodeBody(r)
	values["adminId"] = urlParamValue(r, "adminId")

	if errs := validate.Validate(values, map[string]validate.Field{
		"id":      validate.IntegerField,
		"adminId": validate.IntegerField,
	}); len(errs) > 0 {
		send(h.logger, w, r, failed(errs...))
		return
	}

	callerID, err := h.admin.Authenticate(ctx, sessionToken(r))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}
	if err := h.permission.Has(ctx, model.GrantAdminPermissions, callerID); err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	err = h.permission.Grant(ctx, bodyInt64(values["id"]), values["adminId"].(int64))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(nil))
}

// HandleRevokePermission revokes a permission from the target admin.
// DELETE /admin/{adminId}/permissions/revoke/{id}
func (h *Handlers) HandleRevokePermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := map[string]any{
		"adminId": urlParamValue(r, "adminId"),
		"id":      urlParamValue(r, "id"),
	}

	if errs := validate.Validate(values, map[string]validate.Field{
		"adminId": validate.IntegerField,
		"id":      validate.IntegerField,
	}); len(errs) > 0 {
		send(h.logger, w, r, failed(errs...))
		return
	}

	callerID, err := h.admin.Authenticate(ctx, sessionToken(r))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}
	if err := h.permission.Has(ctx, model.RevokeAdminPermissions, callerID); err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	err = h.permission.Revoke(ctx, values["id"].(int64), values["adminId"].(int64))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(nil))
}

// HandleCreateService provisions a new service owned by the caller.
// POST /service
func (h *Handlers) HandleCreateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := decodeBody(r)

	if errs := validate.Validate(values, map[string]validate.Field{
		"code": validate.CodeField,
		"name": validate.NotEmptyStringField,
	}); len(errs) > 0 {
		send(h.logger, w, r, failed(errs...))
		return
	}

	callerID, err := h.admin.Authenticate(ctx, sessionToken(r))
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}
	if err := h.permission.Has(ctx, model.CreateServices, callerID); err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	serviceID, err := h.service.Create(ctx,
		values["code"].(string), values["name"].(string), callerID)
	if err != nil {
		send(h.logger, w, r, actionFailed(err))
		return
	}

	send(h.logger, w, r, succeeded(map[string]any{"serviceId": serviceID}))
}

// bodyInt64 converts a validated integral body field. JSON numbers decode as
// float64; URL parameters arrive as int64 already.
func bodyInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
