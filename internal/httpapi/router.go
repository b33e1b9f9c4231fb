package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/opsgate/opsgate/internal/database"
	"github.com/opsgate/opsgate/internal/kv"
	"github.com/opsgate/opsgate/internal/metrics"
	"github.com/opsgate/opsgate/internal/middleware"
)

// maxBodyBytes caps every request body. The largest legitimate payload is a
// registration body, far below this.
const maxBodyBytes = 1 << 20

// NewRouter assembles the full route table under the versioned base path.
// Middleware order matters: request IDs are minted first so both the metrics
// and logging stages can see them, the body cap sits ahead of the logging
// stage that buffers bodies, and the recoverer runs innermost so a handler
// panic still produces a counted, logged 500.
func NewRouter(basePath string, logger *slog.Logger, h *Handlers, db *database.Store, kvc *kv.Client) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(middleware.MaxBodySize(maxBodyBytes))
	r.Use(middleware.HTTPLogging(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(db, kvc))

	r.Route(basePath, func(r chi.Router) {
		r.Post("/admin/register", h.HandleRegister)
		r.Delete("/admin/{id}/deregister", h.HandleDeregister)
		r.Post("/admin/login", h.HandleLogin)
		r.Post("/admin/logout", h.HandleLogout)
		r.Put("/admin/change-password", h.HandleChangePassword)
		r.Post("/admin/{adminId}/permissions/grant", h.HandleGrantPermission)
		r.Delete("/admin/{adminId}/permissions/revoke/{id}", h.HandleRevokePermission)
		r.Post("/service", h.HandleCreateService)
	})

	return r
}

// healthHandler returns OK if the process is alive
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Response write errors are unrecoverable
	fmt.Fprint(w, `{"status":"ok"}`)
}

// readyHandler returns OK once both backing stores answer a ping.
func readyHandler(db *database.Store, kvc *kv.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			//nolint:errcheck // Response write errors are unrecoverable
			fmt.Fprint(w, `{"status":"database unavailable"}`)
			return
		}
		if err := kvc.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			//nolint:errcheck // Response write errors are unrecoverable
			fmt.Fprint(w, `{"status":"session store unavailable"}`)
			return
		}

		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // Response write errors are unrecoverable
		fmt.Fprint(w, `{"status":"ok"}`)
	}
}
