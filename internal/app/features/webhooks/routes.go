// internal/app/features/webhooks/routes.go
package webhooks

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter serving the webhook endpoints.
// Typically: r.Mount("/api/webhooks", webhooks.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/github", h.ServeGitHub)
	return r
}
