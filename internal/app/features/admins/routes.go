// internal/app/features/admins/routes.go
package admins

import "github.com/go-chi/chi/v5"

// Routes mounts the admin management routes.
//
//	r.Mount("/api/admins", admins.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Delete("/", h.HandleDelete)
	return r
}
