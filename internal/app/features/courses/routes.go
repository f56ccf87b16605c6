// internal/app/features/courses/routes.go
package courses

import "github.com/go-chi/chi/v5"

// Routes mounts all course routes under the path where the caller mounts it.
// Typically: r.Mount("/api/courses", courses.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeView)

	return r
}
