// internal/app/features/roster/routes.go
package roster

import "github.com/go-chi/chi/v5"

// Routes mounts the roster routes for one course. The caller mounts this
// under a pattern carrying {courseID}:
// r.Mount("/api/courses/{courseID}/roster", roster.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/export.csv", h.ServeExportCSV)
	r.Post("/upload_csv", h.HandleUploadCSV)

	return r
}
