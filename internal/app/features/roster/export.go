// internal/app/features/roster/export.go
package roster

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeExportCSV streams the course roster as CSV.
// GET /api/courses/{courseID}/roster/export.csv
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "roster CSV export")
	defer cancel()

	course := h.courseFromRequest(ctx, w, r)
	if course == nil {
		return
	}

	students, err := h.Roster.ListByCourse(ctx, course.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "fetch roster for export failed", err, "A database error occurred.")
		return
	}

	filename := fmt.Sprintf("roster_%s.csv", course.ID.Hex())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	// UTF-8 BOM for Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		h.Log.Error("CSV write failed (BOM)", zap.Error(err))
		return
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	defer cw.Flush()

	// Header
	if err := cw.Write([]string{"id", "course_id", "full_name", "email", "github_login", "org_status"}); err != nil {
		h.Log.Error("CSV write failed (header)", zap.Error(err))
		return
	}

	// Rows
	for _, s := range students {
		dto := toDTO(s)
		if err := cw.Write([]string{
			dto.ID,
			dto.CourseID,
			sanitizeCSVField(dto.FullName),
			dto.Email,
			dto.GithubLogin,
			dto.OrgStatus,
		}); err != nil {
			h.Log.Error("CSV write failed (row)", zap.Error(err))
			return
		}
	}

	h.Log.Info("roster CSV exported",
		zap.String("course_id", course.ID.Hex()),
		zap.Int("rows", len(students)))
}

// sanitizeCSVField defuses spreadsheet formula injection by prefixing
// leading formula characters with a single quote.
func sanitizeCSVField(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
