// internal/app/features/roster/upload.go
package roster

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/rosterhub/internal/app/system/csvutil"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

type uploadResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type uploadErrorResponse struct {
	Error string            `json:"error"`
	Rows  []csvutil.RowError `json:"rows"`
}

// HandleUploadCSV imports a roster CSV for a course. The whole file is
// validated before any write happens, so a rejected upload leaves the roster
// untouched. Rows are keyed by (course, email): existing students keep their
// GitHub login and membership status.
// POST /api/courses/{courseID}/roster/upload_csv (multipart field "roster")
func (h *Handler) HandleUploadCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "roster CSV import")
	defer cancel()

	course := h.courseFromRequest(ctx, w, r)
	if course == nil {
		return
	}

	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse roster upload failed", err, "Upload must be multipart form data with a roster file.")
		return
	}
	file, _, err := r.FormFile("roster")
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "missing roster file", err, `Upload must include a "roster" CSV file.`)
		return
	}
	defer file.Close()

	rows, bad, err := csvutil.PreScanRosterCSV(file)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "roster CSV pre-scan failed", err, "The roster file could not be read as CSV.")
		return
	}
	if len(bad) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(uploadErrorResponse{
			Error: "Upload rejected: one or more rows are invalid. Each row must have a Full Name and an Email.",
			Rows:  bad,
		})
		return
	}

	students := make([]models.RosterStudent, 0, len(rows))
	for _, row := range rows {
		students = append(students, models.RosterStudent{
			FullName: row.FullName,
			Email:    row.Email,
		})
	}

	res, err := h.Roster.UpsertBatch(ctx, course.ID, students)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "roster import failed", err, "A database error occurred during import.")
		return
	}

	h.Log.Info("roster CSV imported",
		zap.String("course_id", course.ID.Hex()),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(uploadResponse{Created: res.Created, Updated: res.Updated})
}
