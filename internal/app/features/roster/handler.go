// internal/app/features/roster/handler.go
package roster

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	coursestore "github.com/dalemusser/rosterhub/internal/app/store/courses"
	rosterstudentstore "github.com/dalemusser/rosterhub/internal/app/store/rosterstudents"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for course rosters.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Courses *coursestore.Store
	Roster  *rosterstudentstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		Courses: coursestore.New(db),
		Roster:  rosterstudentstore.New(db),
	}
}

// StudentDTO is the flattened roster-student representation used by the JSON
// list and the CSV export.
type StudentDTO struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	GithubLogin string `json:"github_login"`
	OrgStatus   string `json:"org_status"`
}

func toDTO(s models.RosterStudent) StudentDTO {
	dto := StudentDTO{
		ID:        s.ID.Hex(),
		CourseID:  s.CourseID.Hex(),
		FullName:  s.FullName,
		Email:     s.Email,
		OrgStatus: string(s.OrgStatus),
	}
	if s.GithubLogin != nil {
		dto.GithubLogin = *s.GithubLogin
	}
	return dto
}

// courseFromRequest loads the course named by the {courseID} URL parameter.
// It writes the error response itself and returns nil when the request
// cannot proceed.
func (h *Handler) courseFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.Course {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "courseID"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid course id")
		return nil
	}
	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load course failed", err, "A database error occurred.")
		return nil
	}
	if course == nil {
		h.ErrLog.NotFound(w, "course not found")
		return nil
	}
	return course
}

// ServeList returns the course roster as JSON.
// GET /api/courses/{courseID}/roster
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list roster")
	defer cancel()

	course := h.courseFromRequest(ctx, w, r)
	if course == nil {
		return
	}

	students, err := h.Roster.ListByCourse(ctx, course.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list roster failed", err, "A database error occurred.")
		return
	}

	dtos := make([]StudentDTO, 0, len(students))
	for _, s := range students {
		dtos = append(dtos, toDTO(s))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dtos)
}
