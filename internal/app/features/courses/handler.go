// internal/app/features/courses/handler.go
package courses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	coursestore "github.com/dalemusser/rosterhub/internal/app/store/courses"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for Courses.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Courses *coursestore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		Courses: coursestore.New(db),
	}
}

type createCourseRequest struct {
	Name           string `json:"name"`
	InstallationID string `json:"installation_id"`
}

// HandleCreate creates a course and links it to an organization
// installation. POST /api/courses
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode create course request failed", err, "Request body must be JSON with name and installation_id.")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.InstallationID) == "" {
		uierrors.WriteError(w, http.StatusBadRequest, "name and installation_id are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create course")
	defer cancel()

	course, err := h.Courses.Create(ctx, models.Course{
		Name:           req.Name,
		InstallationID: req.InstallationID,
	})
	if errors.Is(err, coursestore.ErrDuplicateInstallation) {
		uierrors.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create course failed", err, "A database error occurred.")
		return
	}

	h.Log.Info("course created",
		zap.String("course_id", course.ID.Hex()),
		zap.String("installation_id", course.InstallationID))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(course)
}

// ServeList lists all courses. GET /api/courses
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list courses")
	defer cancel()

	courses, err := h.Courses.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list courses failed", err, "A database error occurred.")
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(courses)
}

// ServeView returns one course. GET /api/courses/{id}
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view course")
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load course failed", err, "A database error occurred.")
		return
	}
	if course == nil {
		h.ErrLog.NotFound(w, "course not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(course)
}
