// internal/app/features/admins/handler.go
package admins

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	adminstore "github.com/dalemusser/rosterhub/internal/app/store/admins"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for admin accounts. Authentication of
// these endpoints is handled by the deployment (reverse proxy / gateway),
// not by this service.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Admins *adminstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
		Admins: adminstore.New(db),
	}
}

// ServeList lists all admins. GET /api/admins
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list admins")
	defer cancel()

	admins, err := h.Admins.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list admins failed", err, "A database error occurred.")
		return
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(admins)
}

// HandleCreate creates a new admin. POST /api/admins?email=
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" || !strings.Contains(email, "@") {
		uierrors.WriteError(w, http.StatusBadRequest, "a valid email query parameter is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create admin")
	defer cancel()

	admin, err := h.Admins.Create(ctx, email)
	if errors.Is(err, adminstore.ErrDuplicateEmail) {
		uierrors.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create admin failed", err, "A database error occurred.")
		return
	}

	h.Log.Info("admin created", zap.String("admin_id", admin.ID.Hex()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(admin)
}

type deleteResponse struct {
	Message string `json:"message"`
}

// HandleDelete deletes an admin. DELETE /api/admins?id=
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.URL.Query().Get("id")))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "a valid id query parameter is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete admin")
	defer cancel()

	deleted, err := h.Admins.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete admin failed", err, "A database error occurred.")
		return
	}
	if deleted == 0 {
		h.ErrLog.NotFound(w, "admin not found")
		return
	}

	h.Log.Info("admin deleted", zap.String("admin_id", id.Hex()))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(deleteResponse{
		Message: fmt.Sprintf("Admin with id %s deleted", id.Hex()),
	})
}
