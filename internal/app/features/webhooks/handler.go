// internal/app/features/webhooks/handler.go
package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	coursestore "github.com/dalemusser/rosterhub/internal/app/store/courses"
	rosterstudentstore "github.com/dalemusser/rosterhub/internal/app/store/rosterstudents"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxBodySize bounds one webhook delivery. The platform's payloads are a few
// KB; anything larger is not a membership event.
const maxBodySize = 1 << 20 // 1 MB

// Handler is the feature-level handler for inbound webhooks.
type Handler struct {
	Log *zap.Logger
	Rec *Reconciler
}

func NewHandler(db *mongo.Database, emailDomain string, logger *zap.Logger) *Handler {
	return &Handler{
		Log: logger,
		Rec: &Reconciler{
			Courses:     coursestore.New(db),
			Roster:      rosterstudentstore.New(db),
			EmailDomain: emailDomain,
			Log:         logger,
		},
	}
}

// ServeGitHub handles POST /api/webhooks/github.
//
// Every request is answered 200 regardless of what happens inside: a failure
// status would trigger the platform's retry/backoff behavior and eventually
// disable the webhook. The body is "success" on every no-op path, or the
// serialized updated roster student when a mutation occurred.
func (h *Handler) ServeGitHub(w http.ResponseWriter, r *http.Request) {
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	log := h.Log.With(zap.String("delivery_id", deliveryID))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Warn("failed to read webhook body", zap.Error(err))
		ackSuccess(w)
		return
	}
	log.Info("received webhook", zap.Int("bytes", len(body)))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), log, "webhook reconciliation")
	defer cancel()

	rec := *h.Rec
	rec.Log = log
	outcome := rec.Reconcile(ctx, body)

	if !outcome.Mutated {
		ackSuccess(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(outcome.Student); err != nil {
		log.Error("failed to encode webhook response", zap.Error(err))
	}
}

func ackSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("success"))
}
