// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminsfeature "github.com/dalemusser/rosterhub/internal/app/features/admins"
	coursesfeature "github.com/dalemusser/rosterhub/internal/app/features/courses"
	errorsfeature "github.com/dalemusser/rosterhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/rosterhub/internal/app/features/health"
	rosterfeature "github.com/dalemusser/rosterhub/internal/app/features/roster"
	webhooksfeature "github.com/dalemusser/rosterhub/internal/app/features/webhooks"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. RosterHub is a JSON API service: it
// mounts the webhook receiver, the course and roster management endpoints,
// the admin endpoints, and the health check.
//
// Authentication of the management endpoints is delegated to the deployment
// (reverse proxy / gateway); the webhook endpoint is intentionally open so
// the upstream platform can deliver events.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.RosterHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Webhook receiver
	webhookHandler := webhooksfeature.NewHandler(deps.RosterHubMongoDatabase, appCfg.EmailDomain, logger)
	r.Mount("/api/webhooks", webhooksfeature.Routes(webhookHandler))

	// Course management
	courseHandler := coursesfeature.NewHandler(deps.RosterHubMongoDatabase, errLog, logger)
	r.Mount("/api/courses", coursesfeature.Routes(courseHandler))

	// Per-course roster management
	rosterHandler := rosterfeature.NewHandler(deps.RosterHubMongoDatabase, errLog, logger)
	r.Mount("/api/courses/{courseID}/roster", rosterfeature.Routes(rosterHandler))

	// Admin accounts
	adminHandler := adminsfeature.NewHandler(deps.RosterHubMongoDatabase, errLog, logger)
	r.Mount("/api/admins", adminsfeature.Routes(adminHandler))

	return r, nil
}
