package gateway

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"teachers_portal/backend/internal/gateway/handlers"
	"teachers_portal/backend/internal/shared"
)

// Services holds the backends the HTTP handlers call into.
// It is assembled in main.go and handed to SetupRoutes.
type Services struct {
	Auth       handlers.AuthService
	Workspaces handlers.Workspaces
	Reports    handlers.ReportService
	Students   handlers.StudentDirectory

	Validate *validator.Validate
	CORS     shared.CORSConfig
	Logger   zerolog.Logger

	// Ping reports whether the database is reachable; nil skips the check.
	Ping func(ctx context.Context) error
}
