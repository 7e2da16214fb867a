package handlers

import (
	"context"

	"teachers_portal/backend/internal/auth"
	"teachers_portal/backend/internal/maestra"
	"teachers_portal/backend/internal/report"
	"teachers_portal/backend/internal/roster"
	"teachers_portal/backend/internal/shared"
	"teachers_portal/backend/internal/teacher"
)

// AuthService is the account and session backend.
type AuthService interface {
	Register(ctx context.Context, req *auth.RegisterRequest) (*auth.LoginResult, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*auth.Identity, error)
}

// Workspaces hands out the gradebook workspace of a teacher.
type Workspaces interface {
	Workspace(user *shared.User) *teacher.Workspace
	Drop(userID string)
}

// ReportService builds the coordinator reports.
type ReportService interface {
	Options(gradeLabel string) report.Options
	ClassReport(ctx context.Context, gradeLabel, section string) (*report.ClassReport, error)
}

// StudentDirectory backs the maestra dashboard.
type StudentDirectory interface {
	ListStudents(ctx context.Context, gradeLabel, section string) ([]maestra.Student, error)
	UpdateProfile(ctx context.Context, actorID, studentID string, p roster.Profile) (maestra.Student, error)
}
