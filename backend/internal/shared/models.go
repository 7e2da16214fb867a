// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a staff account stored in the "docentes" collection
type User struct {
	ID           string              `bson:"_id,omitempty" json:"id"` // ObjectID hex for accounts created by the portal
	FirstName    string              `bson:"nombres" json:"first_name"`
	LastName     string              `bson:"apellidos" json:"last_name"`
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         string              `bson:"rol" json:"rol"`         // docente, coordinador, directivo, administrativo
	Levels       []string            `bson:"niveles,omitempty" json:"levels,omitempty"`
	Assignments  []TeacherAssignment `bson:"asignaciones,omitempty" json:"assignments,omitempty"`
	Disabled     bool                `bson:"disabled,omitempty" json:"disabled,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// TeacherAssignment is one subject a teacher gives to a grade (and section, for Media)
type TeacherAssignment struct {
	Level   string     `bson:"nivel" json:"level"` // Media, Primaria
	Area    string     `bson:"area" json:"area"`
	Grade   GradeLevel `bson:"grado" json:"grade"`
	Section string     `bson:"seccion,omitempty" json:"section,omitempty"`
}

// Session represents an active user session (for JWT tracking)
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsActive reports whether the account may sign in
func (u *User) IsActive() bool {
	return !u.Disabled
}

// IsExpired checks if a session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// DashboardRole maps the stored staff role to the dashboard it is routed to
func DashboardRole(rol string) string {
	switch rol {
	case RoleCoordinador, RoleDirectivo:
		return DashboardCoordinator
	case RoleAdministrativo:
		return DashboardMaestra
	default:
		return DashboardTeacher
	}
}

// DashboardPath returns the landing route of a dashboard role
func DashboardPath(dashboardRole string) string {
	return "/dashboard/" + dashboardRole
}

// ============================================================================
// Audit Log Models
// ============================================================================

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string                 `bson:"_id" json:"id"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	UserID    string                 `bson:"user_id" json:"user_id"`
	Action    string                 `bson:"action" json:"action"`
	Resource  string                 `bson:"resource" json:"resource"`
	Details   map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// Stored staff roles
	RoleDocente        = "docente"
	RoleCoordinador    = "coordinador"
	RoleDirectivo      = "directivo"
	RoleAdministrativo = "administrativo"

	// Dashboard roles
	DashboardTeacher     = "teacher"
	DashboardCoordinator = "coordinator"
	DashboardMaestra     = "maestra"

	// Education levels
	LevelMedia    = "Media"
	LevelPrimaria = "Primaria"

	// Audit actions
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionRegister      = "register"
	ActionProfileUpdate = "student_profile_update"

	// Collections
	CollectionUsers    = "docentes"
	CollectionSessions = "sessions"
	CollectionGrades   = "grades"
	CollectionAverages = "averages"
	CollectionAudit    = "audit_logs"
)

// IsValidRole checks if a stored staff role is valid
func IsValidRole(role string) bool {
	validRoles := map[string]bool{
		RoleDocente: true, RoleCoordinador: true, RoleDirectivo: true, RoleAdministrativo: true,
	}
	return validRoles[role]
}
