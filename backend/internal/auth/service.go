package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/shared"
)

const tokenIssuer = "teachers-portal"

// AuthService registers staff, signs them in and validates their tokens
type AuthService struct {
	users     UserStore
	sessions  SessionStore
	config    *shared.ServiceConfig
	auditor   shared.Auditor
	validator *validator.Validate
	logger    zerolog.Logger
}

// CustomClaims for JWT
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AssignmentInput is one subject row of the registration form.
type AssignmentInput struct {
	Area    string `json:"area"`
	Grado   string `json:"grado"` // numeric level, e.g. "9" for 1er Año
	Seccion string `json:"seccion,omitempty"`
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	FirstName           string            `json:"nombres"`
	LastName            string            `json:"apellidos"`
	Email               string            `json:"email"`
	Password            string            `json:"password"`
	ConfirmPassword     string            `json:"confirm_password"`
	Role                string            `json:"rol"`
	Media               bool              `json:"media"`
	Primaria            bool              `json:"primaria"`
	MediaAssignments    []AssignmentInput `json:"media_assignments"`
	PrimariaAssignments []AssignmentInput `json:"primaria_assignments"`
}

// LoginResult is returned by Login and Register.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *shared.User `json:"user"`
	Role      string       `json:"role"`
	Redirect  string       `json:"redirect"`
}

// Identity is the caller behind a valid token.
type Identity struct {
	User  *shared.User
	Role  string
	Token string
}

// NewAuthService creates a new AuthService instance
func NewAuthService(users UserStore, sessions SessionStore, config *shared.ServiceConfig, auditor shared.Auditor, validate *validator.Validate, logger zerolog.Logger) *AuthService {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		config:    config,
		auditor:   auditor,
		validator: validate,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a staff account and signs it in
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResult, error) {
	// 1. Form checks, in the order the form reports them
	if req.Password != req.ConfirmPassword {
		return nil, status.Error(codes.InvalidArgument, "passwords do not match")
	}
	email := normalizeEmail(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	if email == "" || req.Password == "" || firstName == "" {
		return nil, status.Error(codes.InvalidArgument, "email, password and first name are required")
	}
	if err := s.validator.Var(email, "email"); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid email address")
	}

	role := req.Role
	if role == "" {
		role = shared.RoleDocente
	}
	if !shared.IsValidRole(role) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid role %q", role)
	}

	levels, assignments, err := buildAssignments(req)
	if err != nil {
		return nil, err
	}

	// 2. Email must be free
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, status.Error(codes.AlreadyExists, "email is already registered")
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Error().Err(err).Msg("failed to check email")
		return nil, status.Error(codes.Internal, "database error")
	}

	// 3. Hash and store
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.Security.BCryptCost)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to process password")
	}

	now := time.Now()
	user := &shared.User{
		FirstName:    firstName,
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Levels:       levels,
		Assignments:  assignments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "email is already registered")
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, status.Error(codes.Internal, "failed to create account")
	}

	s.auditor.LogEvent(ctx, user.ID, shared.ActionRegister, user.ID, map[string]interface{}{"rol": role})

	// 4. Registration signs the user in
	return s.startSession(ctx, user)
}

// Login authenticates a user and returns a JWT
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	// 1. Find User
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		s.logger.Error().Err(err).Msg("failed to look up user")
		return nil, status.Error(codes.Internal, "database error")
	}

	// 2. Check Password (BCrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	if !user.IsActive() {
		return nil, status.Error(codes.PermissionDenied, "account is inactive")
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.auditor.LogEvent(ctx, user.ID, shared.ActionLogin, user.ID, nil)
	return result, nil
}

// Logout invalidates the user's session. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return status.Error(codes.InvalidArgument, "token is required")
	}

	deleted, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete session")
		return status.Error(codes.Internal, "failed to logout")
	}
	if deleted > 0 {
		if _, claims, err := s.parseToken(token); err == nil {
			s.auditor.LogEvent(ctx, claims.UserID, shared.ActionLogout, claims.UserID, nil)
		}
	}
	return nil
}

// ValidateToken checks if a token is valid and active
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "token missing")
	}

	// 1. Parse and Verify Signature locally
	parsed, claims, err := s.parseToken(token)
	if err != nil || !parsed.Valid {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	// 2. Check for an active session (revocation)
	ok, err := s.sessions.Exists(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check session")
		return nil, status.Error(codes.Internal, "failed to validate session")
	}
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "session expired or revoked")
	}

	// 3. Fetch User Details
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "user not found")
	}
	if !user.IsActive() {
		return nil, status.Error(codes.PermissionDenied, "account is inactive")
	}

	return &Identity{User: user, Role: shared.DashboardRole(user.Role), Token: token}, nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (s *AuthService) startSession(ctx context.Context, user *shared.User) (*LoginResult, error) {
	role := shared.DashboardRole(user.Role)

	tokenString, expiresAt, err := s.generateToken(user.ID, role)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to generate token")
	}

	session := &shared.Session{
		ID:        shared.GenerateID("sess"),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, status.Error(codes.Internal, "failed to create session")
	}

	return &LoginResult{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      user,
		Role:      role,
		Redirect:  shared.DashboardPath(role),
	}, nil
}

// generateToken creates a signed JWT
func (s *AuthService) generateToken(userID, role string) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(s.config.Security.JWTExpirationHours) * time.Hour)

	claims := CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens distinct when issued within the same second
			ID:        shared.GenerateID("jti"),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))

	return tokenString, expirationTime, err
}

// parseToken validates the JWT signature and extracts claims
func (s *AuthService) parseToken(tokenString string) (*jwt.Token, *CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Security.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer))

	return token, claims, err
}

// buildAssignments keeps the rows that name both an area and a grade,
// tagged with their level. Rows of an unticked level are ignored.
func buildAssignments(req *RegisterRequest) ([]string, []shared.TeacherAssignment, error) {
	levels := []string{}
	assignments := []shared.TeacherAssignment{}

	collect := func(level string, rows []AssignmentInput, withSection bool) error {
		levels = append(levels, level)
		for _, row := range rows {
			area := strings.TrimSpace(row.Area)
			grado := strings.TrimSpace(row.Grado)
			if area == "" || grado == "" {
				continue
			}
			n, err := strconv.Atoi(grado)
			if err != nil || !shared.GradeLevel(n).Valid() {
				return status.Errorf(codes.InvalidArgument, "invalid grade %q for %s", row.Grado, area)
			}
			a := shared.TeacherAssignment{Level: level, Area: area, Grade: shared.GradeLevel(n)}
			if withSection {
				a.Section = strings.TrimSpace(row.Seccion)
			}
			assignments = append(assignments, a)
		}
		return nil
	}

	if req.Media {
		if err := collect(shared.LevelMedia, req.MediaAssignments, true); err != nil {
			return nil, nil, err
		}
	}
	if req.Primaria {
		if err := collect(shared.LevelPrimaria, req.PrimariaAssignments, false); err != nil {
			return nil, nil, err
		}
	}
	return levels, assignments, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
