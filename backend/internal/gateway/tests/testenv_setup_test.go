package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/auth"
	"teachers_portal/backend/internal/gateway"
	"teachers_portal/backend/internal/grade"
	"teachers_portal/backend/internal/gradebook"
	"teachers_portal/backend/internal/maestra"
	"teachers_portal/backend/internal/report"
	"teachers_portal/backend/internal/roster"
	"teachers_portal/backend/internal/shared"
	"teachers_portal/backend/internal/teacher"
)

// ============================================================================
// In-memory stores
// ============================================================================

type memUsers struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*shared.User
	byEmail map[string]*shared.User
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*shared.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*shared.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user *shared.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return auth.ErrDuplicate
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	cp := *user
	m.byID[user.ID] = &cp
	m.byEmail[user.Email] = &cp
	return nil
}

type memSessions struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func (m *memSessions) Create(_ context.Context, s *shared.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[s.Token] = s.ExpiresAt
	return nil
}

func (m *memSessions) Exists(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[token]
	return ok && exp.After(time.Now()), nil
}

func (m *memSessions) DeleteByToken(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return 0, nil
	}
	delete(m.tokens, token)
	return 1, nil
}

type memStudents struct {
	mu      sync.Mutex
	records []roster.Record
}

func (m *memStudents) Find(_ context.Context, q roster.Query) ([]roster.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []roster.Record{}
	for _, r := range m.records {
		if r.GradeLevel == q.GradeLevel && (q.Section == "" || r.Section == q.Section) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStudents) UpdateProfile(_ context.Context, id string, p roster.Profile) (roster.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Profile = p
			return m.records[i], nil
		}
	}
	return roster.Record{}, status.Error(codes.NotFound, "student not found")
}

func (m *memStudents) get(id string) roster.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r
		}
	}
	return roster.Record{}
}

type memAverages struct {
	mu       sync.Mutex
	averages grade.Averages
	err      error
}

func (m *memAverages) AveragesForStudents(_ context.Context, ids []string) (grade.Averages, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := grade.Averages{}
	for _, id := range ids {
		if a, ok := m.averages[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (m *memAverages) set(studentID, subject string, average float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.averages[studentID] == nil {
		m.averages[studentID] = make(map[string]float64)
	}
	m.averages[studentID][subject] = average
}

func (m *memAverages) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// memGrades keeps every saved cell and, like the Mongo store, recomputes
// the subject average from all of them.
type memGrades struct {
	mu       sync.Mutex
	entries  []grade.Entry
	averages *memAverages
}

func (m *memGrades) Save(_ context.Context, e grade.Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	cells := map[string]string{}
	for _, saved := range m.entries {
		if saved.Record.StudentID == e.Record.StudentID && saved.Subject == e.Subject {
			cells[saved.Record.ActivityID] = saved.Record.Value
		}
	}
	m.mu.Unlock()

	m.averages.set(e.Record.StudentID, e.Subject, gradebook.Average(cells))
	return nil
}

func (m *memGrades) saved() []grade.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]grade.Entry{}, m.entries...)
}

// ============================================================================
// Test environment
// ============================================================================

// TestEnv holds the router and the stores behind it
type TestEnv struct {
	Router   http.Handler
	Students *memStudents
	Averages *memAverages
	Grades   *memGrades
	Registry *teacher.Registry
	pingErr  error
}

// setupGatewayTestEnv wires the real services over in-memory stores
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	cfg := &shared.ServiceConfig{
		ServiceName: "portal-test",
		Security: shared.SecurityConfig{
			JWTSecret:          "test-secret",
			JWTExpirationHours: 1,
			BCryptCost:         bcrypt.MinCost,
		},
	}

	env := &TestEnv{
		Students: &memStudents{records: []roster.Record{
			{ID: "s1", FirstNames: "lucia fernanda", LastNames: "torres", GradeLevel: 11, Section: "B"},
			{ID: "s2", FirstNames: "mateo", LastNames: "vargas", GradeLevel: 11, Section: "B"},
			{ID: "s3", FirstNames: "sofia", LastNames: "leon", GradeLevel: 11, Section: "A"},
			{ID: "p1", FirstNames: "eva", LastNames: "luna", GradeLevel: 4, Section: "U"},
		}},
		Averages: &memAverages{averages: grade.Averages{
			"s1": {"Matemáticas": 15, "Historia": 18},
			"s2": {"Matemáticas": 8},
		}},
	}
	env.Grades = &memGrades{averages: env.Averages}

	users := &memUsers{byID: map[string]*shared.User{}, byEmail: map[string]*shared.User{}}
	sessions := &memSessions{tokens: map[string]time.Time{}}
	authService := auth.NewAuthService(users, sessions, cfg, nil, validate, logger)

	writer := grade.NewWriter(env.Grades, 16, time.Second, logger)
	t.Cleanup(writer.Close)

	env.Registry = teacher.NewRegistry(time.Hour, roster.NewSource(env.Students, logger), writer, logger)

	env.Router = gateway.SetupRoutes(&gateway.Services{
		Auth:       authService,
		Workspaces: env.Registry,
		Reports:    report.NewService(env.Students, env.Averages, shared.DefaultReportSubjects, 10, logger),
		Students:   maestra.NewService(env.Students, env.Averages, nil, validate, logger),
		Validate:   validate,
		CORS:       shared.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Logger:     logger,
		Ping: func(context.Context) error {
			return env.pingErr
		},
	})
	return env
}

// do sends a JSON request through the router
func (env *TestEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

// register creates an account and returns its token
func (env *TestEnv) register(t *testing.T, req auth.RegisterRequest) string {
	t.Helper()
	if req.Password == "" {
		req.Password = "secret123"
		req.ConfirmPassword = "secret123"
	}
	rr := env.do(t, http.MethodPost, "/api/auth/register", "", req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var result auth.LoginResult
	decodeData(t, rr, &result)
	require.NotEmpty(t, result.Token)
	return result.Token
}

// registerTeacher signs up a teacher with Matemáticas in 3rd Year B and
// Historia in both sections.
func (env *TestEnv) registerTeacher(t *testing.T) string {
	return env.register(t, auth.RegisterRequest{
		FirstName: "ana",
		LastName:  "perez",
		Email:     "ana.perez@school.test",
		Media:     true,
		MediaAssignments: []auth.AssignmentInput{
			{Area: "Matemáticas", Grado: "11", Seccion: "B"},
			{Area: "Historia", Grado: "11", Seccion: "A"},
			{Area: "Historia", Grado: "11", Seccion: "B"},
		},
	})
}

// decodeData unwraps the {success, data} envelope into dst
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope), rr.Body.String())
	require.True(t, envelope.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

// decodeBody decodes a response that is not wrapped in the data envelope
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

var errDatabaseDown = errors.New("server selection timeout")
