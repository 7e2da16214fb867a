package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"teachers_portal/backend/internal/grade"
	"teachers_portal/backend/internal/gradebook"
	"teachers_portal/backend/internal/shared"
)

// Common Credentials
const CommonPassword = "password"

// StudentSeed is one row of the roster collection
type StudentSeed struct {
	FirstNames string
	LastNames  string
	Grade      shared.GradeLevel
	Section    string
	Averages   map[string]float64 // subject -> seeded average
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	logger.Info().Msg("starting database seeder")

	if err := shared.LoadEnv(".env"); err != nil {
		logger.Warn().Msg(".env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer shared.DisconnectMongoDB(client)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// --- 1. Seed Staff ---
	teacherID := seedUsers(ctx, db, cfg.Security.BCryptCost, logger)

	// --- 2. Seed Students ---
	students := []StudentSeed{
		{"lucia fernanda", "torres mendez", 11, "A", map[string]float64{"Matemáticas": 17.5, "Inglés": 16, "Historia": 18}},
		{"mateo andres", "vargas", 11, "A", map[string]float64{"Matemáticas": 9, "Inglés": 12}},
		{"sofia", "leon rivas", 11, "B", map[string]float64{"Matemáticas": 14, "Ciencias Naturales": 15.5}},
		{"diego", "ramirez", 11, "B", nil},
		{"valentina", "castro", 3, "U", map[string]float64{"Matemáticas": 19}},
	}
	ids := seedStudents(ctx, db.Collection(cfg.Portal.StudentsCollection), students, logger)

	// --- 3. Seed Grades & Averages through the grade store ---
	store := grade.NewMongoStore(db, logger)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create grade indexes")
	}
	seedAverages(ctx, store, teacherID, students, ids, logger)

	logger.Info().Msg("all data seeding completed successfully")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

// seedUsers upserts one account per role and returns the teacher's id
func seedUsers(ctx context.Context, db *mongo.Database, cost int, logger zerolog.Logger) string {
	logger.Info().Msg("--- Seeding Staff ---")
	usersCol := db.Collection(shared.CollectionUsers)

	now := time.Now()
	users := []shared.User{
		{
			FirstName: "Ana", LastName: "Pérez", Email: "docente@example.com", Role: shared.RoleDocente,
			Levels: []string{shared.LevelMedia, shared.LevelPrimaria},
			Assignments: []shared.TeacherAssignment{
				{Level: shared.LevelMedia, Area: "Matemáticas", Grade: 11, Section: "A"},
				{Level: shared.LevelMedia, Area: "Matemáticas", Grade: 11, Section: "B"},
				{Level: shared.LevelMedia, Area: "Inglés", Grade: 11, Section: "A"},
				{Level: shared.LevelPrimaria, Area: "Matemáticas", Grade: 3},
			},
		},
		{FirstName: "Carlos", LastName: "Rojas", Email: "coordinador@example.com", Role: shared.RoleCoordinador},
		{FirstName: "Marta", LastName: "Suárez", Email: "maestra@example.com", Role: shared.RoleAdministrativo},
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(CommonPassword), cost)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to hash password")
	}

	for i := range users {
		u := &users[i]
		u.PasswordHash = string(hashedBytes)
		u.CreatedAt = now
		u.UpdatedAt = now

		filter := bson.M{"email": u.Email}
		update := bson.M{"$set": u}
		opts := options.Update().SetUpsert(true)

		if _, err := usersCol.UpdateOne(ctx, filter, update, opts); err != nil {
			logger.Fatal().Err(err).Str("email", u.Email).Msg("error seeding user")
		}
		logger.Info().Str("rol", u.Role).Str("email", u.Email).Msg("seeded user")
	}

	var teacher shared.User
	if err := usersCol.FindOne(ctx, bson.M{"email": users[0].Email}).Decode(&teacher); err != nil {
		logger.Fatal().Err(err).Msg("failed to read back seeded teacher")
	}
	return teacher.ID
}

// seedStudents upserts the roster keyed by name and class, returning the ids in seed order
func seedStudents(ctx context.Context, col *mongo.Collection, seeds []StudentSeed, logger zerolog.Logger) []string {
	logger.Info().Str("collection", col.Name()).Msg("--- Seeding Students ---")

	ids := make([]string, len(seeds))
	for i, s := range seeds {
		filter := bson.M{
			"estudiante_nombres":   s.FirstNames,
			"estudiante_apellidos": s.LastNames,
			"estudiante_grado":     int32(s.Grade),
			"estudiante_seccion":   s.Section,
		}
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

		var doc bson.M
		err := col.FindOneAndUpdate(ctx, filter, bson.M{"$setOnInsert": filter}, opts).Decode(&doc)
		if err != nil {
			logger.Fatal().Err(err).Str("student", s.FirstNames).Msg("error seeding student")
		}
		ids[i] = shared.DocumentID(doc["_id"])
		logger.Info().
			Str("id", ids[i]).
			Str("grade", shared.IntToGrade(s.Grade)).
			Str("section", s.Section).
			Msg("seeded student")
	}
	return ids
}

// seedAverages stores one graded activity per subject, which also sets the subject average
func seedAverages(ctx context.Context, store *grade.MongoStore, teacherID string, seeds []StudentSeed, ids []string, logger zerolog.Logger) {
	logger.Info().Msg("--- Seeding Grades & Averages ---")

	count := 0
	for i, s := range seeds {
		for subject, avg := range s.Averages {
			value := fmt.Sprintf("%g", avg)
			entry := grade.Entry{
				Scope: grade.Scope{TeacherID: teacherID, Subject: subject, GradeLevel: s.Grade, Section: s.Section},
				Record: gradebook.GradeRecord{
					StudentID:  ids[i],
					ActivityID: "seed-" + subject,
					Value:      value,
					Average:    gradebook.Average(map[string]string{"seed": value}),
				},
			}
			if err := store.Save(ctx, entry); err != nil {
				logger.Fatal().Err(err).Str("student_id", ids[i]).Str("subject", subject).Msg("error seeding grade")
			}
			count++
		}
	}
	logger.Info().Int("grades", count).Msg("seeded grades")
}
