package grade

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teachers_portal/backend/internal/gradebook"
	"teachers_portal/backend/internal/shared"
)

// Scope identifies the class a gradebook session grades.
type Scope struct {
	TeacherID  string
	Subject    string
	GradeLevel shared.GradeLevel
	Section    string
}

// Entry is one committed cell together with the class it belongs to.
type Entry struct {
	Scope
	Record gradebook.GradeRecord
}

// Store persists committed grade cells.
type Store interface {
	Save(ctx context.Context, e Entry) error
}

// Averages maps student id to subject to persisted average.
type Averages map[string]map[string]float64

// MongoStore keeps cells in the grades collection and the per-subject
// averages in the averages collection.
type MongoStore struct {
	gradesCol   *mongo.Collection
	averagesCol *mongo.Collection
	logger      zerolog.Logger
}

// NewMongoStore creates a new MongoStore instance
func NewMongoStore(db *mongo.Database, logger zerolog.Logger) *MongoStore {
	return &MongoStore{
		gradesCol:   db.Collection(shared.CollectionGrades),
		averagesCol: db.Collection(shared.CollectionAverages),
		logger:      logger.With().Str("component", "grade_store").Logger(),
	}
}

// EnsureIndexes creates the unique keys the upserts rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.gradesCol.Indexes().CreateOne(queryCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "activity_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("grades index: %w", err)
	}

	if _, err := s.gradesCol.Indexes().CreateOne(queryCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "subject", Value: 1}},
	}); err != nil {
		return fmt.Errorf("grades subject index: %w", err)
	}

	if _, err := s.averagesCol.Indexes().CreateOne(queryCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "subject", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("averages index: %w", err)
	}
	return nil
}

// Save upserts the cell, then recomputes the student's subject average
// from every stored cell of that subject.
func (s *MongoStore) Save(ctx context.Context, e Entry) error {
	now := time.Now()
	opts := options.Update().SetUpsert(true)

	// 1. The cell, keyed by student and activity
	_, err := s.gradesCol.UpdateOne(ctx,
		bson.M{"student_id": e.Record.StudentID, "activity_id": e.Record.ActivityID},
		bson.M{
			"$set": bson.M{
				"value":            e.Record.Value,
				"teacher_id":       e.TeacherID,
				"subject":          e.Subject,
				"grade_level":      int32(e.GradeLevel),
				"section":          e.Section,
				"last_modified_at": now,
			},
			"$setOnInsert": bson.M{"_id": shared.GenerateID("GRD"), "created_at": now},
		}, opts)
	if err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}

	// 2. The subject average covers cells from earlier sessions too
	average, err := s.subjectAverage(ctx, e.Record.StudentID, e.Subject)
	if err != nil {
		return err
	}

	// 3. The running average, keyed by student and subject
	_, err = s.averagesCol.UpdateOne(ctx,
		bson.M{"student_id": e.Record.StudentID, "subject": e.Subject},
		bson.M{
			"$set": bson.M{
				"average":          average,
				"teacher_id":       e.TeacherID,
				"grade_level":      int32(e.GradeLevel),
				"section":          e.Section,
				"last_modified_at": now,
			},
			"$setOnInsert": bson.M{"_id": shared.GenerateID("AVG")},
		}, opts)
	if err != nil {
		return fmt.Errorf("upsert average: %w", err)
	}
	return nil
}

func (s *MongoStore) subjectAverage(ctx context.Context, studentID, subject string) (float64, error) {
	findOptions := options.Find().SetProjection(bson.M{"activity_id": 1, "value": 1})
	cursor, err := s.gradesCol.Find(ctx, bson.M{"student_id": studentID, "subject": subject}, findOptions)
	if err != nil {
		return 0, fmt.Errorf("find subject grades: %w", err)
	}
	defer cursor.Close(ctx)

	cells := make(map[string]string)
	for cursor.Next(ctx) {
		var doc struct {
			ActivityID string `bson:"activity_id"`
			Value      string `bson:"value"`
		}
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn().Err(err).Str("student_id", studentID).Str("subject", subject).Msg("skipping malformed grade document")
			continue
		}
		cells[doc.ActivityID] = doc.Value
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("read subject grades: %w", err)
	}
	return gradebook.Average(cells), nil
}

// AveragesForStudents reads the subject averages of the given students.
func (s *MongoStore) AveragesForStudents(ctx context.Context, studentIDs []string) (Averages, error) {
	if len(studentIDs) == 0 {
		return Averages{}, nil
	}
	return s.findAverages(ctx, bson.M{"student_id": bson.M{"$in": studentIDs}})
}

func (s *MongoStore) findAverages(ctx context.Context, filter bson.M) (Averages, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := s.averagesCol.Find(queryCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("find averages: %w", err)
	}
	defer cursor.Close(queryCtx)

	out := make(Averages)
	for cursor.Next(queryCtx) {
		var doc struct {
			StudentID string  `bson:"student_id"`
			Subject   string  `bson:"subject"`
			Average   float64 `bson:"average"`
		}
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn().
				Err(err).
				Str("average_id", cursor.Current.Lookup("_id").String()).
				Msg("skipping malformed average document")
			continue
		}
		if out[doc.StudentID] == nil {
			out[doc.StudentID] = make(map[string]float64)
		}
		out[doc.StudentID][doc.Subject] = doc.Average
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read averages: %w", err)
	}
	return out, nil
}
