// Package roster reads the per-school-year student collection.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/shared"
)

// Query selects the students of one class. An empty Section matches the
// whole grade level.
type Query struct {
	GradeLevel shared.GradeLevel
	Section    string
}

// Profile holds the fields a maestra can edit.
type Profile struct {
	ContactEmail    string `bson:"contact_email" json:"contact_email" validate:"omitempty,email,max=254"`
	ParentName      string `bson:"parent_name" json:"parent_name" validate:"max=120"`
	ParentPhone     string `bson:"parent_phone" json:"parent_phone" validate:"max=40"`
	AcademicNotes   string `bson:"academic_notes" json:"academic_notes" validate:"max=2000"`
	BehavioralNotes string `bson:"behavioral_notes" json:"behavioral_notes" validate:"max=2000"`
}

// Record is one student document.
type Record struct {
	ID         string            `json:"id"`
	FirstNames string            `json:"first_names"`
	LastNames  string            `json:"last_names"`
	GradeLevel shared.GradeLevel `json:"grade_level"`
	Section    string            `json:"section"`
	Profile
}

// Name is the display name of the student.
func (r Record) Name() string { return FormatName(r.FirstNames, r.LastNames) }

// Store reads and updates student documents.
type Store interface {
	Find(ctx context.Context, q Query) ([]Record, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (Record, error)
}

type studentDoc struct {
	ID         interface{}       `bson:"_id"`
	FirstNames string            `bson:"estudiante_nombres"`
	LastNames  string            `bson:"estudiante_apellidos"`
	GradeLevel shared.GradeLevel `bson:"estudiante_grado"`
	Section    string            `bson:"estudiante_seccion"`
	Profile    `bson:",inline"`
}

func (d studentDoc) record() Record {
	return Record{
		ID:         shared.DocumentID(d.ID),
		FirstNames: d.FirstNames,
		LastNames:  d.LastNames,
		GradeLevel: d.GradeLevel,
		Section:    d.Section,
		Profile:    d.Profile,
	}
}

// MongoStore is the Store over a students collection.
type MongoStore struct {
	col    *mongo.Collection
	logger zerolog.Logger
}

// NewMongoStore binds the store to the named collection, e.g. "2025-2026".
func NewMongoStore(db *mongo.Database, collection string, logger zerolog.Logger) *MongoStore {
	return &MongoStore{
		col:    db.Collection(collection),
		logger: logger.With().Str("component", "roster_store").Str("collection", collection).Logger(),
	}
}

// Find returns the students of a class ordered by surname, then given names.
func (s *MongoStore) Find(ctx context.Context, q Query) ([]Record, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// grado is an int in most documents but older imports stored it as text
	filter := bson.M{
		"estudiante_grado": bson.M{"$in": bson.A{int32(q.GradeLevel), strconv.Itoa(int(q.GradeLevel))}},
	}
	if q.Section != "" {
		filter["estudiante_seccion"] = q.Section
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "estudiante_apellidos", Value: 1}, {Key: "estudiante_nombres", Value: 1}})

	cursor, err := s.col.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	defer cursor.Close(queryCtx)

	records := []Record{}
	for cursor.Next(queryCtx) {
		var doc studentDoc
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn().
				Err(err).
				Str("student_id", cursor.Current.Lookup("_id").String()).
				Msg("skipping malformed student document")
			continue
		}
		records = append(records, doc.record())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read students: %w", err)
	}
	return records, nil
}

// UpdateProfile overwrites the editable fields of a student and returns
// the updated document.
func (s *MongoStore) UpdateProfile(ctx context.Context, id string, p Profile) (Record, error) {
	if id == "" {
		return Record{}, status.Error(codes.InvalidArgument, "student id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"contact_email":    p.ContactEmail,
			"parent_name":      p.ParentName,
			"parent_phone":     p.ParentPhone,
			"academic_notes":   p.AcademicNotes,
			"behavioral_notes": p.BehavioralNotes,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc studentDoc
	err := s.col.FindOneAndUpdate(queryCtx, shared.IDFilter(id), update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, status.Errorf(codes.NotFound, "student %s not found", id)
		}
		return Record{}, status.Error(codes.Internal, "failed to update student")
	}
	return doc.record(), nil
}
