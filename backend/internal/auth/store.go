package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teachers_portal/backend/internal/shared"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// UserStore persists staff accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*shared.User, error)
	FindByID(ctx context.Context, id string) (*shared.User, error)
	Create(ctx context.Context, user *shared.User) error
}

// SessionStore tracks issued tokens so they can be revoked.
type SessionStore interface {
	Create(ctx context.Context, session *shared.Session) error
	Exists(ctx context.Context, token string) (bool, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
}

// ============================================================================
// MongoDB implementations
// ============================================================================

// MongoUserStore keeps accounts in the docentes collection.
type MongoUserStore struct {
	col *mongo.Collection
}

// NewMongoUserStore creates a user store over db.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection(shared.CollectionUsers)}
}

// EnsureIndexes makes email unique.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(queryCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("docentes email index: %w", err)
	}
	return nil
}

// FindByEmail looks an account up by its login email.
func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*shared.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByID looks an account up by _id.
func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*shared.User, error) {
	return s.findOne(ctx, shared.IDFilter(id))
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user shared.User
	if err := s.col.FindOne(queryCtx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// Create inserts a new account. An empty ID is filled with the generated ObjectID.
func (s *MongoUserStore) Create(ctx context.Context, user *shared.User) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.col.InsertOne(queryCtx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if user.ID == "" {
		user.ID = shared.DocumentID(result.InsertedID)
	}
	return nil
}

// MongoSessionStore keeps sessions in the sessions collection.
type MongoSessionStore struct {
	col *mongo.Collection
}

// NewMongoSessionStore creates a session store over db.
func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{col: db.Collection(shared.CollectionSessions)}
}

// EnsureIndexes indexes tokens and lets MongoDB expire old sessions.
func (s *MongoSessionStore) EnsureIndexes(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateMany(queryCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("sessions indexes: %w", err)
	}
	return nil
}

// Create stores a session.
func (s *MongoSessionStore) Create(ctx context.Context, session *shared.Session) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.col.InsertOne(queryCtx, session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Exists reports whether an unexpired session holds the token.
func (s *MongoSessionStore) Exists(ctx context.Context, token string) (bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := s.col.CountDocuments(queryCtx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now()},
	})
	if err != nil {
		return false, fmt.Errorf("count sessions: %w", err)
	}
	return count > 0, nil
}

// DeleteByToken removes every session holding the token.
func (s *MongoSessionStore) DeleteByToken(ctx context.Context, token string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.col.DeleteMany(queryCtx, bson.M{"token": token})
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return result.DeletedCount, nil
}
