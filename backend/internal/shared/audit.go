package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// Auditor records security-relevant actions
type Auditor interface {
	LogEvent(ctx context.Context, userID, action, resource string, details map[string]interface{})
}

// MongoAuditor writes audit entries to the audit_logs collection
type MongoAuditor struct {
	col    *mongo.Collection
	logger zerolog.Logger
}

// NewMongoAuditor creates an auditor backed by db
func NewMongoAuditor(db *mongo.Database, logger zerolog.Logger) *MongoAuditor {
	return &MongoAuditor{
		col:    db.Collection(CollectionAudit),
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// LogEvent inserts an audit entry. Failures are logged and never surface to the caller.
func (a *MongoAuditor) LogEvent(ctx context.Context, userID, action, resource string, details map[string]interface{}) {
	if err := a.insert(ctx, userID, action, resource, details); err != nil {
		a.logger.Warn().Err(err).Str("action", action).Msg("failed to log audit event")
	}
}

func (a *MongoAuditor) insert(ctx context.Context, userID, action, resource string, details map[string]interface{}) error {
	if a.col == nil {
		return fmt.Errorf("audit collection is nil")
	}

	entry := AuditLog{
		ID:        GenerateID("AUDIT"),
		Timestamp: time.Now(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Details:   details,
	}

	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.col.InsertOne(insertCtx, entry)
	return err
}

// NopAuditor discards audit events
type NopAuditor struct{}

// LogEvent implements Auditor
func (NopAuditor) LogEvent(context.Context, string, string, string, map[string]interface{}) {}
