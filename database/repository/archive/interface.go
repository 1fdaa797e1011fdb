package archiveRepo

import (
	"careai/database"
	"careai/models"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// SessionArchiveRepository persists ended chat sessions for audit.
type SessionArchiveRepository interface {
	Save(ctx context.Context, session models.ArchivedSession) (string, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.ArchivedSession, error)
	GetByUserID(ctx context.Context, userID string) ([]models.ArchivedSession, error)
	AttachFeedback(ctx context.Context, sessionID string, fb models.PostChatFeedback) error
}

type mongoArchiveRepo struct {
	coll *mongo.Collection
}

// NewMongoArchiveRepo returns a SessionArchiveRepository using MongoDB.
func NewMongoArchiveRepo() SessionArchiveRepository {
	db := database.MongoClient.Database("careai")
	return &mongoArchiveRepo{
		coll: db.Collection("chat_sessions"),
	}
}
