package archiveRepo

import (
	"careai/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

func (r *mongoArchiveRepo) Save(ctx context.Context, session models.ArchivedSession) (string, error) {
	if session.SessionID == "" {
		session.SessionID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		return "", fmt.Errorf("failed to archive session: %w", err)
	}
	return session.SessionID, nil
}

func (r *mongoArchiveRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.ArchivedSession, error) {
	var archived models.ArchivedSession
	err := r.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&archived)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived session %s: %w", sessionID, err)
	}
	return &archived, nil
}

func (r *mongoArchiveRepo) GetByUserID(ctx context.Context, userID string) ([]models.ArchivedSession, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived sessions for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var sessions []models.ArchivedSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode archived sessions: %w", err)
	}
	return sessions, nil
}

func (r *mongoArchiveRepo) AttachFeedback(ctx context.Context, sessionID string, fb models.PostChatFeedback) error {
	update := bson.M{"$set": bson.M{"feedback": fb}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"sessionId": sessionID}, update)
	if err != nil {
		return fmt.Errorf("failed to attach feedback to session %s: %w", sessionID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("archived session %s not found", sessionID)
	}
	return nil
}
