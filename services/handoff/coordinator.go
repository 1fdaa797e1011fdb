// File: services/handoff/coordinator.go
package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/utils"
)

// Coordinator creates hand-off requests on behalf of the member widget.
type Coordinator struct {
	repo queueRepo.Repository

	// intentRoles maps a triggering menu intent to the target agent role
	// shown to the member while they wait.
	intentRoles map[string]string
}

func NewCoordinator(repo queueRepo.Repository, intentRoles map[string]string) *Coordinator {
	return &Coordinator{repo: repo, intentRoles: intentRoles}
}

// TargetRole returns the agent role a given intent hands off to, or "" when
// the intent is not a hand-off trigger.
func (c *Coordinator) TargetRole(intent string) string {
	return c.intentRoles[intent]
}

// Initiate appends a pending request carrying a snapshot of the chat so
// far. Nothing else changes until the append succeeds; on store failure the
// caller's session state must stay untouched.
func (c *Coordinator) Initiate(ctx context.Context, user models.UserProfile, intent string, history []models.ChatMessage) (*models.HandoffRequest, error) {
	req := models.HandoffRequest{
		ID:                  uuid.New().String(),
		UserID:              user.ID,
		UserName:            user.FullName(),
		HandoffReason:       intent,
		Timestamp:           time.Now().UTC(),
		Status:              models.HandoffPending,
		InitialMessages:     append([]models.ChatMessage(nil), history...),
		CurrentConversation: append([]models.ChatMessage(nil), history...),
		AgentRole:           c.intentRoles[intent],
		OriginalIntent:      intent,
	}

	if err := c.repo.Append(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to queue handoff request: %w", err)
	}

	utils.GetLogger().Info("Handoff request queued",
		zap.String("requestId", req.ID),
		zap.String("userId", req.UserID),
		zap.String("targetRole", req.AgentRole),
		zap.String("intent", intent),
	)
	return &req, nil
}
