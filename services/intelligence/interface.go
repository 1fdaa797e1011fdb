// File: services/intelligence/interface.go
package ai

import (
	"context"
	"errors"

	"careai/models"
)

// ErrUnavailable is returned when the assistant backend cannot be reached.
var ErrUnavailable = errors.New("ai service unavailable")

// AIService answers free-text member queries and surfaces any appointment
// entities it can extract from the reply.
type AIService interface {
	SendMessage(ctx context.Context, message string) (*models.AIReply, error)
}
