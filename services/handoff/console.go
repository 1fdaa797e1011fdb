// File: services/handoff/console.go
package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/utils"
)

// ConsoleService is the agent-side claim protocol over the shared queue.
type ConsoleService interface {
	ListQueue(ctx context.Context) ([]models.HandoffRequest, error)
	Claim(ctx context.Context, agent models.Agent, requestID string) (*models.HandoffRequest, error)
	Converse(ctx context.Context, agent models.Agent, requestID, text string) (*models.HandoffRequest, error)
	Resolve(ctx context.Context, agent models.Agent, requestID string) (*models.HandoffRequest, error)
	Escalate(ctx context.Context, agent models.Agent, requestID string) (*models.HandoffRequest, error)
	Logout(ctx context.Context, agent models.Agent) error
}

type DefaultConsoleService struct {
	Repo queueRepo.Repository
}

func NewConsoleService(repo queueRepo.Repository) *DefaultConsoleService {
	return &DefaultConsoleService{Repo: repo}
}

// ListQueue returns the full collection, oldest first. The console shows
// pending requests plus the agent's own active one; terminal records stay
// visible for audit.
func (s *DefaultConsoleService) ListQueue(ctx context.Context) ([]models.HandoffRequest, error) {
	return s.Repo.Load(ctx)
}

// Claim takes ownership of a pending request. Re-claiming a request the
// agent already holds is a no-op that returns the current record; a request
// held by another agent fails with ClaimConflictError.
func (s *DefaultConsoleService) Claim(ctx context.Context, agent models.Agent, requestID string) (*models.HandoffRequest, error) {
	claimed, err := s.Repo.CompareAndSwap(ctx, requestID, models.HandoffPending, func(req *models.HandoffRequest) error {
		req.Status = models.HandoffActive
		req.AgentID = agent.ID
		req.AgentRole = string(agent.Role)
		return nil
	})
	if err == nil {
		utils.GetLogger().Info("Handoff claimed",
			zap.String("requestId", requestID),
			zap.String("agentId", agent.ID),
			zap.String("agentRole", string(agent.Role)),
		)
		return claimed, nil
	}
	if !errors.Is(err, queueRepo.ErrConflict) {
		return nil, err
	}

	// Not pending anymore; work out who won.
	current, getErr := s.Repo.Get(ctx, requestID)
	if getErr != nil {
		return nil, getErr
	}
	switch {
	case current.Status.Terminal():
		return nil, &TerminalRequestError{RequestID: requestID, Status: string(current.Status)}
	case current.OwnedBy(agent.ID):
		return current, nil
	default:
		return nil, &ClaimConflictError{RequestID: requestID, HeldBy: current.AgentID}
	}
}

// Converse appends an agent message to the live conversation.
func (s *DefaultConsoleService) Converse(ctx context.Context, agent models.Agent, requestID, text string) (*models.HandoffRequest, error) {
	msg := models.ChatMessage{
		ID:        fmt.Sprintf("agent-msg-%s", uuid.New().String()),
		Text:      text,
		Sender:    models.SenderAgent,
		Timestamp: time.Now().UTC(),
	}
	return s.mutateOwned(ctx, agent, requestID, "converse", func(req *models.HandoffRequest) {
		req.CurrentConversation = append(req.CurrentConversation, msg)
	})
}

// Resolve closes out the request.
func (s *DefaultConsoleService) Resolve(ctx context.Context, agent models.Agent, requestID string) (*models.HandoffRequest, error) {
	return s.mutateOwned(ctx, agent, requestID, "resolve", func(req *models.HandoffRequest) {
		req.Status = models.HandoffResolved
	})
}

// Escalate marks the request escalated to the external ticketing system.
// The original intent stays on the record for the receiving team.
func (s *DefaultConsoleService) Escalate(ctx context.Context, agent models.Agent, requestID string) (*models.HandoffRequest, error) {
	return s.mutateOwned(ctx, agent, requestID, "escalate", func(req *models.HandoffRequest) {
		req.Status = models.HandoffEscalated
	})
}

// Logout demotes every request the agent actively holds back to pending so
// another agent can pick it up.
func (s *DefaultConsoleService) Logout(ctx context.Context, agent models.Agent) error {
	reqs, err := s.Repo.Load(ctx)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		if !req.OwnedBy(agent.ID) {
			continue
		}
		_, err := s.Repo.CompareAndSwap(ctx, req.ID, models.HandoffActive, func(r *models.HandoffRequest) error {
			if r.AgentID != agent.ID {
				return &NotOwnerError{RequestID: r.ID, AgentID: agent.ID}
			}
			r.Status = models.HandoffPending
			r.AgentID = ""
			r.AgentRole = ""
			return nil
		})
		if err != nil && !errors.Is(err, queueRepo.ErrConflict) {
			var notOwner *NotOwnerError
			if errors.As(err, &notOwner) {
				continue
			}
			return err
		}
		utils.GetLogger().Info("Handoff demoted on logout",
			zap.String("requestId", req.ID),
			zap.String("agentId", agent.ID),
		)
	}
	return nil
}

// mutateOwned applies an owner-only mutation through the CAS path. A
// terminal record yields TerminalRequestError, a record held by another
// agent NotOwnerError.
func (s *DefaultConsoleService) mutateOwned(ctx context.Context, agent models.Agent, requestID, op string, apply func(*models.HandoffRequest)) (*models.HandoffRequest, error) {
	updated, err := s.Repo.CompareAndSwap(ctx, requestID, models.HandoffActive, func(req *models.HandoffRequest) error {
		if req.AgentID != agent.ID {
			return &NotOwnerError{RequestID: requestID, AgentID: agent.ID}
		}
		apply(req)
		return nil
	})
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, queueRepo.ErrConflict) {
		current, getErr := s.Repo.Get(ctx, requestID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status.Terminal() {
			return nil, &TerminalRequestError{RequestID: requestID, Status: string(current.Status)}
		}
		return nil, fmt.Errorf("handoff %s: %s rejected, request is %s", requestID, op, current.Status)
	}
	return nil, err
}

// Reconcile applies the poll-cycle ownership rules to a locally held active
// request against a fresh queue snapshot. It returns the record the agent
// should keep holding, or nil when the local view must close (record gone,
// taken over, or terminal).
func Reconcile(held *models.HandoffRequest, snapshot []models.HandoffRequest, agentID string) *models.HandoffRequest {
	if held == nil {
		return nil
	}
	for i := range snapshot {
		if snapshot[i].ID != held.ID {
			continue
		}
		current := snapshot[i]
		if current.Status.Terminal() {
			return nil
		}
		if current.Status == models.HandoffActive && current.AgentID != agentID {
			return nil
		}
		if current.OwnedBy(agentID) {
			return &current
		}
		// Demoted back to pending (e.g. a logout elsewhere); drop it.
		return nil
	}
	return nil
}
