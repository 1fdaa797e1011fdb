// File: services/conversation/readback.go
package conversation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/utils"
)

// SyncHandoffs is the member-side read-back cycle, run on the same cadence
// as the agent console's queue poll. For every session waiting on an agent
// it refreshes the hand-off record, splices agent messages the session has
// not seen into the transcript, and closes the hand-off once the record
// reached a terminal status or disappeared.
func (s *DefaultService) SyncHandoffs(ctx context.Context) error {
	s.mu.Lock()
	waiting := make([]*sessionEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		waiting = append(waiting, entry)
	}
	s.mu.Unlock()

	var firstErr error
	for _, entry := range waiting {
		entry.mu.Lock()
		sess := entry.sess
		if !sess.AwaitingHandoff || sess.HandoffID == "" {
			entry.mu.Unlock()
			continue
		}
		if err := s.syncHandoff(ctx, sess); err != nil && firstErr == nil {
			firstErr = err
		}
		entry.mu.Unlock()
	}
	return firstErr
}

func (s *DefaultService) syncHandoff(ctx context.Context, sess *models.ConversationSession) error {
	req, err := s.queue.Get(ctx, sess.HandoffID)
	if errors.Is(err, queueRepo.ErrNotFound) {
		s.closeHandoff(ctx, sess, "The agent session has ended. You're back with CareAI.")
		return nil
	}
	if err != nil {
		utils.GetLogger().Warn("Handoff read-back failed",
			zap.String("sessionId", sess.ID),
			zap.String("requestId", sess.HandoffID),
			zap.Error(err))
		return err
	}

	s.spliceConversation(sess, req)

	if req.Status.Terminal() {
		note := "The agent has marked this conversation as resolved. You're back with CareAI."
		if req.Status == models.HandoffEscalated {
			note = "Your request has been escalated to a support ticket. The team will follow up with you. You're back with CareAI."
		}
		s.closeHandoff(ctx, sess, note)
	} else {
		s.persist(ctx, sess)
	}
	return nil
}

// spliceConversation appends every conversation entry the session does not
// already hold, keeping the member transcript in step with the agent's.
func (s *DefaultService) spliceConversation(sess *models.ConversationSession, req *models.HandoffRequest) {
	seen := make(map[string]struct{}, len(sess.Messages))
	for _, m := range sess.Messages {
		seen[m.ID] = struct{}{}
	}
	for _, m := range req.CurrentConversation {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		sess.Messages = append(sess.Messages, m)
		seen[m.ID] = struct{}{}
	}
}

func (s *DefaultService) closeHandoff(ctx context.Context, sess *models.ConversationSession, note string) {
	s.addAIMessage(sess, note, "", true, false)
	sess.Generation++
	sess.AwaitingHandoff = false
	sess.HandoffID = ""
	sess.ShowingRootMenu = true
	s.persist(ctx, sess)

	utils.GetLogger().Info("Handoff closed on member side",
		zap.String("sessionId", sess.ID))
}
