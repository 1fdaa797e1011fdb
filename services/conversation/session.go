// File: services/conversation/session.go
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"careai/models"
	"careai/utils"
)

const (
	greetingText = "Hello! I'm CareAI. How can I help you today? You can ask me a question or choose an option below."

	disclaimerText = "Please remember, I am not a substitute for professional medical advice. " +
		"For any medical concerns, please consult a qualified healthcare provider."

	apologyText = "I'm sorry, I encountered an issue processing your request. Please try again later."
)

// StartSession creates a fresh session at the root menu with the risk
// disclaimer and greeting already in the transcript.
func (s *DefaultService) StartSession(ctx context.Context, user models.UserProfile) (*models.SessionView, error) {
	now := time.Now().UTC()
	sess := &models.ConversationSession{
		ID:   uuid.New().String(),
		User: user,
		Messages: []models.ChatMessage{
			{ID: "risk-disclaimer", Text: disclaimerText, Sender: models.SenderAI, Timestamp: now, System: true},
			{ID: "initial-greeting", Text: greetingText, Sender: models.SenderAI, Timestamp: now, System: true},
		},
		ShowingRootMenu: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	entry := &sessionEntry{sess: sess}
	s.mu.Lock()
	s.entries[sess.ID] = entry
	s.mu.Unlock()

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	utils.GetLogger().Info("Conversation session started",
		zap.String("sessionId", sess.ID),
		zap.String("userId", user.ID),
	)
	return s.view(sess), nil
}

// GetSession returns the current session view.
func (s *DefaultService) GetSession(ctx context.Context, sessionID string) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.view(entry.sess), nil
}

// EndSession archives the transcript and leaves the session open only for
// the post-chat feedback submission.
func (s *DefaultService) EndSession(ctx context.Context, sessionID string) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	s.addAIMessage(sess, "CareAI Chat session ended by member.", "-member-ended-session", true, false)

	sess.Generation++
	sess.AwaitingHandoff = false
	sess.HandoffID = ""
	sess.Appointment = nil
	sess.SubIntents = nil
	sess.ActiveParentIntent = ""
	sess.ShowingRootMenu = false
	sess.Loading = false
	sess.LastError = ""

	if s.archive != nil {
		archived := models.ArchivedSession{
			SessionID: sess.ID,
			UserID:    sess.User.ID,
			EndedAt:   time.Now().UTC(),
			Messages:  append([]models.ChatMessage(nil), sess.Messages...),
		}
		if _, err := s.archive.Save(ctx, archived); err != nil {
			utils.GetLogger().Error("Failed to archive ended session",
				zap.String("sessionId", sess.ID), zap.Error(err))
			sess.LastError = "Could not save chat history to the database."
		}
	}

	s.persist(ctx, sess)
	return s.view(sess), nil
}

// SubmitFeedback attaches the post-chat ratings to the archived session and
// discards the live session.
func (s *DefaultService) SubmitFeedback(ctx context.Context, sessionID string, fb models.PostChatFeedback) error {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if s.archive != nil {
		if err := s.archive.AttachFeedback(ctx, sessionID, fb); err != nil {
			utils.GetLogger().Error("Failed to store post-chat feedback",
				zap.String("sessionId", sessionID), zap.Error(err))
		}
	}

	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		utils.GetLogger().Warn("Failed to delete session from store",
			zap.String("sessionId", sessionID), zap.Error(err))
	}
	return nil
}

// MessageFeedback records a thumbs rating on one message.
func (s *DefaultService) MessageFeedback(ctx context.Context, sessionID, messageID string, fb models.MessageFeedback) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	for i := range sess.Messages {
		if sess.Messages[i].ID == messageID {
			rating := fb
			sess.Messages[i].Feedback = &rating
			s.persist(ctx, sess)
			return s.view(sess), nil
		}
	}
	return nil, fmt.Errorf("message %q not found in session %s", messageID, sessionID)
}

// entry returns the registry entry for a session, reloading it from the
// store after a restart.
func (s *DefaultService) entry(ctx context.Context, sessionID string) (*sessionEntry, error) {
	s.mu.Lock()
	if entry, ok := s.entries[sessionID]; ok {
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[sessionID]; ok {
		return entry, nil
	}
	entry := &sessionEntry{sess: sess}
	s.entries[sessionID] = entry
	return entry, nil
}

// persist writes the session through to the store. A write failure is
// logged but never blocks the conversation.
func (s *DefaultService) persist(ctx context.Context, sess *models.ConversationSession) {
	sess.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		utils.GetLogger().Warn("Failed to persist session",
			zap.String("sessionId", sess.ID), zap.Error(err))
	}
}

func (s *DefaultService) addUserMessage(sess *models.ConversationSession, text string) {
	sess.Messages = append(sess.Messages, models.ChatMessage{
		ID:        "user-" + uuid.New().String(),
		Text:      text,
		Sender:    models.SenderUser,
		Timestamp: time.Now().UTC(),
	})
}

// addAIMessage appends an assistant message. The id suffix drives the
// navigation-option visibility rule, so callers pass "-response" for real
// AI answers and "-handoff-initiated" for the hand-off pause notice.
func (s *DefaultService) addAIMessage(sess *models.ConversationSession, text, idSuffix string, system, isErr bool) {
	if isErr {
		text = apologyText
	}
	sess.Messages = append(sess.Messages, models.ChatMessage{
		ID:        "ai-" + uuid.New().String() + idSuffix,
		Text:      text,
		Sender:    models.SenderAI,
		Timestamp: time.Now().UTC(),
		System:    system,
		Error:     isErr,
	})
}

func (s *DefaultService) view(sess *models.ConversationSession) *models.SessionView {
	return &models.SessionView{
		Session:           sess,
		NavigationOptions: s.navigationOptions(sess),
	}
}
