// File: services/conversation/navigation.go
package conversation

import (
	"context"
	"fmt"
	"strings"

	"careai/models"
	apptFlow "careai/services/appointment"
)

// Navigate handles the "Main Menu" and "Go Back" affordances. Main Menu is
// an unconditional reset; Go Back resolves down a ladder of rules, most
// specific context first.
func (s *DefaultService) Navigate(ctx context.Context, sessionID, navIntent string) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, "You are currently waiting for an agent. To cancel, please end the chat session.", "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}

	switch navIntent {
	case NavMainMenu:
		s.addUserMessage(sess, "Main Menu")
		s.resetToMainMenu(sess, "Okay, returning to the main menu.")
	case NavGoBack:
		s.addUserMessage(sess, "Go Back")
		s.goBack(sess)
	default:
		return nil, fmt.Errorf("unknown navigation intent %q", navIntent)
	}

	s.persist(ctx, sess)
	return s.view(sess), nil
}

func (s *DefaultService) resetToMainMenu(sess *models.ConversationSession, ack string) {
	s.addAIMessage(sess, ack, "", true, false)
	sess.Generation++
	sess.Appointment = nil
	sess.SubIntents = nil
	sess.ActiveParentIntent = ""
	sess.ShowingRootMenu = true
	sess.LastError = ""
	sess.Loading = false
}

// goBack applies the resolution ladder:
//  1. appointment flow past slot selection -> back to slot selection
//  2. appointment flow at slot selection -> parent sub-menu, else root
//  3. sub-menu open -> root menu
//  4. parent intent without sub-menu shown -> reopen its sub-menu
//  5. otherwise root menu; already at root is an idempotent acknowledgement
func (s *DefaultService) goBack(sess *models.ConversationSession) {
	if appt := sess.Appointment; appt != nil {
		switch appt.Stage {
		case models.StagePromptingReminder, models.StageConfirmingContact,
			models.StageReminderSet, models.StageConfirmed:
			msg, err := apptFlow.BackToSlots(appt)
			if err != nil {
				return
			}
			s.addAIMessage(sess, msg, "", true, false)
			sess.Generation++
			return
		case models.StageShowingSlots, models.StageChoosingNewDate:
			parent := appt.ParentIntentAtBooking
			if parent == "" {
				parent = sess.ActiveParentIntent
			}
			sess.Generation++
			sess.Appointment = nil
			if subs, ok := s.menu.SubIntents[parent]; ok && len(subs) > 0 {
				s.addAIMessage(sess, fmt.Sprintf("Returning to options under %q.", parent), "", true, false)
				sess.ActiveParentIntent = parent
				sess.SubIntents = append([]string(nil), subs...)
				sess.ShowingRootMenu = false
			} else {
				s.addAIMessage(sess, "Returning to the main menu.", "", true, false)
				sess.ActiveParentIntent = ""
				sess.SubIntents = nil
				sess.ShowingRootMenu = true
			}
			return
		}
	}

	if sess.SubIntents != nil && sess.ActiveParentIntent != "" {
		s.addAIMessage(sess, "Returning to the main menu.", "", true, false)
		sess.Generation++
		sess.SubIntents = nil
		sess.ActiveParentIntent = ""
		sess.ShowingRootMenu = true
		return
	}

	if sess.ActiveParentIntent != "" && sess.SubIntents == nil && sess.Appointment == nil {
		if subs, ok := s.menu.SubIntents[sess.ActiveParentIntent]; ok && len(subs) > 0 {
			s.addAIMessage(sess, fmt.Sprintf("Okay, here are more options under %q.", sess.ActiveParentIntent), "", true, false)
			sess.Generation++
			sess.SubIntents = append([]string(nil), subs...)
			sess.ShowingRootMenu = false
			return
		}
	}

	if sess.ShowingRootMenu {
		s.addAIMessage(sess, "You are already at the main menu.", "", true, false)
		return
	}
	s.resetToMainMenu(sess, "Returning to the main menu.")
}

// navigationOptions computes which navigation affordances are visible:
// nothing while waiting for an agent or at the true root; otherwise both
// options once the last message is an AI answer, a wrap-up prompt, or a
// sub-menu is open. The hand-off pause notice suppresses them.
func (s *DefaultService) navigationOptions(sess *models.ConversationSession) []string {
	if sess.AwaitingHandoff {
		return nil
	}
	if sess.AtRootMenu() {
		return nil
	}

	last := sess.LastMessage()
	if last == nil {
		return nil
	}
	if strings.Contains(last.ID, "-handoff-initiated") {
		return nil
	}

	eligible := strings.Contains(last.ID, "-response") ||
		(strings.HasPrefix(last.ID, "ai-") && strings.Contains(strings.ToLower(last.Text), "what would you like to do next?")) ||
		sess.SubIntents != nil
	if !eligible {
		return nil
	}
	return []string{"Main Menu", "Go Back"}
}
