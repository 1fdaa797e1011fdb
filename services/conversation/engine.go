// File: services/conversation/engine.go
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"careai/models"
	appt "careai/services/appointment"
	"careai/utils"
)

const awaitingAgentText = "You are currently waiting for an agent. To cancel, please end the chat session."

// HandleIntent processes a root-menu selection: hand-off intents queue a
// request and pause the chat, menu intents open a sub-menu or fall through
// to an AI turn.
func (s *DefaultService) HandleIntent(ctx context.Context, sessionID, intent string) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, awaitingAgentText, "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}
	if sess.Loading {
		return nil, &BusyError{SessionID: sessionID}
	}

	if targetRole := s.menu.HandoffIntents[intent]; targetRole != "" {
		s.addUserMessage(sess, intent)
		return s.initiateHandoff(ctx, sess, intent, targetRole)
	}

	s.addUserMessage(sess, intent)
	s.addAIMessage(sess, fmt.Sprintf("Okay, looking into %q for you.", intent), "", true, false)
	sess.Generation++
	sess.ShowingRootMenu = false
	sess.Appointment = nil
	sess.SubIntents = nil
	sess.ActiveParentIntent = intent
	sess.LastError = ""

	if subs, ok := s.menu.SubIntents[intent]; ok && len(subs) > 0 {
		sess.SubIntents = append([]string(nil), subs...)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}

	s.runAITurn(ctx, sess, intent, false)
	s.persist(ctx, sess)
	return s.view(sess), nil
}

// HandleSubIntent processes a sub-menu selection. The booking sub-intent
// under its supporting parent enters the appointment flow; everything else
// becomes an AI prompt of the form "<parent>: <sub>".
func (s *DefaultService) HandleSubIntent(ctx context.Context, sessionID, subIntent string) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, awaitingAgentText, "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}
	if sess.Loading {
		return nil, &BusyError{SessionID: sessionID}
	}

	parent := sess.ActiveParentIntent
	s.addUserMessage(sess, subIntent)
	ack := fmt.Sprintf("Got it. Processing %q...", subIntent)
	if parent != "" {
		ack = fmt.Sprintf("Understood. For %q, I will now address %q.", parent, subIntent)
	}
	s.addAIMessage(sess, ack, "", true, false)
	sess.Generation++
	sess.SubIntents = nil
	sess.LastError = ""

	if strings.EqualFold(subIntent, s.menu.BookingSubIntent) && parent == s.menu.BookingParent {
		s.beginAppointmentFlow(sess, nil)
	} else {
		prompt := subIntent
		if parent != "" {
			prompt = parent + ": " + subIntent
		}
		s.runAITurn(ctx, sess, prompt, false)
	}

	s.persist(ctx, sess)
	return s.view(sess), nil
}

// HandleFreeText sends typed input to the AI. Any open menu or appointment
// context is abandoned first; an extracted booking intent in the reply
// force-enters the appointment flow.
func (s *DefaultService) HandleFreeText(ctx context.Context, sessionID, text string) (*models.SessionView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.GetSession(ctx, sessionID)
	}

	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, awaitingAgentText, "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}
	if sess.Loading {
		return nil, &BusyError{SessionID: sessionID}
	}

	s.addUserMessage(sess, text)
	sess.Generation++
	sess.ShowingRootMenu = false
	sess.Appointment = nil
	sess.SubIntents = nil
	sess.ActiveParentIntent = ""
	sess.LastError = ""

	s.runAITurn(ctx, sess, text, true)
	s.persist(ctx, sess)
	return s.view(sess), nil
}

// runAITurn performs one synchronous AI round-trip. On failure the apology
// message and error banner are added and navigation state is left as is.
func (s *DefaultService) runAITurn(ctx context.Context, sess *models.ConversationSession, prompt string, freeText bool) {
	reply, err := s.ai.SendMessage(ctx, prompt)
	if err != nil {
		utils.GetLogger().Error("AI turn failed",
			zap.String("sessionId", sess.ID), zap.Error(err))
		s.addAIMessage(sess, "", "", false, true)
		sess.LastError = "Failed to get response from AI. Please check your API key and network."
		return
	}

	s.addAIMessage(sess, reply.TextResponse, "-response", false, false)

	if freeText && reply.Entities != nil && reply.Entities.IntentType == models.IntentAppointmentBooking {
		sess.SubIntents = nil
		sess.ActiveParentIntent = s.menu.BookingParent
		sess.ShowingRootMenu = false
		s.beginAppointmentFlow(sess, reply.Entities)
	}
}

// initiateHandoff queues the request; only on a successful append does the
// session enter the paused awaiting state.
func (s *DefaultService) initiateHandoff(ctx context.Context, sess *models.ConversationSession, intent, targetRole string) (*models.SessionView, error) {
	req, err := s.coordinator.Initiate(ctx, sess.User, intent, sess.Messages)
	if err != nil {
		sess.LastError = "Could not initiate handoff. Please try again."
		s.persist(ctx, sess)
		return nil, err
	}

	s.addAIMessage(sess, fmt.Sprintf(
		"Connecting you to %s. Please wait, an agent will be with you shortly. This chat will be paused.",
		targetRole), "-handoff-initiated", true, false)
	sess.Generation++
	sess.AwaitingHandoff = true
	sess.HandoffID = req.ID
	sess.ShowingRootMenu = false
	sess.SubIntents = nil
	sess.ActiveParentIntent = ""
	sess.Appointment = nil
	sess.Loading = false
	sess.LastError = ""

	s.persist(ctx, sess)
	return s.view(sess), nil
}

// beginAppointmentFlow replaces whatever the session was doing with a fresh
// slot listing.
func (s *DefaultService) beginAppointmentFlow(sess *models.ConversationSession, entities *models.ExtractedEntities) {
	parent := sess.ActiveParentIntent
	ctx, msgs := appt.Begin(entities, parent, time.Now())
	sess.Generation++
	sess.Appointment = ctx
	for _, m := range msgs {
		s.addAIMessage(sess, m, "", true, false)
	}
}

// SelectSlot books one of the offered times. The booking itself completes
// after a simulated latency; a navigation away in the meantime voids it.
func (s *DefaultService) SelectSlot(ctx context.Context, sessionID, slot string) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, awaitingAgentText, "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}
	if sess.Loading {
		return nil, &BusyError{SessionID: sessionID}
	}

	s.addUserMessage(sess, fmt.Sprintf("I'd like to book the %s slot.", slot))
	sess.Generation++
	msg, err := appt.SelectTime(sess.Appointment, slot)
	if err != nil {
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
		return nil, err
	}
	s.addAIMessage(sess, msg, "", true, false)
	sess.Loading = true
	sess.LastError = ""

	s.scheduleTransition(sessionID, sess.Generation, s.latencies.Booking, s.completeBooking)

	s.persist(ctx, sess)
	return s.view(sess), nil
}

func (s *DefaultService) completeBooking(ctx context.Context, sess *models.ConversationSession) {
	sess.Loading = false
	msg, err := appt.CompleteBooking(sess.Appointment)
	if err != nil {
		// The flow was interrupted under the same generation (should not
		// happen, transitions are serialized) - reset to slot selection.
		if sess.Appointment != nil {
			s.addAIMessage(sess, "There was an issue with your booking request, or the process was interrupted. Please try selecting a time again.", "", false, true)
			sess.Appointment.Stage = models.StageShowingSlots
			sess.Appointment.SelectedTime = ""
		}
		return
	}
	s.addAIMessage(sess, msg, "", true, false)

	s.scheduleTransition(sess.ID, sess.Generation, s.latencies.ReminderPrompt, func(ctx context.Context, sess *models.ConversationSession) {
		msg, err := appt.PromptReminder(sess.Appointment)
		if err != nil {
			return
		}
		s.addAIMessage(sess, msg, "", true, false)
	})
}

// ChooseAnotherDate runs the alternate-date lookup.
func (s *DefaultService) ChooseAnotherDate(ctx context.Context, sessionID string) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, awaitingAgentText, "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}
	if sess.Loading {
		return nil, &BusyError{SessionID: sessionID}
	}

	s.addUserMessage(sess, "I'd like to choose another date.")
	sess.Generation++
	msg, err := appt.StartNewDate(sess.Appointment)
	if err != nil {
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
		return nil, err
	}
	s.addAIMessage(sess, msg, "", true, false)
	sess.Loading = true
	sess.LastError = ""

	s.scheduleTransition(sessionID, sess.Generation, s.latencies.NewDate, func(ctx context.Context, sess *models.ConversationSession) {
		sess.Loading = false
		msg, err := appt.AdvanceDate(sess.Appointment)
		if err != nil {
			return
		}
		s.addAIMessage(sess, msg, "", true, false)
	})

	s.persist(ctx, sess)
	return s.view(sess), nil
}

// ChooseReminder picks the reminder channel after a confirmed booking.
func (s *DefaultService) ChooseReminder(ctx context.Context, sessionID string, pref models.ReminderPreference) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, awaitingAgentText, "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}
	if sess.Loading {
		return nil, &BusyError{SessionID: sessionID}
	}

	s.addUserMessage(sess, fmt.Sprintf("I'd like a reminder via %s.", pref))
	sess.Generation++
	msg, err := appt.ChooseReminder(sess.Appointment, pref, sess.User)
	if err != nil {
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
		return nil, err
	}
	s.addAIMessage(sess, msg, "", true, false)
	sess.LastError = ""

	s.persist(ctx, sess)
	return s.view(sess), nil
}

// ConfirmContact answers the contact confirmation and wraps the flow up
// after a short delay, returning navigation to where booking started.
func (s *DefaultService) ConfirmContact(ctx context.Context, sessionID string, confirmed bool) (*models.SessionView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	sess := entry.sess

	if sess.AwaitingHandoff {
		s.addAIMessage(sess, awaitingAgentText, "", true, false)
		s.persist(ctx, sess)
		return s.view(sess), nil
	}
	if sess.Loading {
		return nil, &BusyError{SessionID: sessionID}
	}

	if confirmed {
		s.addUserMessage(sess, "Yes, that's correct. Please send the reminder.")
	} else {
		s.addUserMessage(sess, "No, that's not right / I'd prefer not to say.")
	}
	sess.Generation++
	msg, err := appt.ConfirmContact(sess.Appointment, confirmed)
	if err != nil {
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
		return nil, err
	}
	s.addAIMessage(sess, msg, "", true, false)
	sess.LastError = ""

	if confirmed {
		s.scheduleReminder(sess)
	}

	s.scheduleTransition(sessionID, sess.Generation, s.latencies.WrapUp, func(ctx context.Context, sess *models.ConversationSession) {
		msg, err := appt.Finish(sess.Appointment)
		if err != nil {
			return
		}
		s.addAIMessage(sess, msg, "", true, false)

		parent := sess.Appointment.ParentIntentAtBooking
		sess.Appointment = nil
		sess.ShowingRootMenu = false
		if parent != "" {
			sess.ActiveParentIntent = parent
			sess.SubIntents = nil
		} else {
			sess.ActiveParentIntent = ""
		}
	})

	s.persist(ctx, sess)
	return s.view(sess), nil
}

// scheduleReminder enqueues the appointment reminder task. Failures are
// logged; the member already got the confirmation text either way.
func (s *DefaultService) scheduleReminder(sess *models.ConversationSession) {
	if s.reminders == nil || sess.Appointment == nil {
		return
	}
	a := sess.Appointment

	slotTime, err := time.Parse("3:04 PM", a.SelectedTime)
	if err != nil {
		utils.GetLogger().Warn("Unparseable slot time, reminder not scheduled",
			zap.String("sessionId", sess.ID), zap.String("slot", a.SelectedTime))
		return
	}
	apptAt := time.Date(a.CurrentDate.Year(), a.CurrentDate.Month(), a.CurrentDate.Day(),
		slotTime.Hour(), slotTime.Minute(), 0, 0, a.CurrentDate.Location())
	fireAt := apptAt.Add(-s.reminderLead)
	if fireAt.Before(time.Now()) {
		fireAt = time.Now().Add(time.Minute)
	}

	payload := models.ReminderPayload{
		SessionID:  sess.ID,
		UserID:     sess.User.ID,
		Contact:    a.ContactToConfirm,
		Preference: string(a.ReminderPreference),
		Title:      "Upcoming appointment reminder",
		Body: fmt.Sprintf("Your appointment with %s at %s on %s at %s.",
			a.Physician, a.Location, appt.FormatDate(a.CurrentDate, true), a.SelectedTime),
		FireDate: fireAt.Format(time.RFC3339),
	}
	if err := s.reminders.ScheduleReminder(payload, fireAt); err != nil {
		utils.GetLogger().Error("Failed to schedule appointment reminder",
			zap.String("sessionId", sess.ID), zap.Error(err))
	}
}

// scheduleTransition runs fn after delay if the session generation still
// matches. A bumped generation means the member navigated away; the stale
// transition is logged and discarded.
func (s *DefaultService) scheduleTransition(sessionID string, gen uint64, delay time.Duration, fn func(context.Context, *models.ConversationSession)) {
	time.AfterFunc(delay, func() {
		ctx := context.Background()
		entry, err := s.entry(ctx, sessionID)
		if err != nil {
			return
		}
		entry.mu.Lock()
		defer entry.mu.Unlock()
		sess := entry.sess

		if sess.Generation != gen {
			utils.GetLogger().Debug("Discarding stale stage transition",
				zap.String("sessionId", sessionID),
				zap.Uint64("scheduledGeneration", gen),
				zap.Uint64("currentGeneration", sess.Generation),
			)
			return
		}
		fn(ctx, sess)
		s.persist(ctx, sess)
	})
}
