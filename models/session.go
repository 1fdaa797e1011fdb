package models

import "time"

// UserProfile is the member identity attached to a session. Contact values
// feed the reminder confirmation step of the appointment flow.
type UserProfile struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// FullName returns the display name used on hand-off requests.
func (u UserProfile) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.ID
	}
	return u.FirstName + " " + u.LastName
}

// ConversationSession is the full state of one member widget conversation.
// At most one of {root menu shown, sub-intents offered, appointment flow}
// drives the offered choice set at any time; ActiveParentIntent persists
// across an appointment sub-flow so navigation can return to it.
type ConversationSession struct {
	ID   string      `json:"id"`
	User UserProfile `json:"user"`

	Messages []ChatMessage `json:"messages"`

	ShowingRootMenu    bool     `json:"showingRootMenu"`
	ActiveParentIntent string   `json:"activeParentIntent,omitempty"`
	SubIntents         []string `json:"subIntents,omitempty"`

	Appointment *AppointmentContext `json:"appointmentContext,omitempty"`

	// AwaitingHandoff suppresses all menu/free-text/appointment input
	// except ending the session. HandoffID is the queue record to poll
	// for agent replies while waiting.
	AwaitingHandoff bool   `json:"awaitingHandoff"`
	HandoffID       string `json:"handoffId,omitempty"`

	// Loading is set while an AI round-trip or a simulated-latency stage
	// transition is in flight; further user actions are rejected until it
	// clears.
	Loading bool `json:"loading"`

	// LastError is the visible error banner text, cleared on the next
	// successful user action.
	LastError string `json:"lastError,omitempty"`

	// Generation increments on every navigation-away action; deferred
	// stage transitions captured under an older generation are stale and
	// must be no-ops.
	Generation uint64 `json:"generation"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AtRootMenu reports whether the session sits at the bare root menu.
func (s *ConversationSession) AtRootMenu() bool {
	return s.ShowingRootMenu && s.SubIntents == nil && s.Appointment == nil && s.ActiveParentIntent == ""
}

// LastMessage returns the most recent message, or nil for an empty session.
func (s *ConversationSession) LastMessage() *ChatMessage {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// SessionView is what the member API returns: the session plus the
// navigation affordances currently visible.
type SessionView struct {
	Session           *ConversationSession `json:"session"`
	NavigationOptions []string             `json:"navigationOptions"`
}
