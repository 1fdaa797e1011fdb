package models

// ReminderPayload is the asynq task payload for an appointment reminder.
type ReminderPayload struct {
	SessionID  string `json:"sessionId"`
	UserID     string `json:"userId"`
	Contact    string `json:"contact"`
	Preference string `json:"preference"` // "mobile" or "email"
	Title      string `json:"title"`
	Body       string `json:"body"`
	FireDate   string `json:"fireDate"` // RFC 3339
}
