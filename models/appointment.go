package models

import "time"

// AppointmentStage is a named state within the appointment sub-flow.
type AppointmentStage string

const (
	StageShowingSlots      AppointmentStage = "showingSlots"
	StageChoosingNewDate   AppointmentStage = "choosingNewDate"
	StageConfirmingBooking AppointmentStage = "confirmingBooking"
	StageConfirmed         AppointmentStage = "confirmed"
	StagePromptingReminder AppointmentStage = "promptingReminder"
	StageConfirmingContact AppointmentStage = "confirmingContact"
	StageReminderSet       AppointmentStage = "reminderSet"
)

// ReminderPreference is the channel chosen for an appointment reminder.
type ReminderPreference string

const (
	ReminderMobile ReminderPreference = "mobile"
	ReminderEmail  ReminderPreference = "email"
)

// AppointmentContext holds the state of an in-progress booking. It exists
// only while the session is inside the appointment flow; SelectedTime is
// empty unless the stage is at or past confirmingBooking.
type AppointmentContext struct {
	Physician      string           `json:"physician"`
	Location       string           `json:"location"`
	CurrentDate    time.Time        `json:"currentDate"`
	AvailableTimes []string         `json:"availableTimes"`
	SelectedTime   string           `json:"selectedTime,omitempty"`
	Stage          AppointmentStage `json:"stage"`

	ReminderPreference ReminderPreference `json:"reminderPreference,omitempty"`
	ContactToConfirm   string             `json:"contactToConfirm,omitempty"`

	// ParentIntentAtBooking is the parent intent active when booking
	// started, so navigation can return there once the flow finishes.
	ParentIntentAtBooking string `json:"parentIntentAtBooking,omitempty"`
}

// SelectionAllowed reports whether SelectedTime may be non-empty at the
// context's current stage.
func (a *AppointmentContext) SelectionAllowed() bool {
	switch a.Stage {
	case StageConfirmingBooking, StageConfirmed, StagePromptingReminder,
		StageConfirmingContact, StageReminderSet:
		return true
	}
	return false
}
