// File: services/appointment/flow.go
package appointment

import (
	"fmt"
	"time"

	"careai/models"
)

// The flow functions below are pure transitions on an AppointmentContext.
// The conversation service owns locking and the deferred steps between
// stages; each function validates the stage it requires and returns the
// system message to show the member.

// Begin builds a fresh booking context in the showingSlots stage from any
// extracted entities. The returned messages are emitted in order; a "today"
// preference adds the limited-availability note before the slot listing.
func Begin(entities *models.ExtractedEntities, parentIntent string, now time.Time) (*models.AppointmentContext, []string) {
	var datePref, timePref string
	if entities != nil {
		datePref = entities.DatePreference
		timePref = entities.TimePreference
	}

	date, todayRedirected := ResolveDate(now, datePref)
	if parentIntent == "" {
		parentIntent = "Member Support"
	}

	ctx := &models.AppointmentContext{
		Physician:             DefaultPhysician,
		Location:              DefaultLocation,
		CurrentDate:           date,
		AvailableTimes:        SlotsFor(timePref),
		Stage:                 models.StageShowingSlots,
		ParentIntentAtBooking: parentIntent,
	}

	var msgs []string
	if todayRedirected {
		msgs = append(msgs, fmt.Sprintf(
			"Appointments for today are often limited. Let me check for tomorrow for %s at %s.",
			ctx.Physician, ctx.Location))
	}
	msgs = append(msgs, fmt.Sprintf(
		"Okay, I've found some available appointments for you with %s at the %s for %s:",
		ctx.Physician, ctx.Location, FormatDate(date, true)))
	return ctx, msgs
}

// SelectTime moves showingSlots to confirmingBooking for an offered slot.
func SelectTime(ctx *models.AppointmentContext, slot string) (string, error) {
	if ctx == nil || ctx.Stage != models.StageShowingSlots {
		return "", &InvalidStageError{Op: "select time", Stage: stageOf(ctx)}
	}
	offered := false
	for _, t := range ctx.AvailableTimes {
		if t == slot {
			offered = true
			break
		}
	}
	if !offered {
		return "", &UnknownSlotError{Time: slot}
	}

	ctx.Stage = models.StageConfirmingBooking
	ctx.SelectedTime = slot
	return fmt.Sprintf("Okay, attempting to book your appointment for %s with %s...",
		slot, ctx.Physician), nil
}

// CompleteBooking moves confirmingBooking to confirmed.
func CompleteBooking(ctx *models.AppointmentContext) (string, error) {
	if ctx == nil || ctx.Stage != models.StageConfirmingBooking || ctx.SelectedTime == "" {
		return "", &InvalidStageError{Op: "complete booking", Stage: stageOf(ctx)}
	}
	ctx.Stage = models.StageConfirmed
	return fmt.Sprintf("Great! Your upcoming appointment with %s at %s on %s at %s is confirmed.",
		ctx.Physician, ctx.Location, FormatDate(ctx.CurrentDate, true), ctx.SelectedTime), nil
}

// PromptReminder moves confirmed to promptingReminder.
func PromptReminder(ctx *models.AppointmentContext) (string, error) {
	if ctx == nil || ctx.Stage != models.StageConfirmed {
		return "", &InvalidStageError{Op: "prompt reminder", Stage: stageOf(ctx)}
	}
	ctx.Stage = models.StagePromptingReminder
	return "Would you like a reminder for this appointment via mobile or email?", nil
}

// StartNewDate moves showingSlots to choosingNewDate.
func StartNewDate(ctx *models.AppointmentContext) (string, error) {
	if ctx == nil || ctx.Stage != models.StageShowingSlots {
		return "", &InvalidStageError{Op: "choose another date", Stage: stageOf(ctx)}
	}
	ctx.Stage = models.StageChoosingNewDate
	return "Sure, let's look for other dates.", nil
}

// AdvanceDate completes a choosingNewDate search: the date moves forward one
// day, the alternate slot set is offered, and the stage returns to
// showingSlots with no selection.
func AdvanceDate(ctx *models.AppointmentContext) (string, error) {
	if ctx == nil || ctx.Stage != models.StageChoosingNewDate {
		return "", &InvalidStageError{Op: "advance date", Stage: stageOf(ctx)}
	}
	ctx.CurrentDate = ctx.CurrentDate.AddDate(0, 0, 1)
	ctx.AvailableTimes = AlternateSlots()
	ctx.SelectedTime = ""
	ctx.Stage = models.StageShowingSlots
	return fmt.Sprintf("How about these times for %s with %s?",
		FormatDate(ctx.CurrentDate, true), ctx.Physician), nil
}

// ChooseReminder moves promptingReminder to confirmingContact, capturing the
// channel and the contact value to be confirmed.
func ChooseReminder(ctx *models.AppointmentContext, pref models.ReminderPreference, user models.UserProfile) (string, error) {
	if ctx == nil || ctx.Stage != models.StagePromptingReminder {
		return "", &InvalidStageError{Op: "choose reminder", Stage: stageOf(ctx)}
	}

	contact := user.PhoneNumber
	contactType := "registered phone number"
	if pref == models.ReminderEmail {
		contact = user.Email
		contactType = "registered email"
	}

	ctx.Stage = models.StageConfirmingContact
	ctx.ReminderPreference = pref
	ctx.ContactToConfirm = contact
	return fmt.Sprintf("Okay, I can send a reminder to your %s: %s. Is this correct?",
		contactType, contact), nil
}

// ConfirmContact moves confirmingContact to reminderSet. The message differs
// by whether the member confirmed the contact, but the stage advances either
// way so the flow can wrap up.
func ConfirmContact(ctx *models.AppointmentContext, confirmed bool) (string, error) {
	if ctx == nil || ctx.Stage != models.StageConfirmingContact {
		return "", &InvalidStageError{Op: "confirm contact", Stage: stageOf(ctx)}
	}
	ctx.Stage = models.StageReminderSet
	if confirmed {
		return "Excellent! I've set up a reminder for your appointment. You'll receive it closer to the date.", nil
	}
	return "Okay, please ensure your contact information is up to date in your profile settings. " +
		"For now, I won't set up an automated reminder.", nil
}

// Finish closes out a reminderSet context. The caller clears the context and
// returns navigation to the intent recorded at booking time.
func Finish(ctx *models.AppointmentContext) (string, error) {
	if ctx == nil || ctx.Stage != models.StageReminderSet {
		return "", &InvalidStageError{Op: "finish", Stage: stageOf(ctx)}
	}
	return "Your appointment is all set! What would you like to do next?", nil
}

// BackToSlots rewinds a post-confirmation stage to slot selection, dropping
// the selection and any reminder state. Used by the back navigation.
func BackToSlots(ctx *models.AppointmentContext) (string, error) {
	if ctx == nil {
		return "", &InvalidStageError{Op: "back to slots", Stage: stageOf(ctx)}
	}
	ctx.Stage = models.StageShowingSlots
	ctx.SelectedTime = ""
	ctx.ReminderPreference = ""
	ctx.ContactToConfirm = ""
	return fmt.Sprintf("Going back to appointment time selection for %s.", ctx.Physician), nil
}

func stageOf(ctx *models.AppointmentContext) string {
	if ctx == nil {
		return "none"
	}
	return string(ctx.Stage)
}
