package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careai/models"
)

// Tuesday.
var baseNow = time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name     string
		pref     string
		wantDate time.Time
		wantNote bool
	}{
		{"empty defaults to tomorrow", "", baseNow.AddDate(0, 0, 1), false},
		{"tomorrow", "tomorrow", baseNow.AddDate(0, 0, 1), false},
		{"today redirects to tomorrow with note", "today", baseNow.AddDate(0, 0, 1), true},
		{"next friday this week", "next friday", time.Date(2026, time.September, 4, 10, 0, 0, 0, time.UTC), false},
		{"next tuesday wraps a full week", "next tuesday", time.Date(2026, time.September, 8, 10, 0, 0, 0, time.UTC), false},
		{"next monday already passed", "next monday", time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC), false},
		{"unrecognized falls back to tomorrow", "whenever works", baseNow.AddDate(0, 0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, note := ResolveDate(baseNow, tt.pref)
			assert.Equal(t, tt.wantDate, got)
			assert.Equal(t, tt.wantNote, note)
		})
	}
}

func TestSlotsFor(t *testing.T) {
	assert.Len(t, SlotsFor(""), 6)
	assert.Equal(t, []string{"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM", "11:00 AM"}, SlotsFor("morning"))
	assert.Len(t, SlotsFor("afternoon"), 5)
	assert.Equal(t, []string{"5:00 PM", "5:30 PM", "6:00 PM"}, SlotsFor("evening"))
	assert.Len(t, SlotsFor("around noon"), 6)
}

func TestBeginDefaults(t *testing.T) {
	ctx, msgs := Begin(nil, "", baseNow)

	assert.Equal(t, models.StageShowingSlots, ctx.Stage)
	assert.Equal(t, DefaultPhysician, ctx.Physician)
	assert.Equal(t, DefaultLocation, ctx.Location)
	assert.Equal(t, "Member Support", ctx.ParentIntentAtBooking)
	assert.Len(t, ctx.AvailableTimes, 6)
	assert.Empty(t, ctx.SelectedTime)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "I've found some available appointments")
}

func TestBeginTodayMorningPreference(t *testing.T) {
	entities := &models.ExtractedEntities{
		IntentType:     models.IntentAppointmentBooking,
		DatePreference: "today",
		TimePreference: "morning",
	}
	ctx, msgs := Begin(entities, "Member Support", baseNow)

	assert.Len(t, ctx.AvailableTimes, 5)
	assert.Equal(t, baseNow.AddDate(0, 0, 1).Day(), ctx.CurrentDate.Day())
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "Appointments for today are often limited")
}

func TestSelectTimeHappyPath(t *testing.T) {
	ctx, _ := Begin(nil, "Member Support", baseNow)

	msg, err := SelectTime(ctx, "9:30 AM")
	require.NoError(t, err)
	assert.Equal(t, models.StageConfirmingBooking, ctx.Stage)
	assert.Equal(t, "9:30 AM", ctx.SelectedTime)
	assert.Contains(t, msg, "attempting to book your appointment for 9:30 AM")
}

func TestSelectTimeRejectsUnknownSlot(t *testing.T) {
	ctx, _ := Begin(nil, "Member Support", baseNow)

	_, err := SelectTime(ctx, "7:00 AM")
	var unknownSlot *UnknownSlotError
	require.ErrorAs(t, err, &unknownSlot)
	assert.Equal(t, models.StageShowingSlots, ctx.Stage)
	assert.Empty(t, ctx.SelectedTime)
}

func TestSelectTimeRejectsWrongStage(t *testing.T) {
	ctx, _ := Begin(nil, "Member Support", baseNow)
	_, err := SelectTime(ctx, "9:00 AM")
	require.NoError(t, err)

	_, err = SelectTime(ctx, "10:00 AM")
	var invalidStage *InvalidStageError
	require.ErrorAs(t, err, &invalidStage)
}

func TestFullBookingProgression(t *testing.T) {
	ctx, _ := Begin(nil, "Member Support", baseNow)
	user := models.UserProfile{Email: "alex@example.com", PhoneNumber: "555-0100"}

	_, err := SelectTime(ctx, "2:00 PM")
	require.NoError(t, err)

	msg, err := CompleteBooking(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageConfirmed, ctx.Stage)
	assert.Contains(t, msg, "is confirmed")

	msg, err = PromptReminder(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StagePromptingReminder, ctx.Stage)
	assert.Contains(t, msg, "via mobile or email")

	msg, err = ChooseReminder(ctx, models.ReminderEmail, user)
	require.NoError(t, err)
	assert.Equal(t, models.StageConfirmingContact, ctx.Stage)
	assert.Equal(t, "alex@example.com", ctx.ContactToConfirm)
	assert.Contains(t, msg, "registered email")

	msg, err = ConfirmContact(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, models.StageReminderSet, ctx.Stage)
	assert.Contains(t, msg, "I've set up a reminder")

	msg, err = Finish(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "all set")
}

func TestChooseReminderMobileUsesPhone(t *testing.T) {
	ctx, _ := Begin(nil, "Member Support", baseNow)
	user := models.UserProfile{Email: "alex@example.com", PhoneNumber: "555-0100"}
	_, err := SelectTime(ctx, "2:00 PM")
	require.NoError(t, err)
	_, err = CompleteBooking(ctx)
	require.NoError(t, err)
	_, err = PromptReminder(ctx)
	require.NoError(t, err)

	msg, err := ChooseReminder(ctx, models.ReminderMobile, user)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", ctx.ContactToConfirm)
	assert.Contains(t, msg, "registered phone number")
}

func TestConfirmContactDeclinedStillAdvances(t *testing.T) {
	ctx := &models.AppointmentContext{
		Physician:   DefaultPhysician,
		Stage:       models.StageConfirmingContact,
		CurrentDate: baseNow,
	}
	msg, err := ConfirmContact(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, models.StageReminderSet, ctx.Stage)
	assert.Contains(t, msg, "won't set up an automated reminder")
}

func TestNewDateLookup(t *testing.T) {
	ctx, _ := Begin(nil, "Member Support", baseNow)
	originalDate := ctx.CurrentDate

	msg, err := StartNewDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageChoosingNewDate, ctx.Stage)
	assert.Contains(t, msg, "other dates")

	msg, err = AdvanceDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageShowingSlots, ctx.Stage)
	assert.Equal(t, originalDate.AddDate(0, 0, 1), ctx.CurrentDate)
	assert.Equal(t, []string{"10:30 AM", "11:00 AM", "11:30 AM", "3:30 PM", "4:00 PM"}, ctx.AvailableTimes)
	assert.Empty(t, ctx.SelectedTime)
	assert.Contains(t, msg, "How about these times")
}

func TestBackToSlotsClearsSelectionState(t *testing.T) {
	ctx, _ := Begin(nil, "Member Support", baseNow)
	user := models.UserProfile{Email: "alex@example.com"}
	_, _ = SelectTime(ctx, "2:00 PM")
	_, _ = CompleteBooking(ctx)
	_, _ = PromptReminder(ctx)
	_, _ = ChooseReminder(ctx, models.ReminderEmail, user)

	msg, err := BackToSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageShowingSlots, ctx.Stage)
	assert.Empty(t, ctx.SelectedTime)
	assert.Empty(t, ctx.ReminderPreference)
	assert.Empty(t, ctx.ContactToConfirm)
	assert.Contains(t, msg, "Going back to appointment time selection")
}

func TestSelectionAllowedInvariant(t *testing.T) {
	ctx := &models.AppointmentContext{Stage: models.StageShowingSlots}
	assert.False(t, ctx.SelectionAllowed())
	ctx.Stage = models.StageChoosingNewDate
	assert.False(t, ctx.SelectionAllowed())
	ctx.Stage = models.StageConfirmingBooking
	assert.True(t, ctx.SelectionAllowed())
	ctx.Stage = models.StageReminderSet
	assert.True(t, ctx.SelectionAllowed())
}
