package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careai/models"
)

func TestGoBackAtRootIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	view, err := env.svc.Navigate(context.Background(), id, NavGoBack)
	require.NoError(t, err)

	sess := view.Session
	assert.True(t, sess.ShowingRootMenu)
	assert.Equal(t, "You are already at the main menu.", sess.LastMessage().Text)

	again, err := env.svc.Navigate(context.Background(), id, NavGoBack)
	require.NoError(t, err)
	assert.True(t, again.Session.ShowingRootMenu)
	assert.Equal(t, "You are already at the main menu.", again.Session.LastMessage().Text)
}

func TestGoBackFromSubMenuReturnsToRoot(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	view, err := env.svc.Navigate(context.Background(), id, NavGoBack)
	require.NoError(t, err)

	sess := view.Session
	assert.True(t, sess.ShowingRootMenu)
	assert.Nil(t, sess.SubIntents)
	assert.Empty(t, sess.ActiveParentIntent)
	assert.Nil(t, view.NavigationOptions)
}

func TestGoBackFromSlotsReturnsToParentSubMenu(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)

	view, err := env.svc.Navigate(context.Background(), id, NavGoBack)
	require.NoError(t, err)

	sess := view.Session
	assert.Nil(t, sess.Appointment)
	assert.Equal(t, "Member Support", sess.ActiveParentIntent)
	assert.NotNil(t, sess.SubIntents)
	assert.False(t, sess.ShowingRootMenu)
	assert.Contains(t, sess.LastMessage().Text, `Returning to options under "Member Support".`)
}

func TestGoBackPastSlotSelectionReturnsToSlots(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(context.Background(), id, "9:00 AM")
	require.NoError(t, err)
	env.waitForStage(t, id, models.StagePromptingReminder)

	view, err := env.svc.Navigate(context.Background(), id, NavGoBack)
	require.NoError(t, err)

	appt := view.Session.Appointment
	require.NotNil(t, appt)
	assert.Equal(t, models.StageShowingSlots, appt.Stage)
	assert.Empty(t, appt.SelectedTime)
	assert.Empty(t, appt.ContactToConfirm)
}

func TestGoBackAfterSubIntentReopensSubMenu(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "billing")
	require.NoError(t, err)

	view, err := env.svc.Navigate(context.Background(), id, NavGoBack)
	require.NoError(t, err)

	sess := view.Session
	assert.Equal(t, "Member Support", sess.ActiveParentIntent)
	assert.NotNil(t, sess.SubIntents)
	assert.Contains(t, sess.LastMessage().Text, `here are more options under "Member Support"`)
}

func TestMainMenuResetsEverything(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)

	view, err := env.svc.Navigate(context.Background(), id, NavMainMenu)
	require.NoError(t, err)

	sess := view.Session
	assert.True(t, sess.ShowingRootMenu)
	assert.Nil(t, sess.Appointment)
	assert.Nil(t, sess.SubIntents)
	assert.Empty(t, sess.ActiveParentIntent)
	assert.Nil(t, view.NavigationOptions)
}

func TestUnknownNavigationIntentRejected(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.Navigate(context.Background(), id, "sideways")
	assert.Error(t, err)
}

func TestNavigationOptionsHiddenAtRootAndAfterHandoff(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	// Fresh session at root shows no navigation affordances.
	view := env.session(t, id)
	assert.Nil(t, view.NavigationOptions)

	// The hand-off pause notice keeps them hidden too.
	view, err := env.svc.HandleIntent(context.Background(), id, "Connect me to a Clinician")
	require.NoError(t, err)
	assert.Nil(t, view.NavigationOptions)
}
