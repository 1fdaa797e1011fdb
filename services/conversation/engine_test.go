package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/services/handoff"
)

var testUser = models.UserProfile{
	ID:          "user-1",
	FirstName:   "Jordan",
	LastName:    "Lee",
	Email:       "jordan@example.com",
	PhoneNumber: "555-0101",
}

// stubAI returns a canned reply, or a canned error, and records prompts.
type stubAI struct {
	mu    sync.Mutex
	reply *models.AIReply
	err   error
	calls []string
}

func (s *stubAI) SendMessage(_ context.Context, message string) (*models.AIReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, message)
	if s.err != nil {
		return nil, s.err
	}
	if s.reply != nil {
		return s.reply, nil
	}
	return &models.AIReply{TextResponse: "Here is what I found about: " + message}, nil
}

func (s *stubAI) prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type fakeArchive struct {
	mu       sync.Mutex
	saved    []models.ArchivedSession
	feedback map[string]models.PostChatFeedback
	saveErr  error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{feedback: make(map[string]models.PostChatFeedback)}
}

func (f *fakeArchive) Save(_ context.Context, session models.ArchivedSession) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, session)
	return session.SessionID, nil
}

func (f *fakeArchive) GetBySessionID(_ context.Context, sessionID string) (*models.ArchivedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.saved {
		if f.saved[i].SessionID == sessionID {
			cp := f.saved[i]
			return &cp, nil
		}
	}
	return nil, errors.New("archived session not found")
}

func (f *fakeArchive) GetByUserID(_ context.Context, userID string) ([]models.ArchivedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ArchivedSession
	for _, s := range f.saved {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeArchive) AttachFeedback(_ context.Context, sessionID string, fb models.PostChatFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback[sessionID] = fb
	return nil
}

type fakeScheduler struct {
	mu       sync.Mutex
	payloads []models.ReminderPayload
	fireAts  []time.Time
}

func (f *fakeScheduler) ScheduleReminder(payload models.ReminderPayload, fireAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	f.fireAts = append(f.fireAts, fireAt)
	return nil
}

type testEnv struct {
	svc     *DefaultService
	ai      *stubAI
	repo    *queueRepo.MemoryRepository
	store   *MemorySessionStore
	archive *fakeArchive
	sched   *fakeScheduler
}

func fastLatencies() Latencies {
	return Latencies{
		Booking:        10 * time.Millisecond,
		ReminderPrompt: 10 * time.Millisecond,
		NewDate:        10 * time.Millisecond,
		WrapUp:         10 * time.Millisecond,
	}
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		ai:      &stubAI{},
		repo:    queueRepo.NewMemoryRepo(),
		store:   NewMemorySessionStore(),
		archive: newFakeArchive(),
		sched:   &fakeScheduler{},
	}
	coord := handoff.NewCoordinator(env.repo, DefaultMenuConfig().HandoffIntents)
	base := []Option{
		WithLatencies(fastLatencies()),
		WithArchive(env.archive),
		WithReminderScheduler(env.sched, 24*time.Hour),
	}
	env.svc = NewDefaultService(env.store, env.ai, coord, env.repo, append(base, opts...)...)
	return env
}

func (e *testEnv) start(t *testing.T) string {
	t.Helper()
	view, err := e.svc.StartSession(context.Background(), testUser)
	require.NoError(t, err)
	return view.Session.ID
}

func (e *testEnv) session(t *testing.T, id string) *models.SessionView {
	t.Helper()
	view, err := e.svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	return view
}

// waitForStage blocks until the appointment context reaches the wanted
// stage, covering the simulated latencies.
func (e *testEnv) waitForStage(t *testing.T, id string, stage models.AppointmentStage) {
	t.Helper()
	require.Eventually(t, func() bool {
		view := e.session(t, id)
		return view.Session.Appointment != nil && view.Session.Appointment.Stage == stage
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHandleIntentOpensSubMenu(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	view, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)

	sess := view.Session
	assert.False(t, sess.ShowingRootMenu)
	assert.Equal(t, "Member Support", sess.ActiveParentIntent)
	assert.Equal(t, []string{"coverage", "billing", "estimates", "claims", "cost", "appointment"}, sess.SubIntents)
	assert.Equal(t, []string{"Main Menu", "Go Back"}, view.NavigationOptions)
	assert.Empty(t, env.ai.prompts())

	last := sess.LastMessage()
	assert.Equal(t, `Okay, looking into "Member Support" for you.`, last.Text)
}

func TestHandleIntentWithoutSubMenuRunsAITurn(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	view, err := env.svc.HandleIntent(context.Background(), id, "Clinician Query")
	require.NoError(t, err)

	require.Equal(t, []string{"Clinician Query"}, env.ai.prompts())
	last := view.Session.LastMessage()
	assert.Contains(t, last.ID, "-response")
	assert.Contains(t, last.Text, "Clinician Query")
	assert.Equal(t, []string{"Main Menu", "Go Back"}, view.NavigationOptions)
}

func TestAIFailureLeavesNavigationIntact(t *testing.T) {
	env := newTestEnv(t)
	env.ai.err = errors.New("backend down")
	id := env.start(t)

	view, err := env.svc.HandleIntent(context.Background(), id, "Clinician Query")
	require.NoError(t, err)

	sess := view.Session
	last := sess.LastMessage()
	assert.True(t, last.Error)
	assert.Equal(t, "I'm sorry, I encountered an issue processing your request. Please try again later.", last.Text)
	assert.Equal(t, "Failed to get response from AI. Please check your API key and network.", sess.LastError)
	assert.Equal(t, "Clinician Query", sess.ActiveParentIntent)
}

func TestHandoffIntentQueuesRequestAndPausesChat(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	view, err := env.svc.HandleIntent(context.Background(), id, "Connect me to Pharmacist")
	require.NoError(t, err)

	sess := view.Session
	assert.True(t, sess.AwaitingHandoff)
	assert.NotEmpty(t, sess.HandoffID)
	assert.Nil(t, view.NavigationOptions)
	last := sess.LastMessage()
	assert.Contains(t, last.ID, "-handoff-initiated")
	assert.Contains(t, last.Text, "Connecting you to Pharmacist.")

	req, err := env.repo.Get(context.Background(), sess.HandoffID)
	require.NoError(t, err)
	assert.Equal(t, models.HandoffPending, req.Status)
	assert.Equal(t, "Pharmacist", req.AgentRole)
	assert.Equal(t, "Jordan Lee", req.UserName)
	// The queued snapshot includes the whole transcript so far.
	assert.Len(t, req.InitialMessages, 3)
}

func TestHandoffStoreFailureLeavesSessionUsable(t *testing.T) {
	env := newTestEnv(t)
	env.repo.FailWrites = errors.New("store down")
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Connect me to Pharmacist")
	require.Error(t, err)

	view := env.session(t, id)
	assert.False(t, view.Session.AwaitingHandoff)
	assert.Empty(t, view.Session.HandoffID)
	assert.Equal(t, "Could not initiate handoff. Please try again.", view.Session.LastError)

	// The session still accepts input once the store recovers.
	env.repo.FailWrites = nil
	_, err = env.svc.HandleIntent(context.Background(), id, "Member Support")
	assert.NoError(t, err)
}

func TestInputSuppressedWhileAwaitingAgent(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Connect me to Pharmacist")
	require.NoError(t, err)

	view, err := env.svc.HandleFreeText(context.Background(), id, "hello?")
	require.NoError(t, err)
	assert.Equal(t, awaitingAgentText, view.Session.LastMessage().Text)
	assert.Empty(t, env.ai.prompts())

	view, err = env.svc.Navigate(context.Background(), id, NavMainMenu)
	require.NoError(t, err)
	assert.True(t, view.Session.AwaitingHandoff)
	assert.Equal(t, awaitingAgentText, view.Session.LastMessage().Text)
}

func TestBookingSubIntentEntersAppointmentFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	view, err := env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)

	sess := view.Session
	require.NotNil(t, sess.Appointment)
	assert.Equal(t, models.StageShowingSlots, sess.Appointment.Stage)
	assert.Len(t, sess.Appointment.AvailableTimes, 6)
	assert.Equal(t, "Member Support", sess.Appointment.ParentIntentAtBooking)
	assert.Nil(t, sess.SubIntents)
	assert.Empty(t, env.ai.prompts())
}

func TestOtherSubIntentPromptsAIWithParentContext(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	view, err := env.svc.HandleSubIntent(context.Background(), id, "billing")
	require.NoError(t, err)

	assert.Equal(t, []string{"Member Support: billing"}, env.ai.prompts())
	assert.Nil(t, view.Session.Appointment)
	assert.Contains(t, view.Session.Messages[len(view.Session.Messages)-2].Text,
		`Understood. For "Member Support", I will now address "billing".`)
}

func TestFreeTextBookingEntityEntersFlow(t *testing.T) {
	env := newTestEnv(t)
	env.ai.reply = &models.AIReply{
		TextResponse: "Happy to help you book an appointment.",
		Entities: &models.ExtractedEntities{
			IntentType:     models.IntentAppointmentBooking,
			TimePreference: "evening",
		},
	}
	id := env.start(t)

	view, err := env.svc.HandleFreeText(context.Background(), id, "book me an evening appointment")
	require.NoError(t, err)

	sess := view.Session
	require.NotNil(t, sess.Appointment)
	assert.Equal(t, models.StageShowingSlots, sess.Appointment.Stage)
	assert.Equal(t, []string{"5:00 PM", "5:30 PM", "6:00 PM"}, sess.Appointment.AvailableTimes)
	assert.Equal(t, "Member Support", sess.ActiveParentIntent)
}

func TestFreeTextWithoutEntitiesStaysConversational(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	view, err := env.svc.HandleFreeText(context.Background(), id, "what is a copay?")
	require.NoError(t, err)

	sess := view.Session
	assert.Nil(t, sess.Appointment)
	assert.False(t, sess.ShowingRootMenu)
	assert.Contains(t, sess.LastMessage().ID, "-response")
	assert.Equal(t, []string{"what is a copay?"}, env.ai.prompts())
}

func TestSelectSlotCompletesAfterLatency(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)

	view, err := env.svc.SelectSlot(context.Background(), id, "9:00 AM")
	require.NoError(t, err)
	assert.True(t, view.Session.Loading)
	assert.Equal(t, models.StageConfirmingBooking, view.Session.Appointment.Stage)

	env.waitForStage(t, id, models.StagePromptingReminder)
	view = env.session(t, id)
	assert.False(t, view.Session.Loading)
	assert.Equal(t, "9:00 AM", view.Session.Appointment.SelectedTime)
}

func TestSelectSlotRejectsUnofferedTime(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	before, err := env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)
	count := len(before.Session.Messages)

	_, err = env.svc.SelectSlot(context.Background(), id, "11:45 PM")
	require.Error(t, err)

	view := env.session(t, id)
	assert.Len(t, view.Session.Messages, count)
	assert.Equal(t, models.StageShowingSlots, view.Session.Appointment.Stage)
}

func TestNavigationAwayDiscardsPendingTransition(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(context.Background(), id, "9:00 AM")
	require.NoError(t, err)

	view, err := env.svc.Navigate(context.Background(), id, NavMainMenu)
	require.NoError(t, err)
	assert.Nil(t, view.Session.Appointment)
	count := len(view.Session.Messages)

	// Give the booking timer ample time to fire; it must be a no-op.
	time.Sleep(100 * time.Millisecond)
	view = env.session(t, id)
	assert.Nil(t, view.Session.Appointment)
	assert.Len(t, view.Session.Messages, count)
	assert.True(t, view.Session.ShowingRootMenu)
}

func TestInputRejectedWhileProcessing(t *testing.T) {
	env := newTestEnv(t, WithLatencies(Latencies{
		Booking:        time.Second,
		ReminderPrompt: time.Second,
		NewDate:        time.Second,
		WrapUp:         time.Second,
	}))
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(context.Background(), id, "9:00 AM")
	require.NoError(t, err)

	_, err = env.svc.HandleIntent(context.Background(), id, "Clinician Query")
	var busy *BusyError
	assert.ErrorAs(t, err, &busy)
}

func TestChooseAnotherDateOffersAlternateSlots(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	view, err := env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)
	firstDate := view.Session.Appointment.CurrentDate

	_, err = env.svc.ChooseAnotherDate(context.Background(), id)
	require.NoError(t, err)

	env.waitForStage(t, id, models.StageShowingSlots)
	require.Eventually(t, func() bool {
		return !env.session(t, id).Session.Loading
	}, 2*time.Second, 5*time.Millisecond)

	appt := env.session(t, id).Session.Appointment
	assert.Equal(t, firstDate.AddDate(0, 0, 1), appt.CurrentDate)
	assert.Contains(t, appt.AvailableTimes, "10:30 AM")
}

func TestFullBookingFlowSchedulesReminder(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(context.Background(), id, "2:00 PM")
	require.NoError(t, err)
	env.waitForStage(t, id, models.StagePromptingReminder)

	view, err := env.svc.ChooseReminder(context.Background(), id, models.ReminderMobile)
	require.NoError(t, err)
	assert.Equal(t, models.StageConfirmingContact, view.Session.Appointment.Stage)
	assert.Equal(t, testUser.PhoneNumber, view.Session.Appointment.ContactToConfirm)

	_, err = env.svc.ConfirmContact(context.Background(), id, true)
	require.NoError(t, err)

	env.sched.mu.Lock()
	require.Len(t, env.sched.payloads, 1)
	payload := env.sched.payloads[0]
	fireAt := env.sched.fireAts[0]
	env.sched.mu.Unlock()
	assert.Equal(t, id, payload.SessionID)
	assert.Equal(t, testUser.PhoneNumber, payload.Contact)
	assert.Contains(t, payload.Body, "2:00 PM")
	assert.True(t, fireAt.After(time.Now()))

	// Wrap-up returns navigation to where the booking started.
	require.Eventually(t, func() bool {
		sess := env.session(t, id).Session
		return sess.Appointment == nil && sess.ActiveParentIntent == "Member Support"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDeclinedContactSkipsReminder(t *testing.T) {
	env := newTestEnv(t)
	id := env.start(t)

	_, err := env.svc.HandleIntent(context.Background(), id, "Member Support")
	require.NoError(t, err)
	_, err = env.svc.HandleSubIntent(context.Background(), id, "appointment")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(context.Background(), id, "2:00 PM")
	require.NoError(t, err)
	env.waitForStage(t, id, models.StagePromptingReminder)

	_, err = env.svc.ChooseReminder(context.Background(), id, models.ReminderEmail)
	require.NoError(t, err)
	_, err = env.svc.ConfirmContact(context.Background(), id, false)
	require.NoError(t, err)

	env.sched.mu.Lock()
	defer env.sched.mu.Unlock()
	assert.Empty(t, env.sched.payloads)
}
