// File: services/conversation/interface.go
package conversation

import (
	"context"
	"sync"
	"time"

	archiveRepo "careai/database/repository/archive"
	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/services/handoff"
	aiSvc "careai/services/intelligence"
	"careai/services/tasks"
)

// Service drives the member-side conversation: menu navigation, free-text
// AI turns, the appointment flow, hand-off initiation and wrap-up.
type Service interface {
	StartSession(ctx context.Context, user models.UserProfile) (*models.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*models.SessionView, error)

	HandleIntent(ctx context.Context, sessionID, intent string) (*models.SessionView, error)
	HandleSubIntent(ctx context.Context, sessionID, subIntent string) (*models.SessionView, error)
	HandleFreeText(ctx context.Context, sessionID, text string) (*models.SessionView, error)
	Navigate(ctx context.Context, sessionID, navIntent string) (*models.SessionView, error)

	SelectSlot(ctx context.Context, sessionID, slot string) (*models.SessionView, error)
	ChooseAnotherDate(ctx context.Context, sessionID string) (*models.SessionView, error)
	ChooseReminder(ctx context.Context, sessionID string, pref models.ReminderPreference) (*models.SessionView, error)
	ConfirmContact(ctx context.Context, sessionID string, confirmed bool) (*models.SessionView, error)

	EndSession(ctx context.Context, sessionID string) (*models.SessionView, error)
	SubmitFeedback(ctx context.Context, sessionID string, fb models.PostChatFeedback) error
	MessageFeedback(ctx context.Context, sessionID, messageID string, fb models.MessageFeedback) (*models.SessionView, error)

	// SyncHandoffs runs one member-side read-back cycle: for every session
	// waiting on an agent, refresh its queue record, splice in new agent
	// messages and close the hand-off when it reached a terminal status.
	SyncHandoffs(ctx context.Context) error
}

// Navigation intents accepted by Navigate.
const (
	NavGoBack   = "goBack"
	NavMainMenu = "mainMenu"
)

// MenuConfig is the menu structure the engine runs on. It is injected at
// construction so deployments can reshape the widget without code changes.
type MenuConfig struct {
	RootIntents    []string
	SubIntents     map[string][]string
	HandoffIntents map[string]string // intent -> target agent role

	// BookingSubIntent under BookingParent enters the appointment flow
	// instead of an AI turn.
	BookingSubIntent string
	BookingParent    string
}

// DefaultMenuConfig returns the stock healthcare menu.
func DefaultMenuConfig() MenuConfig {
	return MenuConfig{
		RootIntents: []string{
			"Member Support",
			"Clinician Query",
			"Advice Nurse Request",
			"New Member Support",
			"Technical Support",
			"Connect me to a Clinician",
			"Connect me to Member Support",
			"Connect me to Pharmacist",
		},
		SubIntents: map[string][]string{
			"Member Support": {"coverage", "billing", "estimates", "claims", "cost", "appointment"},
		},
		HandoffIntents: map[string]string{
			"Connect me to a Clinician":    "Clinician",
			"Connect me to Member Support": "Customer Service",
			"Connect me to Pharmacist":     "Pharmacist",
			"Technical Support":            "Technical Support Agent",
		},
		BookingSubIntent: "appointment",
		BookingParent:    "Member Support",
	}
}

// Latencies are the simulated processing delays between appointment stages.
// Tests shrink them to keep runs fast.
type Latencies struct {
	Booking        time.Duration
	ReminderPrompt time.Duration
	NewDate        time.Duration
	WrapUp         time.Duration
}

func DefaultLatencies() Latencies {
	return Latencies{
		Booking:        2 * time.Second,
		ReminderPrompt: 1200 * time.Millisecond,
		NewDate:        1500 * time.Millisecond,
		WrapUp:         1500 * time.Millisecond,
	}
}

type sessionEntry struct {
	mu   sync.Mutex
	sess *models.ConversationSession
}

// DefaultService is the production implementation. Sessions are held in an
// in-process registry guarded per entry and written through to the store
// after every mutation.
type DefaultService struct {
	store       SessionStore
	ai          aiSvc.AIService
	coordinator *handoff.Coordinator
	queue       queueRepo.Repository
	archive     archiveRepo.SessionArchiveRepository
	reminders   tasks.Scheduler

	menu      MenuConfig
	latencies Latencies

	// reminderLead is how far before the appointment the reminder fires.
	reminderLead time.Duration

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// Option tweaks a DefaultService at construction.
type Option func(*DefaultService)

func WithMenuConfig(menu MenuConfig) Option {
	return func(s *DefaultService) { s.menu = menu }
}

func WithLatencies(l Latencies) Option {
	return func(s *DefaultService) { s.latencies = l }
}

func WithArchive(repo archiveRepo.SessionArchiveRepository) Option {
	return func(s *DefaultService) { s.archive = repo }
}

func WithReminderScheduler(sched tasks.Scheduler, lead time.Duration) Option {
	return func(s *DefaultService) {
		s.reminders = sched
		s.reminderLead = lead
	}
}

func NewDefaultService(store SessionStore, ai aiSvc.AIService, coordinator *handoff.Coordinator, queue queueRepo.Repository, opts ...Option) *DefaultService {
	svc := &DefaultService{
		store:        store,
		ai:           ai,
		coordinator:  coordinator,
		queue:        queue,
		menu:         DefaultMenuConfig(),
		latencies:    DefaultLatencies(),
		reminderLead: 24 * time.Hour,
		entries:      make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}
