// File: services/intelligence/keyword.go
package ai

import (
	"context"
	"strings"

	"careai/models"
)

// KeywordAIService is a local fallback used when no Gemini API key is
// configured. It answers with canned wellness text and extracts appointment
// entities by keyword matching, so the booking flow stays usable offline.
type KeywordAIService struct{}

func NewKeywordAIService() *KeywordAIService {
	return &KeywordAIService{}
}

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (s *KeywordAIService) SendMessage(_ context.Context, message string) (*models.AIReply, error) {
	lower := strings.ToLower(message)

	entities := extractEntities(lower)
	if entities != nil && entities.IntentType == models.IntentAppointmentBooking {
		return &models.AIReply{
			TextResponse: "I can help you schedule an appointment. Let me pull up available times.",
			Entities:     entities,
		}, nil
	}

	text := "I'm here to help with general health and wellness questions. " +
		"For diagnosis or treatment, please consult a qualified healthcare provider."
	return &models.AIReply{TextResponse: text, Entities: entities}, nil
}

func extractEntities(lower string) *models.ExtractedEntities {
	var entities models.ExtractedEntities
	found := false

	if strings.Contains(lower, "appointment") || strings.Contains(lower, "book") ||
		strings.Contains(lower, "schedule") {
		entities.IntentType = models.IntentAppointmentBooking
		found = true
	}

	switch {
	case strings.Contains(lower, "tomorrow"):
		entities.DatePreference = "tomorrow"
		found = true
	case strings.Contains(lower, "today"):
		entities.DatePreference = "today"
		found = true
	default:
		for _, day := range weekdayNames {
			if strings.Contains(lower, "next "+day) {
				entities.DatePreference = "next " + day
				found = true
				break
			}
		}
	}

	for _, window := range []string{"morning", "afternoon", "evening"} {
		if strings.Contains(lower, window) {
			entities.TimePreference = window
			found = true
			break
		}
	}

	if !found {
		return nil
	}
	return &entities
}
