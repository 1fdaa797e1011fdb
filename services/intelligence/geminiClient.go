// File: services/intelligence/geminiClient.go
package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"careai/models"
)

const geminiModelName = "models/gemini-2.5-flash-preview-04-17"

const healthcareSystemInstruction = `You are 'CareAI', a helpful AI assistant designed to provide general health and wellness information.
Your knowledge is based on a broad range of medical literature, but you are NOT a substitute for a qualified healthcare professional.
You CANNOT diagnose medical conditions, prescribe treatments, or offer personalized medical advice.
If a user describes symptoms or asks for diagnosis or treatment, you MUST clearly state your limitations and strongly advise them to consult a doctor or other qualified healthcare provider.
Focus on providing general information, explaining medical terms, and offering wellness tips in a clear, empathetic, and easy-to-understand manner.
Do not store or ask for personal health information. Respond in markdown format when appropriate for better readability (e.g., lists, bold text).

When responding to a user's free-text query, if you identify a clear intent from the user to book an appointment, or if they mention a specific date or time preference for an appointment (e.g., 'tomorrow', 'next week', 'in the morning', 'around 2 PM'), please perform the following:
1. Provide your natural language response as usual.
2. After your textual response, append a JSON object ONLY if relevant entities for appointment booking are found. The JSON object should be enclosed in triple backticks like this:
` + "```json" + `
{
  "entities": {
    "intent_type": "appointment_booking",
    "date_preference": "[e.g., today, tomorrow, next Monday, specific_date_YYYY-MM-DD]",
    "time_preference": "[e.g., morning, afternoon, evening, specific_time_HH:MM]"
  }
}
` + "```" + `
Only include the intent_type if the user explicitly states they want to make an appointment or asks about booking (e.g., "I need an appointment", "Can I book a time?").
Only include date_preference or time_preference if they are explicitly mentioned by the user in relation to an appointment.
If no such entities are clearly identified, DO NOT include the JSON block.
If the user asks a general question that is not about booking an appointment, just provide the textual answer without any JSON block.`

// GeminiAIService holds a single chat session so the assistant keeps
// conversational context across member turns.
type GeminiAIService struct {
	mu    sync.Mutex
	model *genai.GenerativeModel
	chat  *genai.ChatSession
}

func NewGeminiAIService(apiKey string) (*GeminiAIService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(geminiModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(healthcareSystemInstruction)},
	}
	return &GeminiAIService{model: model, chat: model.StartChat()}, nil
}

func (g *GeminiAIService) SendMessage(ctx context.Context, message string) (*models.AIReply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	resp, err := g.chat.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	reply := ParseEntities(sb.String())
	return &reply, nil
}
