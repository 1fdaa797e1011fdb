package models

import "time"

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAI    Sender = "ai"
	SenderAgent Sender = "agent"
)

// MessageFeedback is a thumbs up/down rating on an AI message.
type MessageFeedback string

const (
	FeedbackUp   MessageFeedback = "up"
	FeedbackDown MessageFeedback = "down"
)

// ChatMessage is a single turn in a conversation. Timestamps serialize as
// RFC 3339 so they round-trip through Redis and Mongo unchanged.
type ChatMessage struct {
	ID        string           `bson:"id" json:"id"`
	Text      string           `bson:"text" json:"text"`
	Sender    Sender           `bson:"sender" json:"sender"`
	Timestamp time.Time        `bson:"timestamp" json:"timestamp"`
	Feedback  *MessageFeedback `bson:"feedback,omitempty" json:"feedback,omitempty"`
	// System marks synthetic acknowledgements emitted by the navigation
	// engine, as opposed to AI answers.
	System bool `bson:"system,omitempty" json:"system,omitempty"`
	// Error marks the generic apology message emitted when the AI
	// round-trip fails.
	Error bool `bson:"error,omitempty" json:"error,omitempty"`
}
