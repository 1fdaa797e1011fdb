package models

import "time"

// PostChatFeedback is the three-axis rating collected after a session ends.
type PostChatFeedback struct {
	Clarity             int `bson:"clarity" json:"clarity"`
	OptionsAvailability int `bson:"optionsAvailability" json:"optionsAvailability"`
	Accuracy            int `bson:"accuracy" json:"accuracy"`
}

// ArchivedSession is the durable record written when a member ends a chat.
type ArchivedSession struct {
	SessionID string            `bson:"sessionId" json:"sessionId"`
	UserID    string            `bson:"userId" json:"userId"`
	EndedAt   time.Time         `bson:"endedAt" json:"endedAt"`
	Messages  []ChatMessage     `bson:"messages" json:"messages"`
	Feedback  *PostChatFeedback `bson:"feedback,omitempty" json:"feedback,omitempty"`
}
