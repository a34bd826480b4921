package models

import "time"

// Message roles as persisted in conversation transcripts.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Session is a time-bounded chat session for one student.
type Session struct {
	SessionID        string    `json:"sessionId"`
	StudentID        string    `json:"studentId"`
	CreatedAt        time.Time `json:"createdAt"`
	MessageCount     int       `json:"messageCount"`
	RemainingSeconds int       `json:"remainingSeconds"`
	Active           bool      `json:"active"`
}

// Message is a single transcript entry.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Conversation is the persisted transcript for a (studentId, sessionId) pair.
// Persistence replaces the stored sequence with the full accumulated sequence
// on each turn (last-writer-wins, not append).
type Conversation struct {
	StudentID string    `json:"studentId"`
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationSummary is a history listing entry. Title is derived from the
// first user message of the conversation.
type ConversationSummary struct {
	SessionID string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}
