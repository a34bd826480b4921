// Package store defines the persistence interface for students, sessions,
// and conversation transcripts.
package store

import (
	"context"
	"errors"

	"github.com/alnada/counsellor/internal/models"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// Store defines durable persistence for the conversation engine. Upserts are
// atomic per key: concurrent writers converge with last-writer-wins semantics.
type Store interface {
	// Student operations, keyed by studentId.
	UpsertStudent(ctx context.Context, record *models.StudentRecord) error
	GetStudent(ctx context.Context, studentID string) (*models.StudentRecord, error)

	// Session operations, keyed by sessionId.
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	IncrementMessageCount(ctx context.Context, sessionID string) error

	// Conversation operations, keyed by (studentId, sessionId). SaveConversation
	// replaces the stored message sequence with the full accumulated sequence.
	SaveConversation(ctx context.Context, conv *models.Conversation) error
	ListConversations(ctx context.Context, studentID string, limit int) ([]*models.ConversationSummary, error)

	// Stats
	CountStudents(ctx context.Context) (int64, error)
	CountSessions(ctx context.Context) (int64, error)

	Close() error
}
