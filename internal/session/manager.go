// Package session manages chat session lifecycle: creation, countdown expiry,
// message accounting, and transcript persistence.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnada/counsellor/internal/models"
	"github.com/alnada/counsellor/internal/store"
)

var (
	// ErrSessionExpired rejects messages submitted after the countdown reached zero.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionNotFound rejects messages referencing an unknown session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyMessage rejects empty or whitespace-only messages.
	ErrEmptyMessage = errors.New("message is empty")
)

// Manager exclusively owns session mutation; the store is the durable mirror.
type Manager struct {
	store  store.Store
	logger *zap.Logger
	budget int

	mu       sync.Mutex
	sessions map[string]*models.Session
}

// NewManager creates a manager. budget is the per-session countdown in seconds.
func NewManager(st store.Store, budget int, logger *zap.Logger) *Manager {
	return &Manager{
		store:    st,
		logger:   logger,
		budget:   budget,
		sessions: make(map[string]*models.Session),
	}
}

// Create mints a new active session for the student and persists it.
func (m *Manager) Create(ctx context.Context, studentID string) (*models.Session, error) {
	session := &models.Session{
		SessionID:        uuid.NewString(),
		StudentID:        studentID,
		CreatedAt:        time.Now(),
		RemainingSeconds: m.budget,
		Active:           true,
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[session.SessionID] = session
	m.mu.Unlock()

	m.logger.Info("session created",
		zap.String("session_id", session.SessionID),
		zap.String("student_id", studentID))
	return copySession(session), nil
}

// Restart deactivates the old session and mints a new one. Transcript history
// under the old session is retained in the store.
func (m *Manager) Restart(ctx context.Context, studentID, oldSessionID string) (*models.Session, error) {
	m.mu.Lock()
	if old, ok := m.sessions[oldSessionID]; ok {
		old.Active = false
	}
	m.mu.Unlock()
	return m.Create(ctx, studentID)
}

// Get returns a snapshot of the session, if known.
func (m *Manager) Get(sessionID string) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return copySession(session), true
}

// Check verifies that a message may be accepted on the session.
func (m *Manager) Check(sessionID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if !session.Active {
		return ErrSessionExpired
	}
	return nil
}

// RecordExchange persists the full accumulated transcript for the session and
// increments its message count, synchronously before the reply is returned to
// the caller so transcript order matches submission order.
func (m *Manager) RecordExchange(ctx context.Context, studentID, sessionID string, messages []models.Message) error {
	if err := m.store.SaveConversation(ctx, &models.Conversation{
		StudentID: studentID,
		SessionID: sessionID,
		Messages:  messages,
	}); err != nil {
		return err
	}
	if err := m.store.IncrementMessageCount(ctx, sessionID); err != nil {
		return err
	}
	m.mu.Lock()
	if session, ok := m.sessions[sessionID]; ok {
		session.MessageCount++
	}
	m.mu.Unlock()
	return nil
}

// Run drives the one-tick-per-second countdown until ctx is cancelled.
// Expiry does not cancel in-flight answers; it only rejects later messages.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick advances every active session's countdown by one second.
func (m *Manager) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.sessions {
		if !session.Active {
			continue
		}
		session.RemainingSeconds--
		if session.RemainingSeconds <= 0 {
			session.RemainingSeconds = 0
			session.Active = false
			m.logger.Info("session expired",
				zap.String("session_id", session.SessionID),
				zap.String("student_id", session.StudentID))
		}
	}
}

func copySession(s *models.Session) *models.Session {
	clone := *s
	return &clone
}
