package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alnada/counsellor/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		student_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		last_login TIMESTAMP,
		profile TEXT,
		attendance TEXT,
		enrollment TEXT,
		scores TEXT,
		assignments TEXT,
		examlist TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		message_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_student_id ON sessions(student_id);

	CREATE TABLE IF NOT EXISTS conversations (
		student_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		messages TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (student_id, session_id)
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_student_updated ON conversations(student_id, updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertStudent creates or replaces the student record keyed by studentId.
func (s *SQLiteStore) UpsertStudent(ctx context.Context, record *models.StudentRecord) error {
	categories := make([]string, 0, 6)
	for _, c := range record.Categories() {
		data, err := json.Marshal(c.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", c.Label, err)
		}
		categories = append(categories, string(data))
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (student_id, name, last_login, profile, attendance, enrollment, scores, assignments, examlist)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(student_id) DO UPDATE SET
			name = excluded.name,
			last_login = excluded.last_login,
			profile = excluded.profile,
			attendance = excluded.attendance,
			enrollment = excluded.enrollment,
			scores = excluded.scores,
			assignments = excluded.assignments,
			examlist = excluded.examlist`,
		record.StudentID, record.Name, record.LastLogin,
		categories[0], categories[1], categories[2], categories[3], categories[4], categories[5],
	)
	return err
}

// GetStudent returns the student record by ID, or ErrNotFound.
func (s *SQLiteStore) GetStudent(ctx context.Context, studentID string) (*models.StudentRecord, error) {
	var record models.StudentRecord
	var categories [6]string

	err := s.db.QueryRowContext(ctx,
		`SELECT student_id, name, last_login, profile, attendance, enrollment, scores, assignments, examlist
		 FROM students WHERE student_id = ?`, studentID,
	).Scan(&record.StudentID, &record.Name, &record.LastLogin,
		&categories[0], &categories[1], &categories[2], &categories[3], &categories[4], &categories[5])

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	targets := []*any{
		&record.Profile, &record.Attendance, &record.Enrollment,
		&record.Scores, &record.Assignments, &record.ExamList,
	}
	for i, raw := range categories {
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), targets[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category: %w", err)
		}
	}
	return &record, nil
}

// CreateSession inserts a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, student_id, created_at, message_count)
		 VALUES (?, ?, ?, ?)`,
		session.SessionID, session.StudentID, session.CreatedAt, session.MessageCount,
	)
	return err
}

// GetSession returns a session by ID, or ErrNotFound.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, student_id, created_at, message_count
		 FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&session.SessionID, &session.StudentID, &session.CreatedAt, &session.MessageCount)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// IncrementMessageCount bumps the session's message counter, creating the row
// if it does not exist (upsert semantics, matching the conversation mirror).
func (s *SQLiteStore) IncrementMessageCount(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, student_id, created_at, message_count)
		 VALUES (?, '', ?, 1)
		 ON CONFLICT(session_id) DO UPDATE SET message_count = message_count + 1`,
		sessionID, time.Now(),
	)
	return err
}

// SaveConversation upserts the full transcript for (studentId, sessionId),
// replacing the stored message sequence (last-writer-wins).
func (s *SQLiteStore) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	conv.UpdatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (student_id, session_id, messages, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(student_id, session_id) DO UPDATE SET
			messages = excluded.messages,
			updated_at = excluded.updated_at`,
		conv.StudentID, conv.SessionID, string(messages), conv.UpdatedAt,
	)
	return err
}

// ListConversations returns conversation summaries for the student, most
// recently updated first, bounded by limit.
func (s *SQLiteStore) ListConversations(ctx context.Context, studentID string, limit int) ([]*models.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, messages, updated_at
		 FROM conversations WHERE student_id = ?
		 ORDER BY updated_at DESC LIMIT ?`,
		studentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.ConversationSummary
	for rows.Next() {
		var summary models.ConversationSummary
		var messagesJSON string
		if err := rows.Scan(&summary.SessionID, &messagesJSON, &summary.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(messagesJSON), &summary.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		summary.Title = summaryTitle(summary.Messages)
		summaries = append(summaries, &summary)
	}
	return summaries, rows.Err()
}

// summaryTitle derives a listing title from the first user message.
func summaryTitle(messages []models.Message) string {
	for _, m := range messages {
		if m.Role == models.RoleUser && m.Text != "" {
			runes := []rune(m.Text)
			if len(runes) > 40 {
				return string(runes[:40]) + "..."
			}
			return m.Text
		}
	}
	return "Conversation"
}

// CountStudents returns the total number of stored students.
func (s *SQLiteStore) CountStudents(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count)
	return count, err
}

// CountSessions returns the total number of sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
