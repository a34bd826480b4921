package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alnada/counsellor/internal/models"
	"github.com/alnada/counsellor/internal/session"
	"github.com/alnada/counsellor/internal/store"
)

var (
	studentIDRe = regexp.MustCompile(`^\d{2}$`)
	fullNameRe  = regexp.MustCompile(`^[A-Za-z]+ [A-Za-z]+$`)
)

type loginRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type loginResponse struct {
	Success   bool                  `json:"success"`
	SessionID string                `json:"sessionId"`
	Student   *models.StudentRecord `json:"student"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if !studentIDRe.MatchString(req.ID) {
		s.respondError(w, http.StatusBadRequest, "id must be a two-digit number")
		return
	}
	if !fullNameRe.MatchString(req.Name) {
		s.respondError(w, http.StatusBadRequest, "name must be first and last name")
		return
	}
	s.login(w, r, req.ID, req.Name)
}

// login runs the shared post-validation flow: aggregate the record, require
// a resolved profile, persist, drop any stale index, and open a session.
func (s *Server) login(w http.ResponseWriter, r *http.Request, studentID, name string) {
	ctx := r.Context()
	record := s.aggregator.Aggregate(ctx, studentID, name)
	if record.Profile == nil {
		s.logger.Warn("login rejected, no profile resolved", zap.String("student_id", studentID))
		s.respondError(w, http.StatusUnauthorized, "authentication failed")
		return
	}
	if err := s.store.UpsertStudent(ctx, record); err != nil {
		s.logger.Error("student upsert failed", zap.String("student_id", studentID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save student record")
		return
	}
	s.indexes.Invalidate(studentID)

	sess, err := s.sessions.Create(ctx, studentID)
	if err != nil {
		s.logger.Error("session create failed", zap.String("student_id", studentID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	s.logger.Info("student logged in",
		zap.String("student_id", studentID), zap.String("session_id", sess.SessionID))
	s.respondJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		SessionID: sess.SessionID,
		Student:   record,
	})
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	record, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "student not found")
			return
		}
		s.logger.Error("student lookup failed", zap.String("student_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, record)
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		s.respondError(w, http.StatusBadRequest, "token is required")
		return
	}

	doc, ok := s.gateway.FetchJSON(r.Context(), "verify-token/"+url.PathEscape(req.Token)+"/")
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "token verification failed")
		return
	}
	studentID, name := tokenIdentity(doc)
	if studentID == "" {
		s.respondError(w, http.StatusUnauthorized, "token did not resolve a student")
		return
	}
	s.login(w, r, studentID, name)
}

// tokenIdentity extracts the student id and display name out of a
// verify-token response document.
func tokenIdentity(doc any) (studentID, name string) {
	m, ok := doc.(map[string]any)
	if !ok {
		return "", ""
	}
	if nested, ok := m["student"].(map[string]any); ok {
		m = nested
	}
	studentID = docString(m, "id", "student_id", "studentId")
	name = docString(m, "name", "full_name")
	if name == "" {
		first := docString(m, "firstname", "first_name")
		last := docString(m, "lastname", "last_name")
		name = strings.TrimSpace(first + " " + last)
	}
	return studentID, name
}

func docString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			return v
		case float64:
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10)
			}
		}
	}
	return ""
}

type chatRequest struct {
	Message   string           `json:"message"`
	ID        string           `json:"id"`
	SessionID string           `json:"sessionId"`
	Messages  []models.Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()

	// Without a session the question is answered without student context.
	if req.ID == "" || req.SessionID == "" {
		reply, err := s.engine.AnswerGeneric(ctx, req.Message)
		if err != nil {
			s.logger.Error("generic chat failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, chatResponse{Reply: reply})
		return
	}

	if err := s.sessions.Check(req.SessionID, req.Message); err != nil {
		switch {
		case errors.Is(err, session.ErrSessionExpired):
			s.respondError(w, http.StatusGone, "session expired, please log in again")
		case errors.Is(err, session.ErrSessionNotFound):
			s.respondError(w, http.StatusNotFound, "session not found")
		default:
			s.respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	reply, err := s.engine.Answer(ctx, req.ID, req.Message)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "student record missing, please log in again")
			return
		}
		s.logger.Error("chat failed", zap.String("student_id", req.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	transcript := append(req.Messages,
		models.Message{Role: models.RoleUser, Text: req.Message},
		models.Message{Role: models.RoleAI, Text: reply},
	)
	if err := s.sessions.RecordExchange(ctx, req.ID, req.SessionID, transcript); err != nil {
		s.logger.Error("transcript persist failed",
			zap.String("student_id", req.ID), zap.String("session_id", req.SessionID), zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

type restartRequest struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	var req restartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		s.respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	sess, err := s.sessions.Restart(r.Context(), req.ID, req.SessionID)
	if err != nil {
		s.logger.Error("session restart failed", zap.String("student_id", req.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to restart session")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": sess.SessionID,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}
	summaries, err := s.store.ListConversations(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("history lookup failed", zap.String("student_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentCount, err := s.store.CountStudents(ctx)
	if err != nil {
		s.logger.Error("status: count students failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sessionCount, err := s.store.CountSessions(ctx)
	if err != nil {
		s.logger.Error("status: count sessions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"students":       studentCount,
		"sessions":       sessionCount,
		"indexed_caches": s.indexes.Len(),
		"config": map[string]any{
			"provider":                 s.config.Provider.Name,
			"chat_model":               s.config.Provider.ChatModel,
			"embed_model":              s.config.Provider.EmbedModel,
			"embedding_dimensions":     s.config.Provider.Dimensions,
			"session_duration_seconds": s.config.Session.DurationSeconds,
			"retrieval_top_k":          s.config.Retrieval.TopK,
			"database_path":            s.config.Storage.DatabasePath,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
