package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/hrygo/todoc/ai/agent"
	"github.com/hrygo/todoc/ai/chat"
	"github.com/hrygo/todoc/server/auth"
	"github.com/hrygo/todoc/store"
)

const (
	sessionNotFound = "세션을 찾을 수 없습니다"
	childNotFound   = "아이 정보를 찾을 수 없습니다"
	retryLater      = "일시적인 오류가 발생했어요. 잠시 후 다시 시도해 주세요."
)

// AIService serves the chat endpoints.
type AIService struct {
	Store *store.Store
	Chats *chat.Service
}

// ChatRequest is the body of POST /ai/chat. mode and history are the
// legacy names of persona_mode and prior_turns.
type ChatRequest struct {
	Message     string       `json:"message"`
	PersonaMode string       `json:"persona_mode"`
	Mode        string       `json:"mode"`
	ChildID     *int32       `json:"child_id"`
	KidID       *int32       `json:"kid_id"`
	SessionID   *int32       `json:"session_id"`
	PriorTurns  []agent.Turn `json:"prior_turns"`
	History     []agent.Turn `json:"history"`
	Debug       bool         `json:"debug"`
}

func (r *ChatRequest) toTurnRequest() chat.TurnRequest {
	return chat.TurnRequest{
		Message:   r.Message,
		Persona:   lo.Ternary(r.PersonaMode != "", r.PersonaMode, r.Mode),
		ChildID:   lo.Ternary(r.ChildID != nil, r.ChildID, r.KidID),
		SessionID: r.SessionID,
		History:   lo.Ternary(len(r.PriorTurns) > 0, r.PriorTurns, r.History),
		Debug:     r.Debug,
	}
}

// SessionSummary is a session card.
type SessionSummary struct {
	ID              int32  `json:"id"`
	UID             string `json:"uid"`
	Title           string `json:"title"`
	QuestionSnippet string `json:"question_snippet"`
	DateLabel       string `json:"date_label"`
	Mode            string `json:"mode"`
	KidID           *int32 `json:"kid_id"`
}

// Message is one stored chat message.
type Message struct {
	ID        int32     `json:"id"`
	SessionID int32     `json:"session_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionDetail is the body of GET /ai/sessions/:id.
type SessionDetail struct {
	Session  SessionSummary `json:"session"`
	Messages []Message      `json:"messages"`
}

func convertSession(s *store.ChatSession) SessionSummary {
	return SessionSummary{
		ID:              s.ID,
		UID:             s.UID,
		Title:           s.DisplayTitle(),
		QuestionSnippet: s.QuestionSnippet,
		DateLabel:       s.DateLabel,
		Mode:            s.Persona,
		KidID:           s.KidID,
	}
}

func convertMessage(m *store.ChatMessage, _ int) Message {
	return Message{
		ID:        m.ID,
		SessionID: m.SessionID,
		Sender:    string(m.Sender),
		Content:   m.Content,
		CreatedAt: time.Unix(m.CreatedTs, 0).UTC(),
	}
}

// Chat runs one conversational turn.
func (s *AIService) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "요청 형식이 올바르지 않습니다")
	}

	ctx := c.Request().Context()
	userID := auth.GetUserID(ctx)
	resp, err := s.Chats.Turn(ctx, userID, req.toTurnRequest())
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, resp)
	case errors.Is(err, chat.ErrInvalidInput):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrChildNotFound):
		return errorJSON(c, http.StatusNotFound, childNotFound)
	case errors.Is(err, chat.ErrSessionNotFound):
		return errorJSON(c, http.StatusNotFound, sessionNotFound)
	case errors.Is(err, chat.ErrPersistence):
		slog.Error("chat turn not saved", "user_id", userID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: retryLater, Retryable: true})
	default:
		slog.Error("chat turn failed", "user_id", userID, "error", err)
		return errorJSON(c, http.StatusInternalServerError, retryLater)
	}
}

// ListSessions returns the user's sessions, most recently updated first.
func (s *AIService) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.GetUserID(ctx)
	sessions, err := s.Store.ListChatSessions(ctx, &store.FindChatSession{UserID: &userID})
	if err != nil {
		slog.Error("failed to list chat sessions", "user_id", userID, "error", err)
		return errorJSON(c, http.StatusInternalServerError, retryLater)
	}
	return c.JSON(http.StatusOK, lo.Map(sessions, func(session *store.ChatSession, _ int) SessionSummary {
		return convertSession(session)
	}))
}

// GetSession returns a session with its messages in chronological order.
func (s *AIService) GetSession(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusNotFound, sessionNotFound)
	}
	ctx := c.Request().Context()
	userID := auth.GetUserID(ctx)

	session, err := s.Store.GetChatSession(ctx, userID, id)
	if err != nil {
		slog.Error("failed to get chat session", "user_id", userID, "session_id", id, "error", err)
		return errorJSON(c, http.StatusInternalServerError, retryLater)
	}
	if session == nil {
		return errorJSON(c, http.StatusNotFound, sessionNotFound)
	}

	messages, err := s.Store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: session.ID})
	if err != nil {
		slog.Error("failed to list chat messages", "session_id", id, "error", err)
		return errorJSON(c, http.StatusInternalServerError, retryLater)
	}
	return c.JSON(http.StatusOK, SessionDetail{
		Session:  convertSession(session),
		Messages: lo.Map(messages, convertMessage),
	})
}
