// Package chat runs one conversational turn end to end: validation, child
// resolution, routing, generation, post-processing and persistence.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/samber/lo"

	"github.com/hrygo/todoc/ai/agent"
	"github.com/hrygo/todoc/ai/core/retrieval"
	"github.com/hrygo/todoc/ai/diary"
	"github.com/hrygo/todoc/ai/metrics"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/ai/postprocess"
	"github.com/hrygo/todoc/ai/routing"
	"github.com/hrygo/todoc/ai/tools"
	"github.com/hrygo/todoc/store"
)

// HistoryTurns is how many stored messages are replayed when the client
// sends no prior turns.
const HistoryTurns = 20

// KidStore looks up children.
type KidStore interface {
	GetKid(ctx context.Context, id int32) (*store.Kid, error)
	GetMostRecentKid(ctx context.Context, userID int32) (*store.Kid, error)
}

// Store is the persistence a turn touches.
type Store interface {
	KidStore
	diary.Reader
	GetChatSession(ctx context.Context, userID, id int32) (*store.ChatSession, error)
	CreateChatSession(ctx context.Context, create *store.ChatSession) (*store.ChatSession, error)
	AppendChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error)
	TouchChatSession(ctx context.Context, id int32) error
	ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error)
}

// ChildPolicy picks the child of a turn that names none. It may return nil.
type ChildPolicy func(ctx context.Context, kids KidStore, userID int32) (*store.Kid, error)

// MostRecentlyCreatedChild binds the user's most recently registered child.
func MostRecentlyCreatedChild(ctx context.Context, kids KidStore, userID int32) (*store.Kid, error) {
	return kids.GetMostRecentKid(ctx, userID)
}

// TurnRequest is the input of one turn.
type TurnRequest struct {
	Message   string
	Persona   string
	ChildID   *int32
	SessionID *int32
	// History are prior turns sent by the client. When empty and SessionID
	// is set, the stored messages are replayed.
	History []agent.Turn
	Debug   bool
}

// Debug exposes how a reply was produced.
type Debug struct {
	ToolsCalled         []string `json:"tools_called"`
	RetrievalUsed       bool     `json:"retrieval_used"`
	PersonalizationUsed bool     `json:"personalization_used"`
	Decision            string   `json:"decision"`
	Reason              string   `json:"reason,omitempty"`
}

// TurnResponse is the output of one turn.
type TurnResponse struct {
	ReplyText       string          `json:"reply_text"`
	SessionID       int32           `json:"session_id"`
	SessionUID      string          `json:"session_uid"`
	Persona         persona.Persona `json:"persona_mode"`
	DateLabel       string          `json:"date_label"`
	Title           string          `json:"title"`
	QuestionSnippet string          `json:"question_snippet"`
	ChildID         *int32          `json:"child_id,omitempty"`
	ChildName       string          `json:"child_name,omitempty"`
	Citations       []string        `json:"citations,omitempty"`
	Debug           *Debug          `json:"debug,omitempty"`
}

// Config wires the collaborators of a Service.
type Config struct {
	Personas  *persona.Store
	Router    *routing.Router
	Driver    *agent.Driver
	Titles    *TitleGenerator
	Retriever retrieval.Retriever
	Web       tools.WebSearcher
	// ChildPolicy defaults to MostRecentlyCreatedChild.
	ChildPolicy ChildPolicy
	Metrics     metrics.Recorder
	Now         func() time.Time
	// Debug includes debug details in every response.
	Debug bool
}

// Service runs chat turns.
type Service struct {
	store    Store
	personas *persona.Store
	router   *routing.Router
	driver   *agent.Driver
	titles   *TitleGenerator
	tools    tools.Deps
	child    ChildPolicy
	metrics  metrics.Recorder
	now      func() time.Time
	debug    bool
}

// NewService creates the turn orchestrator.
func NewService(st Store, cfg Config) *Service {
	if cfg.Personas == nil {
		cfg.Personas = persona.NewStore()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	if cfg.Router == nil {
		cfg.Router = routing.NewRouter(cfg.Personas, nil, nil, cfg.Metrics)
	}
	if cfg.Driver == nil {
		cfg.Driver = agent.NewDriver(nil)
	}
	if cfg.ChildPolicy == nil {
		cfg.ChildPolicy = MostRecentlyCreatedChild
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:    st,
		personas: cfg.Personas,
		router:   cfg.Router,
		driver:   cfg.Driver,
		titles:   cfg.Titles,
		tools:    tools.Deps{Retriever: cfg.Retriever, Web: cfg.Web, Metrics: cfg.Metrics},
		child:    cfg.ChildPolicy,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
		debug:    cfg.Debug,
	}
}

// Turn answers one message and records it in the user's session.
func (s *Service) Turn(ctx context.Context, userID int32, req TurnRequest) (resp *TurnResponse, err error) {
	start := time.Now()
	decision := "invalid"
	p := persona.Parenting
	defer func() {
		s.metrics.RecordChatTurn(string(p), decision, time.Since(start), err == nil)
	}()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Persona) != "" {
		if p, err = persona.Parse(req.Persona); err != nil {
			p = persona.Parenting
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	var session *store.ChatSession
	if req.SessionID != nil {
		session, err = s.store.GetChatSession(ctx, userID, *req.SessionID)
		if err != nil {
			return nil, persistence("load session", err)
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
	}

	// A continued session stays with the child it was started for.
	childID := req.ChildID
	if childID == nil && session != nil {
		childID = session.KidID
	}
	kid, err := s.resolveChild(ctx, userID, childID)
	if err != nil {
		return nil, err
	}

	history := req.History
	if len(history) == 0 && session != nil {
		if history, err = s.storedHistory(ctx, session.ID); err != nil {
			return nil, err
		}
	}

	route := s.router.Route(ctx, p, message)
	decision = string(route.Kind)

	result := &agent.Result{}
	if route.Deflect {
		result.Text = routing.DeflectionText
	} else {
		builder := diary.NewBuilder(kid, s.store, s.now)
		policy := s.personas.Policy(p)
		deps := s.tools
		deps.Diary = builder
		result = s.driver.Run(ctx, agent.Request{
			Policy:      policy,
			Message:     message,
			History:     history,
			Diary:       builder.Snapshot(ctx),
			Tools:       tools.Build(policy, deps),
			Personalize: s.personas.NeedsPersonalization(message, p),
		})
	}

	reply := postprocess.Process(result.Text, postprocess.Flags{
		RetrievalUsed: result.RetrievalUsed,
		Current:       p,
		Decision:      route,
	})

	session, err = s.record(ctx, userID, session, p, kid, message, reply)
	if err != nil {
		return nil, err
	}

	resp = &TurnResponse{
		ReplyText:       reply,
		SessionID:       session.ID,
		SessionUID:      session.UID,
		Persona:         p,
		DateLabel:       DateLabel(time.Unix(session.CreatedTs, 0), s.now()),
		Title:           session.DisplayTitle(),
		QuestionSnippet: session.QuestionSnippet,
		Citations:       result.Citations,
	}
	if kid != nil {
		resp.ChildID = lo.ToPtr(kid.ID)
		resp.ChildName = kid.Name
	}
	if s.debug || req.Debug {
		resp.Debug = &Debug{
			ToolsCalled:         lo.Ternary(result.ToolsCalled == nil, []string{}, result.ToolsCalled),
			RetrievalUsed:       result.RetrievalUsed,
			PersonalizationUsed: result.PersonalizationUsed,
			Decision:            string(route.Kind),
			Reason:              route.Reason,
		}
	}

	slog.Info("chat: turn completed",
		"user_id", userID,
		"session_id", session.ID,
		"persona", p,
		"decision", route.Kind,
		"deflect", route.Deflect,
		"tools", result.ToolsCalled,
		"retrieval_used", result.RetrievalUsed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (s *Service) resolveChild(ctx context.Context, userID int32, childID *int32) (*store.Kid, error) {
	if childID == nil {
		kid, err := s.child(ctx, s.store, userID)
		if err != nil {
			return nil, persistence("resolve default child", err)
		}
		return kid, nil
	}
	kid, err := s.store.GetKid(ctx, *childID)
	if err != nil {
		return nil, persistence("load child", err)
	}
	if kid == nil || kid.UserID != userID {
		return nil, ErrChildNotFound
	}
	return kid, nil
}

func (s *Service) storedHistory(ctx context.Context, sessionID int32) ([]agent.Turn, error) {
	messages, err := s.store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: sessionID, Last: HistoryTurns})
	if err != nil {
		return nil, persistence("load history", err)
	}
	return lo.Map(messages, func(m *store.ChatMessage, _ int) agent.Turn {
		return agent.Turn{Role: string(m.Sender), Content: m.Content}
	}), nil
}

// record finds or creates the session and appends both sides of the turn.
func (s *Service) record(ctx context.Context, userID int32, session *store.ChatSession, p persona.Persona, kid *store.Kid, message, reply string) (*store.ChatSession, error) {
	if session == nil {
		create := &store.ChatSession{
			UserID:          userID,
			UID:             shortuuid.New(),
			Persona:         string(p),
			Title:           s.titles.Generate(ctx, message),
			QuestionSnippet: Snippet(message),
			DateLabel:       DateLabel(s.now(), s.now()),
		}
		if kid != nil {
			create.KidID = lo.ToPtr(kid.ID)
		}
		created, err := s.store.CreateChatSession(ctx, create)
		if err != nil {
			return nil, persistence("create session", err)
		}
		session = created
	}

	for _, m := range []*store.ChatMessage{
		{SessionID: session.ID, Sender: store.ChatSenderUser, Content: message},
		{SessionID: session.ID, Sender: store.ChatSenderAI, Content: reply},
	} {
		if _, err := s.store.AppendChatMessage(ctx, m); err != nil {
			return nil, persistence("append message", err)
		}
	}
	if err := s.store.TouchChatSession(ctx, session.ID); err != nil {
		return nil, persistence("touch session", err)
	}
	return session, nil
}
