package store

// DefaultChatTitle is shown for sessions without a generated title.
const DefaultChatTitle = "새 대화"

// ChatSender identifies the author of a ChatMessage.
type ChatSender string

const (
	ChatSenderUser ChatSender = "user"
	ChatSenderAI   ChatSender = "ai"
)

type ChatSession struct {
	KidID           *int32
	UID             string
	Persona         string
	Title           string
	QuestionSnippet string
	DateLabel       string
	CreatedTs       int64
	UpdatedTs       int64
	ID              int32
	UserID          int32
}

// DisplayTitle returns Title or the default title.
func (s *ChatSession) DisplayTitle() string {
	if s.Title == "" {
		return DefaultChatTitle
	}
	return s.Title
}

// FindChatSession filters sessions. Results are ordered by updated_ts DESC.
type FindChatSession struct {
	ID     *int32
	UID    *string
	UserID *int32
	Limit  int
}

type ChatMessage struct {
	Sender    ChatSender
	Content   string
	CreatedTs int64
	ID        int32
	SessionID int32
}

// FindChatMessage selects the messages of a session in chronological order.
// A positive Last keeps only the most recent Last messages.
type FindChatMessage struct {
	SessionID int32
	Last      int
}
