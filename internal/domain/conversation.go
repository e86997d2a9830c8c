package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	StudentWelcomeText = "Welcome! Ask me to find eligible jobs or scholarships based on your verified documents."
	AdminWelcomeText   = "Welcome, Admin. Select a student context and ask a query."
	StudentClearedText = "Chat history cleared."
	AdminClearedText   = "Admin chat history cleared."
)

// ContextKey selects whose data a query is scoped to: "self" for the student
// role, "all" or a numeric student id for the admin role.
type ContextKey string

const (
	ContextSelf      ContextKey = "self"
	ContextAggregate ContextKey = "all"
)

func StudentContext(id int) ContextKey {
	return ContextKey(strconv.Itoa(id))
}

func ParseContextKey(raw string) (ContextKey, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	switch ContextKey(trimmed) {
	case "":
		return "", fmt.Errorf("context is required")
	case ContextSelf, ContextAggregate:
		return ContextKey(trimmed), nil
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("context must be self, all or a positive student id, got %q", raw)
	}

	return StudentContext(n), nil
}

func (k ContextKey) StudentID() (int, bool) {
	n, err := strconv.Atoi(string(k))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ValidFor reports whether the key may be used by a conversation of role.
func (k ContextKey) ValidFor(role Role) error {
	switch role {
	case RoleStudent:
		if k != ContextSelf {
			return fmt.Errorf("student conversations only support the %q context, got %q", ContextSelf, k)
		}
		return nil
	case RoleAdmin:
		if k == ContextAggregate {
			return nil
		}
		if _, ok := k.StudentID(); ok {
			return nil
		}
		return fmt.Errorf("admin conversations need %q or a student id, got %q", ContextAggregate, k)
	default:
		return fmt.Errorf("unsupported chat role %q", role)
	}
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Message struct {
	ID        int64     `json:"id" yaml:"id"`
	Sender    Sender    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type Conversation struct {
	Role     Role
	Context  ContextKey
	Messages []Message
}

func (c Conversation) Last() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// NextMessageID returns a millisecond timestamp that is strictly greater than
// every id already in the conversation.
func (c Conversation) NextMessageID(now time.Time) int64 {
	id := now.UnixMilli()
	if last, ok := c.Last(); ok && id <= last.ID {
		id = last.ID + 1
	}
	return id
}

func WelcomeText(role Role) string {
	if role == RoleAdmin {
		return AdminWelcomeText
	}
	return StudentWelcomeText
}

func ClearedText(role Role) string {
	if role == RoleAdmin {
		return AdminClearedText
	}
	return StudentClearedText
}

type QueryState string

const (
	QueryIdle     QueryState = "idle"
	QuerySending  QueryState = "sending"
	QueryResolved QueryState = "resolved"
	QueryFailed   QueryState = "failed"
)
