package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/rs/zerolog"
)

const (
	studentHistoryKey = "student_chat_history"
	adminHistoryKey   = "admin_chat_history"
	adminContextKey   = "admin_chat_context"
)

// ConversationStore persists one message history per (role, context) pair.
// Every change is written through before the call returns.
type ConversationStore struct {
	store     ports.StateStore
	namespace string
	clock     ports.Clock
	log       zerolog.Logger

	mu sync.Mutex
}

func NewConversationStore(store ports.StateStore, namespace string, clock ports.Clock, log zerolog.Logger) *ConversationStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ConversationStore{store: store, namespace: namespace, clock: clock, log: log}
}

// Load returns the conversation, seeding and persisting the role's welcome
// message the first time it is read.
func (s *ConversationStore) Load(ctx context.Context, role domain.Role, key domain.ContextKey) (domain.Conversation, error) {
	storageKey, err := s.historyKey(role, key)
	if err != nil {
		return domain.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked(ctx, role, key, storageKey)
}

// Append stamps msg with the next id and the current time when they are
// unset, then persists it.
func (s *ConversationStore) Append(ctx context.Context, role domain.Role, key domain.ContextKey, msg domain.Message) (domain.Message, error) {
	storageKey, err := s.historyKey(role, key)
	if err != nil {
		return domain.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadLocked(ctx, role, key, storageKey)
	if err != nil {
		return domain.Message{}, err
	}

	now := s.clock.Now()
	if msg.ID == 0 || msg.ID <= lastID(conv) {
		msg.ID = conv.NextMessageID(now)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now.UTC()
	}
	conv.Messages = append(conv.Messages, msg)

	if err := s.saveLocked(ctx, storageKey, conv.Messages); err != nil {
		return domain.Message{}, err
	}

	return msg, nil
}

// Clear replaces the history with a single acknowledgement message.
func (s *ConversationStore) Clear(ctx context.Context, role domain.Role, key domain.ContextKey) (domain.Conversation, error) {
	storageKey, err := s.historyKey(role, key)
	if err != nil {
		return domain.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv := domain.Conversation{Role: role, Context: key}
	now := s.clock.Now()
	conv.Messages = []domain.Message{{
		ID:        conv.NextMessageID(now),
		Sender:    domain.SenderBot,
		Text:      domain.ClearedText(role),
		CreatedAt: now.UTC(),
	}}

	if err := s.saveLocked(ctx, storageKey, conv.Messages); err != nil {
		return domain.Conversation{}, err
	}

	return conv, nil
}

// ActiveContext is the admin's selected context, "all" until one is set.
func (s *ConversationStore) ActiveContext(ctx context.Context) (domain.ContextKey, error) {
	raw, err := s.store.Get(ctx, s.key(adminContextKey))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.ContextAggregate, nil
		}
		return "", fmt.Errorf("load admin context: %w", err)
	}

	key, err := domain.ParseContextKey(raw)
	if err != nil || key.ValidFor(domain.RoleAdmin) != nil {
		s.log.Warn().Str("value", raw).Msg("stored admin context is invalid, using aggregate")
		return domain.ContextAggregate, nil
	}

	return key, nil
}

// SetActiveContext switches the admin context. Histories of other contexts
// are not touched.
func (s *ConversationStore) SetActiveContext(ctx context.Context, key domain.ContextKey) error {
	if err := key.ValidFor(domain.RoleAdmin); err != nil {
		return err
	}

	if err := s.store.Put(ctx, s.key(adminContextKey), string(key)); err != nil {
		return fmt.Errorf("save admin context: %w", err)
	}

	return nil
}

// Contexts lists the admin contexts that have a stored history.
func (s *ConversationStore) Contexts(ctx context.Context) ([]domain.ContextKey, error) {
	prefix := s.key(adminHistoryKey)
	keys, err := s.store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list admin histories: %w", err)
	}

	out := make([]domain.ContextKey, 0, len(keys))
	for _, storageKey := range keys {
		rest := strings.TrimPrefix(storageKey, prefix)
		switch {
		case rest == "":
			out = append(out, domain.ContextAggregate)
		case strings.HasPrefix(rest, "/"):
			key, err := domain.ParseContextKey(strings.TrimPrefix(rest, "/"))
			if err == nil {
				out = append(out, key)
			}
		}
	}

	return out, nil
}

func (s *ConversationStore) loadLocked(ctx context.Context, role domain.Role, key domain.ContextKey, storageKey string) (domain.Conversation, error) {
	conv := domain.Conversation{Role: role, Context: key}

	raw, err := s.store.Get(ctx, storageKey)
	switch {
	case err == nil:
		var messages []domain.Message
		if decodeErr := json.Unmarshal([]byte(raw), &messages); decodeErr == nil && len(messages) > 0 {
			conv.Messages = messages
			return conv, nil
		} else if decodeErr != nil {
			s.log.Warn().Err(decodeErr).Str("key", storageKey).Msg("stored conversation is unreadable, reseeding")
		}
	case errors.Is(err, domain.ErrKeyNotFound):
	default:
		return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}

	now := s.clock.Now()
	conv.Messages = []domain.Message{{
		ID:        conv.NextMessageID(now),
		Sender:    domain.SenderBot,
		Text:      domain.WelcomeText(role),
		CreatedAt: now.UTC(),
	}}
	if err := s.saveLocked(ctx, storageKey, conv.Messages); err != nil {
		return domain.Conversation{}, err
	}

	return conv, nil
}

func (s *ConversationStore) saveLocked(ctx context.Context, storageKey string, messages []domain.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	if err := s.store.Put(ctx, storageKey, string(data)); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	return nil
}

func (s *ConversationStore) historyKey(role domain.Role, key domain.ContextKey) (string, error) {
	if err := key.ValidFor(role); err != nil {
		return "", err
	}

	if role == domain.RoleStudent {
		return s.key(studentHistoryKey), nil
	}
	if key == domain.ContextAggregate {
		return s.key(adminHistoryKey), nil
	}
	return s.key(adminHistoryKey + "/" + string(key)), nil
}

func (s *ConversationStore) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "/" + name
}

func lastID(conv domain.Conversation) int64 {
	if last, ok := conv.Last(); ok {
		return last.ID
	}
	return 0
}
