package application

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/Sanskargoyal608/Eziii/internal/ports/mocks"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testNamespace = "eziii"

func fakeJWT(t *testing.T, claims domain.Claims) string {
	t.Helper()

	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func studentClaims(id int) domain.Claims {
	return domain.Claims{StudentID: &id, Email: "asha@example.com", FullName: "Asha", Role: "student"}
}

type memSecrets struct {
	mu     sync.Mutex
	values map[string]string
}

var _ ports.SecretStore = (*memSecrets)(nil)

func newMemSecrets() *memSecrets {
	return &memSecrets{values: map[string]string{}}
}

func (s *memSecrets) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

func (s *memSecrets) Put(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *memSecrets) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *memSecrets) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.values)
}

type memState struct {
	memSecrets
	onPut func(key, value string)
}

func (s *memState) Put(ctx context.Context, key string, value string) error {
	if s.onPut != nil {
		s.onPut(key, value)
	}
	return s.memSecrets.Put(ctx, key, value)
}

var _ ports.StateStore = (*memState)(nil)

func newMemState() *memState {
	return &memState{memSecrets: memSecrets{values: map[string]string{}}}
}

func (s *memState) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// steppingClock advances one millisecond per reading.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.UnixMilli(1_700_000_000_000).UTC()}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type transportFunc func(ctx context.Context, req ports.Request) (ports.Response, error)

func (f transportFunc) Send(ctx context.Context, req ports.Request) (ports.Response, error) {
	return f(ctx, req)
}

func jsonResponse(t *testing.T, status int, payload any) ports.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return ports.Response{StatusCode: status, Body: body}
}

// harness wires the application services over in-memory stores.
type harness struct {
	secrets       *memSecrets
	state         *memState
	tokens        *TokenStore
	auth          *mocks.MockAuthenticator
	sessions      *SessionManager
	gateway       *Gateway
	conversations *ConversationStore
	dispatcher    *QueryDispatcher
	resources     *ResourceClient
}

func newHarness(t *testing.T, transport ports.Transport) *harness {
	t.Helper()

	h := &harness{
		secrets: newMemSecrets(),
		state:   newMemState(),
		auth:    mocks.NewMockAuthenticator(t),
	}
	h.tokens = NewTokenStore(h.secrets, testNamespace, zerolog.Nop())
	h.sessions = NewSessionManager(h.tokens, h.auth)
	h.gateway = NewGateway(transport, h.sessions, zerolog.Nop())
	h.conversations = NewConversationStore(h.state, testNamespace, newSteppingClock(), zerolog.Nop())
	h.dispatcher = NewQueryDispatcher(h.gateway, h.sessions, h.conversations, nil, zerolog.Nop())
	h.resources = NewResourceClient(h.gateway, nil, zerolog.Nop())
	return h
}

// signIn stores a credential for a student and bootstraps the session from it.
func (h *harness) signIn(t *testing.T, studentID int) domain.Session {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, h.tokens.Save(ctx, domain.Credential{
		AccessToken:  fakeJWT(t, studentClaims(studentID)),
		RefreshToken: "refresh-token",
	}))

	session, err := h.sessions.Bootstrap(ctx)
	require.NoError(t, err)
	require.True(t, session.Authenticated())
	return session
}

func (h *harness) bootstrapAnonymous(t *testing.T) domain.Session {
	t.Helper()

	session, err := h.sessions.Bootstrap(context.Background())
	require.NoError(t, err)
	require.False(t, session.Authenticated())
	return session
}
