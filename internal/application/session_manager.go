package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionManager owns the Bootstrapping -> Anonymous/Authenticated state
// machine. Every transition gets a fresh session id, which is what pending
// work compares against to decide whether it may still touch shared state.
type SessionManager struct {
	tokens   *TokenStore
	auth     ports.Authenticator
	metrics  ports.Metrics
	validate *validator.Validate
	log      zerolog.Logger
	newID    func() string

	mu           sync.RWMutex
	bootstrapped bool
	session      domain.Session
	accessToken  string
}

type SessionOption func(*SessionManager)

func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(m *SessionManager) {
		m.log = log
	}
}

func WithSessionMetrics(metrics ports.Metrics) SessionOption {
	return func(m *SessionManager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithSessionIDs replaces the uuid generator, for deterministic tests.
func WithSessionIDs(next func() string) SessionOption {
	return func(m *SessionManager) {
		if next != nil {
			m.newID = next
		}
	}
}

func NewSessionManager(tokens *TokenStore, auth ports.Authenticator, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		tokens:   tokens,
		auth:     auth,
		metrics:  ports.NopMetrics{},
		validate: newValidator(),
		log:      zerolog.Nop(),
		newID:    uuid.NewString,
		session:  domain.Session{Phase: domain.PhaseBootstrapping, Identity: domain.AnonymousIdentity()},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap reads the stored credential and settles the session. It runs
// exactly once.
func (m *SessionManager) Bootstrap(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bootstrapped {
		return m.session, domain.ErrAlreadyBootstrapped
	}

	cred, claims, ok, err := m.tokens.Load(ctx)
	if err != nil {
		return m.session, fmt.Errorf("bootstrap session: %w", err)
	}

	m.bootstrapped = true
	if !ok {
		m.setAnonymousLocked()
		return m.session, nil
	}

	m.setAuthenticatedLocked(cred.AccessToken, claims)
	m.log.Debug().Str("session", m.session.ID).Str("role", string(m.session.Identity.Role)).Msg("session restored")
	return m.session, nil
}

func (m *SessionManager) Login(ctx context.Context, email, password string) (domain.Session, error) {
	input := domain.LoginInput{Email: strings.TrimSpace(email), Password: password}
	if err := validateInput(m.validate, input); err != nil {
		return m.Session(), err
	}

	if err := m.requireBootstrapped(); err != nil {
		return m.Session(), err
	}

	cred, err := m.auth.Login(ctx, input)
	if err != nil {
		return m.Session(), fmt.Errorf("login: %w", err)
	}

	return m.adopt(ctx, cred)
}

// Register creates an account and signs it in. The new identity has no
// student linkage until the profile is completed server side.
func (m *SessionManager) Register(ctx context.Context, fullName, email, password string) (domain.Session, error) {
	input := domain.RegistrationInput{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validateInput(m.validate, input); err != nil {
		return m.Session(), err
	}

	if err := m.requireBootstrapped(); err != nil {
		return m.Session(), err
	}

	cred, err := m.auth.Register(ctx, input)
	if err != nil {
		return m.Session(), fmt.Errorf("register: %w", err)
	}

	return m.adopt(ctx, cred)
}

func (m *SessionManager) adopt(ctx context.Context, cred domain.Credential) (domain.Session, error) {
	claims, err := m.tokens.Decode(cred.AccessToken)
	if err != nil {
		return m.Session(), &domain.TransportError{Op: "decode issued token", Err: err}
	}

	if err := m.tokens.Save(ctx, cred); err != nil {
		return m.Session(), fmt.Errorf("persist credential: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.setAuthenticatedLocked(cred.AccessToken, claims)
	m.log.Info().Str("session", m.session.ID).Str("user", m.session.Identity.DisplayName()).Msg("signed in")
	return m.session, nil
}

// Logout clears the credential and ends the current session. Work issued
// under the old session id becomes stale.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	m.bootstrapped = true
	m.setAnonymousLocked()
	return nil
}

// Expire applies the 401 rule for a request issued under sessionID. It does
// nothing when that session has already ended, so a burst of 401s from one
// session cannot log out a newer one.
func (m *SessionManager) Expire(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.bootstrapped || m.session.ID != sessionID || !m.session.Authenticated() {
		return false, nil
	}

	if err := m.tokens.Clear(ctx); err != nil {
		return false, fmt.Errorf("expire session: %w", err)
	}

	m.log.Warn().Str("session", sessionID).Msg("session expired")
	m.metrics.CountSessionExpiry()
	m.setAnonymousLocked()
	return true, nil
}

func (m *SessionManager) Session() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.session
}

func (m *SessionManager) IsCurrent(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bootstrapped && sessionID != "" && m.session.ID == sessionID
}

// WhileCurrent runs fn only if sessionID is still the current session, and
// holds off Logout, Expire and Login until fn returns. It reports whether fn
// ran. fn must not call back into the SessionManager.
func (m *SessionManager) WhileCurrent(sessionID string, fn func() error) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.bootstrapped || sessionID == "" || m.session.ID != sessionID {
		return false, nil
	}
	return true, fn()
}

// AccessToken returns the bearer for the current session together with the
// session id it belongs to.
func (m *SessionManager) AccessToken() (string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.bootstrapped || !m.session.Authenticated() {
		return "", m.session.ID, domain.ErrNotAuthenticated
	}

	return m.accessToken, m.session.ID, nil
}

// Current returns the session id without requiring authentication. The
// admin surface uses it to tie responses to the session they started in.
func (m *SessionManager) Current() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.bootstrapped {
		return "", domain.ErrNotAuthenticated
	}
	return m.session.ID, nil
}

func (m *SessionManager) requireBootstrapped() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.bootstrapped {
		return domain.ErrNotAuthenticated
	}
	return nil
}

func (m *SessionManager) setAnonymousLocked() {
	m.accessToken = ""
	m.session = domain.Session{
		ID:       m.newID(),
		Phase:    domain.PhaseAnonymous,
		Identity: domain.AnonymousIdentity(),
	}
}

func (m *SessionManager) setAuthenticatedLocked(accessToken string, claims domain.Claims) {
	m.accessToken = accessToken
	m.session = domain.Session{
		ID:       m.newID(),
		Phase:    domain.PhaseAuthenticated,
		Identity: claims.Identity(),
	}
}
