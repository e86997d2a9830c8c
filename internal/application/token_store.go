package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	accessTokenKey  = "accessToken"
	refreshTokenKey = "refreshToken"
)

// TokenStore persists the credential pair and decodes the access token's
// claims. It never talks to the network, so the signature is not checked;
// the gateway does that on every request.
type TokenStore struct {
	store     ports.SecretStore
	namespace string
	parser    *jwt.Parser
	log       zerolog.Logger
}

func NewTokenStore(store ports.SecretStore, namespace string, log zerolog.Logger) *TokenStore {
	return &TokenStore{
		store:     store,
		namespace: namespace,
		parser:    jwt.NewParser(),
		log:       log,
	}
}

func (s *TokenStore) Save(ctx context.Context, cred domain.Credential) error {
	if cred.Empty() {
		return errors.New("save credential: access token is empty")
	}

	if err := s.store.Put(ctx, s.key(accessTokenKey), cred.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}

	if cred.RefreshToken == "" {
		if err := s.store.Delete(ctx, s.key(refreshTokenKey)); err != nil {
			return fmt.Errorf("delete stale refresh token: %w", err)
		}
		return nil
	}

	if err := s.store.Put(ctx, s.key(refreshTokenKey), cred.RefreshToken); err != nil {
		if rollbackErr := s.store.Delete(ctx, s.key(accessTokenKey)); rollbackErr != nil {
			return fmt.Errorf("store refresh token and rollback access token: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("store refresh token: %w", err)
	}

	return nil
}

// Load returns the stored credential and its claims. ok is false when
// nothing is stored or the stored token could not be decoded; in the latter
// case storage is cleared before returning.
func (s *TokenStore) Load(ctx context.Context) (domain.Credential, domain.Claims, bool, error) {
	access, err := s.store.Get(ctx, s.key(accessTokenKey))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.Credential{}, domain.Claims{}, false, nil
		}
		return domain.Credential{}, domain.Claims{}, false, fmt.Errorf("load access token: %w", err)
	}
	access = strings.TrimSpace(access)

	claims, err := s.decode(access)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored access token is unreadable, discarding credential")
		if clearErr := s.Clear(ctx); clearErr != nil {
			return domain.Credential{}, domain.Claims{}, false, fmt.Errorf("discard unreadable credential: %w", clearErr)
		}
		return domain.Credential{}, domain.Claims{}, false, nil
	}

	refresh, err := s.store.Get(ctx, s.key(refreshTokenKey))
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return domain.Credential{}, domain.Claims{}, false, fmt.Errorf("load refresh token: %w", err)
	}

	return domain.Credential{AccessToken: access, RefreshToken: strings.TrimSpace(refresh)}, claims, true, nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	var errs []error
	for _, name := range []string{accessTokenKey, refreshTokenKey} {
		if err := s.store.Delete(ctx, s.key(name)); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Decode reads the claims of an access token without verifying it.
func (s *TokenStore) Decode(token string) (domain.Claims, error) {
	return s.decode(token)
}

func (s *TokenStore) decode(token string) (domain.Claims, error) {
	if token == "" {
		return domain.Claims{}, errors.New("access token is empty")
	}

	var claims domain.Claims
	if _, _, err := s.parser.ParseUnverified(token, &claims); err != nil {
		return domain.Claims{}, fmt.Errorf("decode access token claims: %w", err)
	}

	return claims, nil
}

func (s *TokenStore) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "/" + name
}
