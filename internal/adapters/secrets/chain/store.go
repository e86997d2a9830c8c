package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/Sanskargoyal608/Eziii/internal/adapters/secrets/file"
	passstore "github.com/Sanskargoyal608/Eziii/internal/adapters/secrets/pass"
	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/rs/zerolog"
)

// Store reads and writes the primary backend first and falls back to the
// secondary one when the primary fails. Deletes go to both so a credential
// cannot survive a logout in whichever backend happened to hold it.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
	log      zerolog.Logger
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func NewStore(primary ports.SecretStore, fallback ports.SecretStore, opts ...Option) *Store {
	store, err := NewStoreChecked(primary, fallback, opts...)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.SecretStore, fallback ports.SecretStore, opts ...Option) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	store := &Store{primary: primary, fallback: fallback, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// NewPassFirstWithFileFallback keeps credentials in pass under the
// "eziii" subtree and falls back to files below fileRoot.
func NewPassFirstWithFileFallback(fileRoot string, opts ...Option) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(passstore.WithPrefix(passstore.DefaultPrefix)), filestore.NewStore(fileRoot), opts...)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	s.log.Debug().Err(err).Str("key", key).Msg("primary secret backend put failed, using fallback")

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	if !errors.Is(err, domain.ErrKeyNotFound) {
		s.log.Debug().Err(err).Str("key", key).Msg("primary secret backend get failed, using fallback")
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	if err == nil || fallbackErr == nil {
		if err != nil {
			s.log.Debug().Err(err).Str("key", key).Msg("primary secret backend delete failed")
		}
		return nil
	}

	return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
