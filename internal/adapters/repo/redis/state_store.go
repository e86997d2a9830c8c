package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	scanBatch      = 100
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect opens a client and checks it with a ping before handing it out.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// StateStore keeps conversation state in plain redis string keys so that
// several terminals can share one history.
type StateStore struct {
	client redis.Cmdable
}

var _ ports.StateStore = (*StateStore)(nil)

func NewStateStore(client redis.Cmdable) *StateStore {
	return &StateStore{client: client}
}

func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("state key %q: %w", key, domain.ErrKeyNotFound)
		}
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}

	return value, nil
}

func (s *StateStore) Put(ctx context.Context, key string, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("state key is empty")
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}

	return nil
}

func (s *StateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}

	return nil
}

func (s *StateStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapePattern(prefix) + "*"
	seen := map[string]struct{}{}

	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan %q: %w", pattern, err)
		}
		for _, key := range batch {
			seen[key] = struct{}{}
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapePattern(prefix string) string {
	return patternEscaper.Replace(prefix)
}
