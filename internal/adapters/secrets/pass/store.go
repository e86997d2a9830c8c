package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

// DefaultPrefix is the password-store subtree the CLI files credentials under.
const DefaultPrefix = "eziii"

const (
	notInStore     = "is not in the password store"
	defaultTimeout = 15 * time.Second
)

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store keeps credentials in the user's password-store through the pass
// CLI. Each key is one entry; only its first line is the secret, as pass
// expects.
type Store struct {
	run     runFunc
	prefix  string
	timeout time.Duration
}

var _ ports.SecretStore = (*Store)(nil)

type Option func(*Store)

// WithPrefix files every entry under prefix, e.g. "eziii" stores
// "ns/accessToken" as "eziii/ns/accessToken".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// WithTimeout bounds each pass invocation; gpg may block on pinentry.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{run: runPassCommand, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("pass put %q: value must be a single line", key)
	}

	ctx, cancel := s.commandContext(ctx)
	defer cancel()

	entry := s.entry(key)
	_, stderr, err := s.run(ctx, value+"\n", "insert", "-e", "-f", entry)
	if err != nil {
		return formatError("put", entry, err, stderr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := s.commandContext(ctx)
	defer cancel()

	entry := s.entry(key)
	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		if strings.Contains(stderr, notInStore) {
			return "", fmt.Errorf("pass get %q: %w", entry, domain.ErrKeyNotFound)
		}
		return "", formatError("get", entry, err, stderr)
	}

	first, _, _ := strings.Cut(stdout, "\n")
	return strings.TrimSuffix(first, "\r"), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := s.commandContext(ctx)
	defer cancel()

	entry := s.entry(key)
	_, stderr, err := s.run(ctx, "", "rm", "-f", entry)
	if err != nil {
		if strings.Contains(stderr, notInStore) {
			return nil
		}
		return formatError("delete", entry, err, stderr)
	}

	return nil
}

func (s *Store) entry(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *Store) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if ctx.Err() != nil {
		return stdout.String(), strings.TrimSpace(stderr.String()), fmt.Errorf("pass %s: %w", args[0], ctx.Err())
	}
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}
