package ports

import "context"

// StateStore is the durable key/value store behind conversation history.
// Values are opaque strings; callers own their encoding.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
