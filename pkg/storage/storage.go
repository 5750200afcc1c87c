package storage

import "context"

// Storage is the key-value contract the registry and coordinator need
// from a backend. Nothing stronger than read-your-writes on the same
// connection is assumed.
type Storage[T any] interface {
	Create(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, error)
	Update(ctx context.Context, key string, value T) error
	List(ctx context.Context, offset, limit uint64) ([]T, uint64, error)
	Delete(ctx context.Context, key string) error
}
