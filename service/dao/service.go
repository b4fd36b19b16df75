package dao

import (
	"context"
)

// Service persists whole entity snapshots keyed by K.
//
// Load returns ErrNotFound when no entity is stored under the key. List
// returns the entities matching every supplied parameter.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
