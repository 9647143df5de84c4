// Package metadata stores small key/value facts about the local database,
// such as the salt used to derive the session sealing key.
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value table. Get returns (nil, nil) for
// an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetOrCreate(ctx context.Context, key string, create func() []byte) ([]byte, error)
}
