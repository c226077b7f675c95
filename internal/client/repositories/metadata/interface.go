// Package metadata is the client's durable key/value table. The record
// store keeps the serialized mapping, the current SyncId and the per-SyncId
// watermarks here.
package metadata

import (
	"context"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
