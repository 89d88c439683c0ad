package content

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
)

// Backend is one content-addressed store. Implementations return
// pkg/platform/sentinel errors: ErrNotFound for unknown ids, ErrUnavailable
// when the store cannot be reached.
type Backend interface {
	// Put stores data and returns the id the store assigned to it.
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Health(ctx context.Context) error
}

// ErrTooLarge marks a blob over the configured size limit.
var ErrTooLarge = errors.New("content exceeds size limit")
