// Package store defines the host cookie store capability and its decorators.
package store

import (
	"context"
	"errors"

	"github.com/hpungsan/crumbs/internal/cookie"
)

// ErrUnavailable is returned by a backend that cannot reach its host.
var ErrUnavailable = errors.New("cookie store unavailable")

// Store is the host cookie store. The host owns every record; crumbs only
// reads and removes.
type Store interface {
	// List returns the cookies that pass filter, in host order.
	List(ctx context.Context, filter cookie.Filter) ([]cookie.Record, error)

	// Remove deletes the cookie addressed by q and returns it, or nil when
	// nothing matched.
	Remove(ctx context.Context, q cookie.RemoveQuery) (*cookie.Record, error)
}

// Closer is implemented by backends holding a connection or file handle.
type Closer interface {
	Close() error
}

// Close closes st if it holds resources. Decorators forward to the wrapped store.
func Close(st Store) error {
	if c, ok := st.(Closer); ok {
		return c.Close()
	}
	return nil
}
