package store

import (
	"context"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/hpungsan/crumbs/internal/cookie"
)

type coalescing struct {
	next  Store
	group singleflight.Group
}

// Coalesce wraps st so that concurrent List calls with the same filter share
// one host query. Each caller receives its own copy of the result slice.
// The shared query outlives any single caller's cancellation; a cancelled
// caller stops waiting and gets its own ctx error. Remove is passed through
// untouched.
func Coalesce(st Store) Store {
	if st == nil {
		return nil
	}
	return &coalescing{next: st}
}

func (c *coalescing) List(ctx context.Context, filter cookie.Filter) ([]cookie.Record, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan("list:"+filter.Domain, func() (any, error) {
		return c.next.List(shared, filter)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		records, _ := res.Val.([]cookie.Record)
		return slices.Clone(records), nil
	}
}

func (c *coalescing) Remove(ctx context.Context, q cookie.RemoveQuery) (*cookie.Record, error) {
	return c.next.Remove(ctx, q)
}

func (c *coalescing) Close() error {
	return Close(c.next)
}
