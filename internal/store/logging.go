package store

import (
	"context"
	"time"

	"github.com/hpungsan/crumbs/internal/cookie"
	"github.com/hpungsan/crumbs/internal/logger"
)

type logging struct {
	next Store
	log  logger.Logger
}

// WithLogging logs every host call at debug level, and failures at error level.
func WithLogging(st Store, log logger.Logger) Store {
	if st == nil {
		return nil
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &logging{next: st, log: log.With("component", "store")}
}

func (l *logging) List(ctx context.Context, filter cookie.Filter) ([]cookie.Record, error) {
	start := time.Now()
	records, err := l.next.List(ctx, filter)
	if err != nil {
		l.log.Err(err, "list cookies failed", "domain", filter.Domain, "elapsed", time.Since(start))
		return nil, err
	}
	l.log.Debug("list cookies", "domain", filter.Domain, "count", len(records), "elapsed", time.Since(start))
	return records, nil
}

func (l *logging) Remove(ctx context.Context, q cookie.RemoveQuery) (*cookie.Record, error) {
	start := time.Now()
	removed, err := l.next.Remove(ctx, q)
	if err != nil {
		l.log.Err(err, "remove cookie failed", "url", q.URL, "name", q.Name, "store_id", q.StoreID)
		return nil, err
	}
	l.log.Debug("remove cookie", "url", q.URL, "name", q.Name, "store_id", q.StoreID,
		"removed", removed != nil, "elapsed", time.Since(start))
	return removed, nil
}

func (l *logging) Close() error {
	return Close(l.next)
}
