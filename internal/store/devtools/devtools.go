// Package devtools reads and deletes the cookies of a running Chromium-family
// browser over the Chrome DevTools Protocol.
package devtools

import (
	"context"
	"fmt"
	"sync"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/network"
	"github.com/mafredri/cdp/rpcc"

	"github.com/hpungsan/crumbs/internal/cookie"
	"github.com/hpungsan/crumbs/internal/store"
)

// storeID is the only partition a DevTools session exposes.
const storeID = "0"

// cookieAPI is the slice of the Network domain the store needs.
type cookieAPI interface {
	GetAllCookies(ctx context.Context) ([]network.Cookie, error)
	DeleteCookies(ctx context.Context, args *network.DeleteCookiesArgs) error
}

type dialFunc func(ctx context.Context) (cookieAPI, func() error, error)

// Store talks to the browser at a remote debugging URL. The connection is
// opened on first use; a browser that is not running reports store.ErrUnavailable.
type Store struct {
	url  string
	dial dialFunc

	mu    sync.Mutex
	api   cookieAPI
	close func() error
}

// New returns a store for the remote debugging endpoint at url,
// e.g. http://127.0.0.1:9222.
func New(url string) *Store {
	s := &Store{url: url}
	s.dial = s.dialBrowser
	return s
}

// URL returns the remote debugging endpoint.
func (s *Store) URL() string { return s.url }

func (s *Store) dialBrowser(ctx context.Context) (cookieAPI, func() error, error) {
	targets, err := devtool.New(s.url).List(ctx)
	if err != nil {
		return nil, nil, err
	}
	var sel *devtool.Target
	for _, t := range targets {
		if t.Type == devtool.Page && t.WebSocketDebuggerURL != "" {
			sel = t
			break
		}
	}
	if sel == nil {
		return nil, nil, fmt.Errorf("no page target at %s", s.url)
	}

	conn, err := rpcc.DialContext(ctx, sel.WebSocketDebuggerURL)
	if err != nil {
		return nil, nil, err
	}
	return &clientAPI{c: cdp.NewClient(conn)}, conn.Close, nil
}

func (s *Store) client(ctx context.Context) (cookieAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api != nil {
		return s.api, nil
	}
	api, closeFn, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrUnavailable, s.url, err)
	}
	s.api, s.close = api, closeFn
	return api, nil
}

// Close drops the DevTools connection, if one was opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.close == nil {
		return nil
	}
	err := s.close()
	s.api, s.close = nil, nil
	return err
}

// List implements store.Store. The browser returns every cookie; the filter
// is applied here.
func (s *Store) List(ctx context.Context, filter cookie.Filter) ([]cookie.Record, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	cookies, err := api.GetAllCookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}

	out := make([]cookie.Record, 0, len(cookies))
	for _, c := range cookies {
		rec := toRecord(c)
		if filter.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Remove implements store.Store.
func (s *Store) Remove(ctx context.Context, q cookie.RemoveQuery) (*cookie.Record, error) {
	records, err := s.List(ctx, cookie.Filter{})
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if !q.Matches(rec) {
			continue
		}
		args := network.NewDeleteCookiesArgs(rec.Name).
			SetURL(q.URL).
			SetDomain(rec.Domain).
			SetPath(rec.Path)

		api, err := s.client(ctx)
		if err != nil {
			return nil, err
		}
		if err := api.DeleteCookies(ctx, args); err != nil {
			return nil, fmt.Errorf("delete cookie %s: %w", rec.Name, err)
		}
		return &rec, nil
	}
	return nil, nil
}

func toRecord(c network.Cookie) cookie.Record {
	rec := cookie.Record{
		Domain:   c.Domain,
		Path:     c.Path,
		Name:     c.Name,
		Value:    c.Value,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		HostOnly: len(c.Domain) > 0 && c.Domain[0] != '.',
		Session:  c.Session,
		StoreID:  storeID,
	}
	if !c.Session && c.Expires > 0 {
		exp := c.Expires
		rec.ExpirationDate = &exp
	}
	return rec
}

// clientAPI adapts *cdp.Client to cookieAPI.
type clientAPI struct {
	c *cdp.Client
}

func (a *clientAPI) GetAllCookies(ctx context.Context) ([]network.Cookie, error) {
	reply, err := a.c.Network.GetAllCookies(ctx)
	if err != nil {
		return nil, err
	}
	return reply.Cookies, nil
}

func (a *clientAPI) DeleteCookies(ctx context.Context, args *network.DeleteCookiesArgs) error {
	return a.c.Network.DeleteCookies(ctx, args)
}
