// Package memory is an in-process cookie store. It seeds from a JSON fixture
// for the "memory" backend and doubles as the store fake in tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/spf13/afero"

	"github.com/hpungsan/crumbs/internal/cookie"
)

// Store keeps records in insertion order behind a mutex.
type Store struct {
	mu      sync.Mutex
	records []cookie.Record

	listCalls   int
	removeCalls int

	// ListErr and RemoveErr, when set, are returned by the matching method.
	// RemoveErrFor fails only removals whose name matches a key.
	ListErr      error
	ListErrFor   map[string]error // keyed by filter domain
	RemoveErr    error
	RemoveErrFor map[string]error // keyed by cookie name
}

// New returns a store holding a copy of records.
func New(records ...cookie.Record) *Store {
	return &Store{records: slices.Clone(records)}
}

// LoadFixture reads a JSON array of records from path on fs.
func LoadFixture(fs afero.Fs, path string) (*Store, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var records []cookie.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i := range records {
		if records[i].Session {
			records[i].ExpirationDate = nil
		}
	}
	return New(records...), nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context, filter cookie.Filter) ([]cookie.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if err := s.ListErrFor[filter.Domain]; err != nil {
		return nil, err
	}
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	out := make([]cookie.Record, 0)
	for _, r := range s.records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Remove implements store.Store.
func (s *Store) Remove(ctx context.Context, q cookie.RemoveQuery) (*cookie.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeCalls++
	if err := s.RemoveErrFor[q.Name]; err != nil {
		return nil, err
	}
	if s.RemoveErr != nil {
		return nil, s.RemoveErr
	}

	for i, r := range s.records {
		if q.Matches(r) {
			s.records = slices.Delete(s.records, i, i+1)
			return &r, nil
		}
	}
	return nil, nil
}

// Add appends records, as if the host had set new cookies.
func (s *Store) Add(records ...cookie.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Calls returns how many List and Remove calls reached the store.
func (s *Store) Calls() (list, remove int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, s.removeCalls
}

// ResetCalls zeroes the call counters.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls, s.removeCalls = 0, 0
}
