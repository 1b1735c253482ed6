package taxonapi

import (
	"context"
	"fmt"
	"sync"

	"taxonid/internal/services"
	"taxonid/internal/taxon"
)

// ErrStale marks a response superseded by a newer search.
var ErrStale = fmt.Errorf("%w: superseded by a newer search", services.ErrConflict)

// Session serializes interactive searches so only the latest one wins.
type Session struct {
	searcher taxon.Searcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession wraps searcher.
func NewSession(searcher taxon.Searcher) *Session {
	return &Session{searcher: searcher}
}

// Search cancels any search still in flight and runs q.
func (s *Session) Search(ctx context.Context, q taxon.Query) ([]taxon.Record, error) {
	ctx, token := s.begin(ctx)
	records, err := s.searcher.Search(ctx, q)
	return s.finish(token, records, err)
}

// LookupByName follows the same latest-wins rule as Search.
func (s *Session) LookupByName(ctx context.Context, name string) ([]taxon.Record, error) {
	ctx, token := s.begin(ctx)
	records, err := s.searcher.LookupByName(ctx, name)
	return s.finish(token, records, err)
}

func (s *Session) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.cancel = cancel
	return ctx, s.seq
}

func (s *Session) finish(token uint64, records []taxon.Record, err error) ([]taxon.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq {
		return nil, ErrStale
	}
	s.cancel()
	s.cancel = nil
	return records, err
}
