package taxon

import (
	"context"

	"taxonid/internal/rank"
)

// Query describes one page of a taxon search.
type Query struct {
	Text    string
	Rank    rank.Rank
	Page    int
	PerPage int
}

// Normalized fills paging defaults.
func (q Query) Normalized(defaultPerPage int) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	return q
}

// Offset is the zero-based index of the page's first row.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Searcher is the taxon search collaborator. Implementations must populate
// taxonomic_status and, for synonyms, the accepted scientific name.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Record, error)
	LookupByName(ctx context.Context, name string) ([]Record, error)
}
