// Package taxonapi talks to the remote taxon search service and implements
// taxon.Searcher over HTTP.
//
// Session wraps any Searcher for interactive use: each new search cancels
// the one in flight and any response that arrives after a newer search was
// issued is reported as ErrStale instead of being returned.
package taxonapi
