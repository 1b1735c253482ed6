package synonym

import (
	"context"
	"log/slog"

	"taxonid/internal/logging"
	"taxonid/internal/taxon"
)

// Outcome records how a single resolution ended.
type Outcome string

const (
	OutcomeNotSynonym      Outcome = "not_synonym"
	OutcomeResolved        Outcome = "resolved"
	OutcomeFallbackFirst   Outcome = "fallback_first"
	OutcomeMissingAccepted Outcome = "unresolved_missing_accepted"
	OutcomeLookupFailed    Outcome = "lookup_failed"
	OutcomeNoMatches       Outcome = "no_matches"
)

// Substituted reports whether the returned record differs from the input.
func (o Outcome) Substituted() bool {
	return o == OutcomeResolved || o == OutcomeFallbackFirst
}

// Lookup finds taxa by exact scientific name.
type Lookup interface {
	LookupByName(ctx context.Context, name string) ([]taxon.Record, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, name string) ([]taxon.Record, error)

// LookupByName calls f.
func (f LookupFunc) LookupByName(ctx context.Context, name string) ([]taxon.Record, error) {
	return f(ctx, name)
}

// Observer receives one call per resolution.
type Observer interface {
	ObserveSynonym(outcome string)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports outcomes to obs.
func WithObserver(obs Observer) Option {
	return func(r *Resolver) {
		r.observer = obs
	}
}

// Resolver replaces synonyms using an external lookup.
type Resolver struct {
	lookup   Lookup
	logger   *slog.Logger
	observer Observer
}

// NewResolver constructs a resolver around lookup.
func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{lookup: lookup, logger: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = logging.NewComponentLogger(r.logger, "synonym")
	return r
}

// Resolve returns the accepted record for a synonym, or candidate unchanged.
func (r *Resolver) Resolve(ctx context.Context, candidate taxon.Record) (taxon.Record, Outcome) {
	out, outcome := r.resolve(ctx, candidate)
	if r.observer != nil {
		r.observer.ObserveSynonym(string(outcome))
	}
	return out, outcome
}

func (r *Resolver) resolve(ctx context.Context, candidate taxon.Record) (taxon.Record, Outcome) {
	if !candidate.IsSynonym() {
		return candidate, OutcomeNotSynonym
	}
	logger := logging.WithContext(ctx, r.logger).With(logging.String("scientific_name", candidate.ScientificName))
	if err := candidate.Validate(); err != nil {
		logging.WarnWithContext(logger, "synonym has no accepted name", "synonym_unresolved",
			logging.String(logging.FieldImpact, "record used as-is"),
			logging.Error(err),
		)
		return candidate, OutcomeMissingAccepted
	}
	if r.lookup == nil {
		return candidate, OutcomeLookupFailed
	}
	accepted := candidate.AcceptedScientificName
	matches, err := r.lookup.LookupByName(ctx, accepted)
	if err != nil {
		logging.WarnWithContext(logger, "accepted name lookup failed", "synonym_lookup_failed",
			logging.String("accepted_name", accepted),
			logging.String(logging.FieldImpact, "synonym left unresolved"),
			logging.Error(err),
		)
		return candidate, OutcomeLookupFailed
	}
	if len(matches) == 0 {
		logger.Debug("accepted name lookup returned no matches", logging.String("accepted_name", accepted))
		return candidate, OutcomeNoMatches
	}
	for _, match := range matches {
		if match.ScientificName == accepted && match.Status == taxon.StatusAccepted {
			logger.Debug("synonym resolved", logging.Args(logging.DecisionAttrs("synonym", string(OutcomeResolved), accepted)...)...)
			return match, OutcomeResolved
		}
	}
	logger.Debug("synonym resolved to first match",
		logging.Args(logging.DecisionAttrs("synonym", string(OutcomeFallbackFirst), matches[0].ScientificName)...)...)
	return matches[0], OutcomeFallbackFirst
}

// ResolveAll resolves every candidate, preserving order.
func (r *Resolver) ResolveAll(ctx context.Context, candidates []taxon.Record) []taxon.Record {
	out := make([]taxon.Record, len(candidates))
	for i, c := range candidates {
		if ctx.Err() != nil {
			copy(out[i:], candidates[i:])
			break
		}
		out[i], _ = r.Resolve(ctx, c)
	}
	return out
}
