package observation

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"taxonid/internal/consensus"
	"taxonid/internal/hierarchy"
	"taxonid/internal/identification"
	"taxonid/internal/logging"
	"taxonid/internal/metrics"
	"taxonid/internal/services"
	"taxonid/internal/statscache"
	"taxonid/internal/store"
	"taxonid/internal/synonym"
	"taxonid/internal/taxon"
)

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	GetObservation(ctx context.Context, id string) (*store.Observation, error)
	ListIdentifications(ctx context.Context, observationID string) ([]identification.Identification, error)
	HasAgreed(ctx context.Context, identificationID, userID string) (bool, error)
	ApplyOutcome(ctx context.Context, outcome identification.Outcome, agreement *store.Agreement, update *store.ConsensusUpdate) error
	SaveConsensus(ctx context.Context, observationID string, result consensus.Result) error
	GradeCounts(ctx context.Context) (map[consensus.Grade]int, error)
	WithObservationLock(ctx context.Context, observationID string, fn func(context.Context) error) error
}

var _ Repository = (*store.Store)(nil)

const statsKey = "grades"

// Change is what a lifecycle call produced.
type Change struct {
	Identification *identification.Identification `json:"identification,omitempty"`
	Superseded     []string                       `json:"superseded,omitempty"`
	Result         consensus.Result               `json:"consensus"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver resolves proposed synonyms before they are stored.
func WithResolver(resolver *synonym.Resolver) Option {
	return func(s *Service) {
		s.resolver = resolver
	}
}

// WithMetrics reports evaluations, events and grouping sizes to rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = rec
	}
}

// WithStatsCache caches grade counts for ttl using clock.
func WithStatsCache(ttl time.Duration, clock statscache.Clock) Option {
	return func(s *Service) {
		s.stats = statscache.New[string, map[consensus.Grade]int](ttl, clock)
	}
}

// WithEngine replaces the default consensus engine.
func WithEngine(engine *consensus.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// Service runs identification events against a Repository.
type Service struct {
	repo     Repository
	engine   *consensus.Engine
	resolver *synonym.Resolver
	metrics  *metrics.Recorder
	stats    *statscache.Cache[string, map[consensus.Grade]int]
	logger   *slog.Logger
}

// NewService constructs a service around repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.NewComponentLogger(s.logger, "observation")
	if s.engine == nil {
		s.engine = consensus.NewEngine(consensus.WithLogger(s.logger))
	}
	return s
}

// Propose adds userID's identification of rec. Any earlier active
// identification by the same user is withdrawn.
func (s *Service) Propose(ctx context.Context, observationID, userID string, rec taxon.Record, comment string) (Change, error) {
	return s.apply(ctx, observationID, identification.Event{
		Kind:    identification.KindPropose,
		UserID:  userID,
		Taxon:   &rec,
		Comment: comment,
	})
}

// Agree records userID's agreement with identificationID.
func (s *Service) Agree(ctx context.Context, observationID, userID, identificationID string) (Change, error) {
	return s.apply(ctx, observationID, identification.Event{
		Kind:     identification.KindAgree,
		UserID:   userID,
		TargetID: identificationID,
	})
}

// Disagree submits a disagreement draft as a competing identification.
func (s *Service) Disagree(ctx context.Context, observationID string, draft *identification.Draft) (Change, error) {
	if draft == nil {
		return Change{}, services.Wrap(services.ErrContract, "observation", "disagree", "nil draft", nil)
	}
	ev, err := draft.Event()
	if err != nil {
		return Change{}, err
	}
	return s.apply(ctx, observationID, ev)
}

// Withdraw retires userID's own identification.
func (s *Service) Withdraw(ctx context.Context, observationID, userID, identificationID string) (Change, error) {
	return s.apply(ctx, observationID, identification.Event{
		Kind:     identification.KindWithdraw,
		UserID:   userID,
		TargetID: identificationID,
	})
}

// Evaluate recomputes and stores consensus without applying an event.
func (s *Service) Evaluate(ctx context.Context, observationID string) (consensus.Result, error) {
	var result consensus.Result
	err := s.repo.WithObservationLock(ctx, observationID, func(ctx context.Context) error {
		obs, ids, err := s.load(ctx, observationID)
		if err != nil {
			return err
		}
		result, err = s.recompute(ctx, obs, ids)
		return err
	})
	return result, err
}

func (s *Service) apply(ctx context.Context, observationID string, ev identification.Event) (Change, error) {
	ctx = services.WithObservationID(ctx, observationID)
	ctx = services.WithUserID(ctx, strings.TrimSpace(ev.UserID))
	logger := logging.WithContext(ctx, s.logger)

	var change Change
	err := s.repo.WithObservationLock(ctx, observationID, func(ctx context.Context) error {
		obs, ids, err := s.load(ctx, observationID)
		if err != nil {
			return err
		}
		if ev.Taxon != nil && s.resolver != nil {
			resolved, _ := s.resolver.Resolve(ctx, *ev.Taxon)
			ev.Taxon = &resolved
		}
		ev.ObservationID = observationID

		if ev.Kind == identification.KindAgree {
			agreed, err := s.repo.HasAgreed(ctx, ev.TargetID, ev.UserID)
			if err != nil {
				return err
			}
			if agreed {
				return store.ErrAlreadyAgreed
			}
		}

		out, err := identification.Apply(ids, ev)
		if err != nil {
			return err
		}
		var agreement *store.Agreement
		if ev.Kind == identification.KindAgree {
			agreement = &store.Agreement{IdentificationID: ev.TargetID, UserID: ev.UserID, CreatedAt: time.Now()}
		}
		var update *store.ConsensusUpdate
		if out.Recompute {
			result, err := s.engine.Evaluate(obs.Taxon, out.Identifications)
			if err != nil {
				return err
			}
			update = &store.ConsensusUpdate{ObservationID: obs.ID, Result: result}
		}
		if err := s.repo.ApplyOutcome(ctx, out, agreement, update); err != nil {
			return err
		}
		s.metrics.ObserveEvent(string(ev.Kind))

		change.Identification = out.Created
		if change.Identification == nil && out.Changed != "" {
			if idx := identification.Find(out.Identifications, out.Changed); idx >= 0 {
				changed := out.Identifications[idx]
				change.Identification = &changed
			}
		}
		change.Superseded = out.Superseded
		if update == nil {
			if obs.Consensus != nil {
				change.Result = *obs.Consensus
			}
			return nil
		}
		change.Result = update.Result
		s.consensusStored(ctx, obs, update.Result)
		return nil
	})
	if err != nil {
		logger.Debug("identification event rejected",
			logging.String(logging.FieldEvent, string(ev.Kind)),
			logging.Error(err),
		)
		return Change{}, err
	}
	logger.Info("identification event applied",
		logging.String(logging.FieldEvent, string(ev.Kind)),
		logging.String(logging.FieldGrade, string(change.Result.Grade)),
	)
	return change, nil
}

func (s *Service) load(ctx context.Context, observationID string) (*store.Observation, []identification.Identification, error) {
	obs, err := s.repo.GetObservation(ctx, observationID)
	if err != nil {
		return nil, nil, err
	}
	if obs == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, "observation", "load",
			fmt.Sprintf("observation %q", observationID), nil)
	}
	ids, err := s.repo.ListIdentifications(ctx, observationID)
	if err != nil {
		return nil, nil, err
	}
	return obs, ids, nil
}

func (s *Service) recompute(ctx context.Context, obs *store.Observation, ids []identification.Identification) (consensus.Result, error) {
	result, err := s.engine.Evaluate(obs.Taxon, ids)
	if err != nil {
		return consensus.Result{}, err
	}
	if err := s.repo.SaveConsensus(ctx, obs.ID, result); err != nil {
		return consensus.Result{}, err
	}
	s.consensusStored(ctx, obs, result)
	return result, nil
}

// consensusStored records metrics and drops cached grade counts once a new
// result is persisted.
func (s *Service) consensusStored(ctx context.Context, obs *store.Observation, result consensus.Result) {
	s.metrics.ObserveConsensus(result.Grade.Slug())
	if obs.Grade != result.Grade {
		s.stats.InvalidateAll()
		logging.WithContext(ctx, s.logger).Info("observation grade changed",
			logging.String("from", string(obs.Grade)),
			logging.String("to", string(result.Grade)),
		)
	}
}

// Stats returns how many observations sit in each grade, served from the
// cache while fresh.
func (s *Service) Stats(ctx context.Context) (map[consensus.Grade]int, error) {
	if cached, ok := s.stats.Get(statsKey); ok {
		return maps.Clone(cached), nil
	}
	counts, err := s.repo.GradeCounts(ctx)
	if err != nil {
		return nil, err
	}
	s.stats.Set(statsKey, counts)
	return maps.Clone(counts), nil
}

// InvalidateStats drops cached grade counts, e.g. after an observation is
// created outside the service.
func (s *Service) InvalidateStats() {
	s.stats.InvalidateAll()
}

// Tree resolves synonyms among candidates and groups them for display.
func (s *Service) Tree(ctx context.Context, candidates []taxon.Record) []hierarchy.Node {
	if s.resolver != nil {
		candidates = s.resolver.ResolveAll(ctx, candidates)
	}
	s.metrics.ObserveGroup(len(candidates))
	return hierarchy.Group(candidates)
}
