package observation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taxonid/internal/consensus"
	"taxonid/internal/identification"
	"taxonid/internal/metrics"
	"taxonid/internal/observation"
	"taxonid/internal/services"
	"taxonid/internal/statscache"
	"taxonid/internal/store"
	"taxonid/internal/synonym"
	"taxonid/internal/taxon"
	"taxonid/internal/testsupport"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

var _ statscache.Clock = (*fakeClock)(nil)

func newService(t *testing.T, opts ...observation.Option) (*observation.Service, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return observation.NewService(st, opts...), st
}

func TestProposeAgreeReachesResearchGrade(t *testing.T) {
	svc, st := newService(t, observation.WithMetrics(metrics.New()))
	ctx := context.Background()
	obs := testsupport.NewObservation(t, st, taxon.Record{})

	change, err := svc.Propose(ctx, obs.ID, "alice", testsupport.Species("Gallus gallus", "Phasianidae"), "")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if change.Result.Grade != consensus.GradeNeedsID || change.Result.ConfidencePercentage != nil {
		t.Fatalf("unexpected result after proposal: %+v", change.Result)
	}

	agreed, err := svc.Agree(ctx, obs.ID, "bob", change.Identification.ID)
	if err != nil {
		t.Fatalf("Agree: %v", err)
	}
	if agreed.Result.Grade != consensus.GradeResearch || !agreed.Result.QuorumReached {
		t.Fatalf("unexpected result after agreement: %+v", agreed.Result)
	}
	if agreed.Identification == nil || agreed.Identification.AgreementCount != 1 {
		t.Fatalf("unexpected changed identification: %+v", agreed.Identification)
	}

	if _, err := svc.Agree(ctx, obs.ID, "bob", change.Identification.ID); !errors.Is(err, store.ErrAlreadyAgreed) {
		t.Fatalf("expected ErrAlreadyAgreed, got %v", err)
	}
	if _, err := svc.Agree(ctx, obs.ID, "alice", change.Identification.ID); !errors.Is(err, identification.ErrOwnIdentification) {
		t.Fatalf("expected ErrOwnIdentification, got %v", err)
	}

	saved, err := st.GetObservation(ctx, obs.ID)
	if err != nil {
		t.Fatalf("GetObservation: %v", err)
	}
	if saved.Grade != consensus.GradeResearch || saved.Taxon.ScientificName != "Gallus gallus" {
		t.Fatalf("unexpected stored observation: %+v", saved)
	}
}

func TestDisagreeAndWithdrawRevertToMostAgreed(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	obs := testsupport.NewObservation(t, st, taxon.Record{})

	first, err := svc.Propose(ctx, obs.ID, "alice", testsupport.Species("Gallus gallus", "Phasianidae"), "")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if _, err := svc.Agree(ctx, obs.ID, "bob", first.Identification.ID); err != nil {
		t.Fatalf("Agree: %v", err)
	}

	draft := identification.NewDraft(*first.Identification, "carol")
	draft.Taxon = ptr(testsupport.Species("Gallus varius", "Phasianidae"))
	draft.Comment = "green plumage"
	disagreed, err := svc.Disagree(ctx, obs.ID, draft)
	if err != nil {
		t.Fatalf("Disagree: %v", err)
	}
	if disagreed.Identification.DisagreesWith != first.Identification.ID {
		t.Fatalf("unexpected disagreement: %+v", disagreed.Identification)
	}
	if disagreed.Result.Winner.ID != first.Identification.ID {
		t.Fatalf("winner = %s, want original", disagreed.Result.Winner.ID)
	}

	for _, user := range []string{"dave", "erin"} {
		if _, err := svc.Agree(ctx, obs.ID, user, disagreed.Identification.ID); err != nil {
			t.Fatalf("Agree(%s): %v", user, err)
		}
	}
	withdrawn, err := svc.Withdraw(ctx, obs.ID, "alice", first.Identification.ID)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if withdrawn.Result.Winner.ID != disagreed.Identification.ID {
		t.Fatalf("winner = %s, want disagreement", withdrawn.Result.Winner.ID)
	}
	if withdrawn.Result.Grade != consensus.GradeResearch {
		t.Fatalf("grade = %s, want research grade", withdrawn.Result.Grade)
	}

	ids, err := st.ListIdentifications(ctx, obs.ID)
	if err != nil {
		t.Fatalf("ListIdentifications: %v", err)
	}
	if len(ids) != 2 || !ids[0].Withdrawn {
		t.Fatalf("withdrawn identification should be retained: %+v", ids)
	}
}

func TestCancelledDraftIsRejected(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	obs := testsupport.NewObservation(t, st, taxon.Record{})
	first, err := svc.Propose(ctx, obs.ID, "alice", testsupport.Species("Gallus gallus", "Phasianidae"), "")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	draft := identification.NewDraft(*first.Identification, "bob")
	draft.Cancel()
	if _, err := svc.Disagree(ctx, obs.ID, draft); !errors.Is(err, identification.ErrDraftCancelled) {
		t.Fatalf("expected ErrDraftCancelled, got %v", err)
	}
	ids, err := st.ListIdentifications(ctx, obs.ID)
	if err != nil || len(ids) != 1 {
		t.Fatalf("cancel must not store anything: %d, %v", len(ids), err)
	}
}

func TestProposeResolvesSynonym(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	accepted := testsupport.Species("Gallus gallus", "Phasianidae")
	if _, err := st.UpsertTaxon(ctx, accepted); err != nil {
		t.Fatalf("UpsertTaxon: %v", err)
	}
	rec := metrics.New()
	svc := observation.NewService(st,
		observation.WithResolver(synonym.NewResolver(st, synonym.WithObserver(rec))),
		observation.WithMetrics(rec),
	)
	obs := testsupport.NewObservation(t, st, taxon.Record{})

	change, err := svc.Propose(ctx, obs.ID, "alice", testsupport.Synonym("Gallus bankiva", "Gallus gallus"), "")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if got := change.Identification.Taxon.ScientificName; got != "Gallus gallus" {
		t.Fatalf("stored taxon = %q, want accepted name", got)
	}
}

func TestUnknownObservation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Propose(context.Background(), "missing", "alice", testsupport.Species("Gallus gallus", "Phasianidae"), "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatsAreCachedUntilGradeChanges(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc, st := newService(t, observation.WithStatsCache(time.Minute, clock))
	ctx := context.Background()

	obs := testsupport.NewObservation(t, st, taxon.Record{})
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[consensus.GradeNeedsID] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	testsupport.NewObservation(t, st, taxon.Record{})
	cached, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if cached[consensus.GradeNeedsID] != 1 {
		t.Fatalf("expected cached count 1, got %v", cached)
	}

	clock.Advance(2 * time.Minute)
	fresh, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if fresh[consensus.GradeNeedsID] != 2 {
		t.Fatalf("expected refreshed count 2, got %v", fresh)
	}

	first, err := svc.Propose(ctx, obs.ID, "alice", testsupport.Genus("Gallus", "Phasianidae"), "")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if _, err := svc.Agree(ctx, obs.ID, "bob", first.Identification.ID); err != nil {
		t.Fatalf("Agree: %v", err)
	}
	afterGrade, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if afterGrade[consensus.GradeConfirmed] != 1 {
		t.Fatalf("grade change should invalidate cache, got %v", afterGrade)
	}
}

func TestTreeGroupsResolvedCandidates(t *testing.T) {
	svc, _ := newService(t)
	nodes := svc.Tree(context.Background(), []taxon.Record{
		testsupport.Species("Gallus varius", "Phasianidae"),
		testsupport.Genus("Gallus", "Phasianidae"),
		testsupport.Species("Gallus gallus", "Phasianidae"),
	})
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[0].Record.ScientificName != "Gallus" || !nodes[0].IsParent || nodes[0].Depth != 0 {
		t.Fatalf("unexpected root: %+v", nodes[0])
	}
	if nodes[1].Record.ScientificName != "Gallus gallus" || nodes[1].Depth != 1 || !nodes[1].IsChild {
		t.Fatalf("unexpected first child: %+v", nodes[1])
	}
}

func ptr[T any](v T) *T { return &v }

func TestStatsResultIsACopy(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc, st := newService(t, observation.WithStatsCache(time.Minute, clock))
	ctx := context.Background()
	testsupport.NewObservation(t, st, taxon.Record{})

	for _, round := range []string{"fresh", "cached"} {
		stats, err := svc.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats (%s): %v", round, err)
		}
		stats[consensus.GradeNeedsID] = 99
		delete(stats, consensus.GradeResearch)
	}
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[consensus.GradeNeedsID] != 1 {
		t.Fatalf("caller edits leaked into the cache: %v", stats)
	}
}
