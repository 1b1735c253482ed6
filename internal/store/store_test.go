package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taxonid/internal/consensus"
	"taxonid/internal/identification"
	"taxonid/internal/rank"
	"taxonid/internal/services"
	"taxonid/internal/store"
	"taxonid/internal/taxon"
	"taxonid/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	health, err := st.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || health.SchemaVersion != health.ExpectedVersion {
		t.Fatalf("unexpected health: %+v", health)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	_ = reopened.Close()
}

func TestTaxonCatalogSearch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	gallus := testsupport.Species("Gallus gallus", "Phasianidae")
	gallus.CommonName = "Red Junglefowl"
	for _, rec := range []taxon.Record{
		gallus,
		testsupport.Genus("Gallus", "Phasianidae"),
		testsupport.Species("Pavo cristatus", "Phasianidae"),
	} {
		if _, err := st.UpsertTaxon(ctx, rec); err != nil {
			t.Fatalf("UpsertTaxon(%s) failed: %v", rec.ScientificName, err)
		}
	}

	results, err := st.Search(ctx, taxon.Query{Text: "GALLUS"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 || results[0].ScientificName != "Gallus" || results[1].ScientificName != "Gallus gallus" {
		t.Fatalf("unexpected results: %+v", results)
	}

	byRank, err := st.Search(ctx, taxon.Query{Text: "gallus", Rank: rank.Species})
	if err != nil {
		t.Fatalf("Search by rank failed: %v", err)
	}
	if len(byRank) != 1 || byRank[0].Name(rank.Family) != "Phasianidae" {
		t.Fatalf("unexpected rank-filtered results: %+v", byRank)
	}

	byCommon, err := st.Search(ctx, taxon.Query{Text: "junglefowl"})
	if err != nil {
		t.Fatalf("Search by common name failed: %v", err)
	}
	if len(byCommon) != 1 {
		t.Fatalf("expected common-name match, got %+v", byCommon)
	}

	paged, err := st.Search(ctx, taxon.Query{Text: "a", Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("paged Search failed: %v", err)
	}
	if len(paged) != 1 || paged[0].ScientificName != "Pavo cristatus" {
		t.Fatalf("unexpected second page: %+v", paged)
	}

	exact, err := st.LookupByName(ctx, "Gallus gallus")
	if err != nil {
		t.Fatalf("LookupByName failed: %v", err)
	}
	if len(exact) != 1 || exact[0].CommonName != "Red Junglefowl" {
		t.Fatalf("unexpected lookup: %+v", exact)
	}

	gallus.CommonName = "Jungle Fowl"
	if _, err := st.UpsertTaxon(ctx, gallus); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	fetched, err := st.GetTaxon(ctx, gallus.ID)
	if err != nil || fetched == nil || fetched.CommonName != "Jungle Fowl" {
		t.Fatalf("GetTaxon = %+v, %v", fetched, err)
	}
	missing, err := st.GetTaxon(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing taxon, got %+v, %v", missing, err)
	}
}

func TestUpsertTaxonGeneratesID(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec, err := st.UpsertTaxon(context.Background(), taxon.Record{ScientificName: "  Anas   platyrhynchos ", Rank: rank.Species})
	if err != nil {
		t.Fatalf("UpsertTaxon failed: %v", err)
	}
	if rec.ID == "" || rec.ScientificName != "Anas platyrhynchos" || rec.Status != taxon.StatusAccepted {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := st.UpsertTaxon(context.Background(), taxon.Record{}); err == nil {
		t.Fatal("expected error for nameless taxon")
	}
}

func TestIdentificationLifecyclePersistence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	obs := testsupport.NewObservation(t, st, taxon.Record{})
	if obs.Grade != consensus.GradeNeedsID {
		t.Fatalf("new observation grade = %q", obs.Grade)
	}

	gallus := testsupport.Species("Gallus gallus", "Phasianidae")
	out, err := identification.Apply(nil, identification.Event{
		Kind:          identification.KindPropose,
		ObservationID: obs.ID,
		UserID:        "alice",
		Taxon:         &gallus,
	})
	if err != nil {
		t.Fatalf("Apply propose: %v", err)
	}
	if err := st.ApplyOutcome(ctx, out, nil, nil); err != nil {
		t.Fatalf("ApplyOutcome propose: %v", err)
	}

	ids, err := st.ListIdentifications(ctx, obs.ID)
	if err != nil {
		t.Fatalf("ListIdentifications: %v", err)
	}
	if len(ids) != 1 || ids[0].Taxon.ScientificName != "Gallus gallus" || ids[0].Sequence != 1 {
		t.Fatalf("unexpected identifications: %+v", ids)
	}

	agreed, err := identification.Apply(ids, identification.Event{Kind: identification.KindAgree, UserID: "bob", TargetID: ids[0].ID})
	if err != nil {
		t.Fatalf("Apply agree: %v", err)
	}
	agreement := &store.Agreement{IdentificationID: ids[0].ID, UserID: "bob", CreatedAt: time.Now()}
	if err := st.ApplyOutcome(ctx, agreed, agreement, nil); err != nil {
		t.Fatalf("ApplyOutcome agree: %v", err)
	}
	if err := st.ApplyOutcome(ctx, agreed, agreement, nil); !errors.Is(err, store.ErrAlreadyAgreed) {
		t.Fatalf("expected ErrAlreadyAgreed, got %v", err)
	}
	if !errors.Is(store.ErrAlreadyAgreed, services.ErrConflict) {
		t.Fatal("ErrAlreadyAgreed should be a conflict")
	}
	if ok, err := st.HasAgreed(ctx, ids[0].ID, "bob"); err != nil || !ok {
		t.Fatalf("HasAgreed = %v, %v", ok, err)
	}

	ids, err = st.ListIdentifications(ctx, obs.ID)
	if err != nil {
		t.Fatalf("ListIdentifications: %v", err)
	}
	if ids[0].AgreementCount != 1 {
		t.Fatalf("agreement count = %d, want 1", ids[0].AgreementCount)
	}

	result, err := consensus.NewEngine().Evaluate(obs.Taxon, ids)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if err := st.SaveConsensus(ctx, obs.ID, result); err != nil {
		t.Fatalf("SaveConsensus: %v", err)
	}
	saved, err := st.GetObservation(ctx, obs.ID)
	if err != nil || saved == nil {
		t.Fatalf("GetObservation = %+v, %v", saved, err)
	}
	if saved.Grade != consensus.GradeResearch || saved.Taxon.ScientificName != "Gallus gallus" {
		t.Fatalf("unexpected saved observation: %+v", saved)
	}
	if saved.Consensus == nil || !saved.Consensus.QuorumReached {
		t.Fatalf("expected stored consensus, got %+v", saved.Consensus)
	}

	counts, err := st.GradeCounts(ctx)
	if err != nil {
		t.Fatalf("GradeCounts: %v", err)
	}
	if counts[consensus.GradeResearch] != 1 {
		t.Fatalf("unexpected grade counts: %v", counts)
	}

	research, err := st.ListObservations(ctx, consensus.GradeResearch, 10)
	if err != nil || len(research) != 1 {
		t.Fatalf("ListObservations = %d, %v", len(research), err)
	}
	missing, err := st.GetObservation(ctx, "missing")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing observation, got %+v, %v", missing, err)
	}
}

func TestApplyOutcomeWritesConsensusInSameTransaction(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	obs := testsupport.NewObservation(t, st, taxon.Record{})
	engine := consensus.NewEngine()

	gallus := testsupport.Species("Gallus gallus", "Phasianidae")
	first, err := identification.Apply(nil, identification.Event{
		Kind: identification.KindPropose, ObservationID: obs.ID, UserID: "alice", Taxon: &gallus,
	})
	if err != nil {
		t.Fatalf("Apply propose: %v", err)
	}
	result, err := engine.Evaluate(obs.Taxon, first.Identifications)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if err := st.ApplyOutcome(ctx, first, nil, &store.ConsensusUpdate{ObservationID: obs.ID, Result: result}); err != nil {
		t.Fatalf("ApplyOutcome: %v", err)
	}
	saved, err := st.GetObservation(ctx, obs.ID)
	if err != nil || saved == nil {
		t.Fatalf("GetObservation = %+v, %v", saved, err)
	}
	if saved.Consensus == nil || saved.Taxon.ScientificName != "Gallus gallus" {
		t.Fatalf("expected consensus stored with the event, got %+v", saved)
	}

	varius := testsupport.Species("Gallus varius", "Phasianidae")
	second, err := identification.Apply(first.Identifications, identification.Event{
		Kind: identification.KindPropose, ObservationID: obs.ID, UserID: "bob", Taxon: &varius,
	})
	if err != nil {
		t.Fatalf("Apply second propose: %v", err)
	}
	bad := &store.ConsensusUpdate{ObservationID: "missing", Result: result}
	if err := st.ApplyOutcome(ctx, second, nil, bad); err == nil {
		t.Fatal("expected error when the consensus row is missing")
	}
	ids, err := st.ListIdentifications(ctx, obs.ID)
	if err != nil {
		t.Fatalf("ListIdentifications: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected the failed event to be rolled back, got %d identifications", len(ids))
	}
}

func TestSaveConsensusUnknownObservation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := st.SaveConsensus(context.Background(), "missing", consensus.Result{Grade: consensus.GradeNeedsID}); err == nil {
		t.Fatal("expected error for unknown observation")
	}
}

func TestWithObservationLockSerializes(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := st.WithObservationLock(ctx, "obs/1", func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithObservationLock: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("lock allowed %d concurrent holders", maxSeen)
	}
}

func TestWithObservationLockTimesOut(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- st.WithObservationLock(context.Background(), "busy", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := st.WithObservationLock(ctx, "busy", func(context.Context) error { return nil })
	close(release)
	if !errors.Is(err, store.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("holder returned %v", err)
	}
}
