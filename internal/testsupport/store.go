package testsupport

import (
	"context"
	"testing"

	"taxonid/internal/config"
	"taxonid/internal/store"
	"taxonid/internal/taxon"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewObservation creates an observation for tests using the provided store.
func NewObservation(t testing.TB, st *store.Store, rec taxon.Record) *store.Observation {
	t.Helper()

	obs, err := st.CreateObservation(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.CreateObservation: %v", err)
	}
	return obs
}
