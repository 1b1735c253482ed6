package taxon_test

import (
	"testing"

	"taxonid/internal/rank"
	"taxonid/internal/taxon"
)

func TestBestLevelPicksMostSpecificRank(t *testing.T) {
	rec := taxon.Record{
		ID: "42",
		Names: taxon.Names{
			rank.Family:  "Phasianidae",
			rank.Genus:   "Gallus",
			rank.Species: "Gallus gallus",
		},
	}
	level, ok := taxon.BestLevel(rec)
	if !ok {
		t.Fatal("expected a level")
	}
	if level.Rank != rank.Species || level.Name != "Gallus gallus" || level.ID != "42" {
		t.Fatalf("unexpected level %+v", level)
	}
}

func TestBestLevelDivisionStandsInForPhylum(t *testing.T) {
	rec := taxon.Record{Names: taxon.Names{rank.Division: "Mollusca"}}
	level, ok := taxon.BestLevel(rec)
	if !ok {
		t.Fatal("expected a level")
	}
	if level.Rank != rank.Phylum || level.Name != "Mollusca" {
		t.Fatalf("expected phylum Mollusca, got %+v", level)
	}
}

func TestBestLevelKeepsDivisionWhenPhylumPresent(t *testing.T) {
	rec := taxon.Record{Names: taxon.Names{rank.Division: "Bryophyta", rank.Phylum: "Streptophyta"}}
	level, _ := taxon.BestLevel(rec)
	if level.Rank != rank.Division {
		t.Fatalf("expected division level, got %s", level.Rank)
	}
}

func TestBestLevelFallsBackToScientificName(t *testing.T) {
	rec := taxon.Record{ScientificName: "Incertae sedis", Rank: rank.Genus}
	level, ok := taxon.BestLevel(rec)
	if !ok || level.Name != "Incertae sedis" || level.Rank != rank.Genus {
		t.Fatalf("unexpected fallback %+v ok=%v", level, ok)
	}
}

func TestBestLevelUnidentified(t *testing.T) {
	if _, ok := taxon.BestLevel(taxon.Record{}); ok {
		t.Fatal("expected empty record to be unidentified")
	}
}
