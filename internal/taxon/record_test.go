package taxon_test

import (
	"encoding/json"
	"errors"
	"testing"

	"taxonid/internal/rank"
	"taxonid/internal/taxon"
)

func TestUnmarshalFlatSearchShape(t *testing.T) {
	payload := `{
		"id": 1234,
		"scientific_name": "Gallus gallus",
		"rank": "species",
		"taxonomic_status": "accepted",
		"genus": "Gallus",
		"species": "Gallus gallus",
		"family": null,
		"cname_species": "red junglefowl",
		"kingdom_id": 1,
		"unknown": "ignored"
	}`
	var rec taxon.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ID != "1234" {
		t.Fatalf("expected numeric id to decode, got %q", rec.ID)
	}
	if rec.Rank != rank.Species || rec.Status != taxon.StatusAccepted {
		t.Fatalf("unexpected rank/status %s/%s", rec.Rank, rec.Status)
	}
	if rec.Name(rank.Genus) != "Gallus" || rec.Name(rank.Family) != "" {
		t.Fatalf("unexpected names %+v", rec.Names)
	}
	if rec.CommonNameAt(rank.Species) != "red junglefowl" {
		t.Fatalf("expected cname_species, got %q", rec.CommonNameAt(rank.Species))
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back taxon.Record
	if err := json.Unmarshal(encoded, &back); err != nil {
		t.Fatalf("unmarshal encoded: %v", err)
	}
	if back != rec {
		t.Fatalf("record changed across encoding:\n%+v\n%+v", rec, back)
	}
}

func TestValidateSynonymNeedsAcceptedName(t *testing.T) {
	rec := taxon.Record{ScientificName: "Gallus domesticus", Status: taxon.StatusSynonym}
	if err := rec.Validate(); !errors.Is(err, taxon.ErrSynonymWithoutAccepted) {
		t.Fatalf("expected ErrSynonymWithoutAccepted, got %v", err)
	}
	rec.AcceptedScientificName = "Gallus gallus"
	if err := rec.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGenusNameInference(t *testing.T) {
	tests := []struct {
		name string
		rec  taxon.Record
		want string
	}{
		{"genus field", taxon.Record{Rank: rank.Species, Names: taxon.Names{rank.Genus: "Passer"}}, "Passer"},
		{"genus record", taxon.Record{Rank: rank.Genus, ScientificName: "Passer"}, "Passer"},
		{"species prefix", taxon.Record{Rank: rank.Species, ScientificName: "Passer montanus"}, "Passer"},
		{"family has none", taxon.Record{Rank: rank.Family, ScientificName: "Passeridae"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.GenusName(); got != tc.want {
				t.Fatalf("GenusName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeCollapsesWhitespaceAndComposes(t *testing.T) {
	rec := taxon.Record{ScientificName: "  Gallus \t gallus ", CommonName: "Ayam hutan mérah"}
	got := rec.Normalize()
	if got.ScientificName != "Gallus gallus" {
		t.Fatalf("unexpected scientific name %q", got.ScientificName)
	}
	if got.CommonName != "Ayam hutan mérah" {
		t.Fatalf("expected NFC composed common name, got %q", got.CommonName)
	}
	if got.Status != taxon.StatusAccepted {
		t.Fatalf("expected default status, got %q", got.Status)
	}
}

func TestLabelTitleCasesCommonName(t *testing.T) {
	rec := taxon.Record{ScientificName: "Passer montanus", CommonName: "burung gereja"}
	if got := rec.Label(); got != "Passer montanus (Burung Gereja)" {
		t.Fatalf("unexpected label %q", got)
	}
}
