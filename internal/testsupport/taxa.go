package testsupport

import (
	"strings"

	"taxonid/internal/rank"
	"taxonid/internal/taxon"
)

// Genus builds an accepted genus-level record.
func Genus(name, family string) taxon.Record {
	rec := taxon.Record{ID: "gen-" + slug(name), ScientificName: name, Rank: rank.Genus, Status: taxon.StatusAccepted}
	rec.Names[rank.Genus] = name
	rec.Names[rank.Family] = family
	return rec
}

// Species builds an accepted species-level record. The genus is taken from
// the first word of the binomial.
func Species(binomial, family string) taxon.Record {
	rec := taxon.Record{ID: "sp-" + slug(binomial), ScientificName: binomial, Rank: rank.Species, Status: taxon.StatusAccepted}
	rec.Names[rank.Species] = binomial
	rec.Names[rank.Genus] = strings.Fields(binomial)[0]
	rec.Names[rank.Family] = family
	return rec
}

// Synonym builds a SYNONYM record pointing at accepted.
func Synonym(name, accepted string) taxon.Record {
	return taxon.Record{
		ID:                     "syn-" + slug(name),
		ScientificName:         name,
		Rank:                   rank.Species,
		Status:                 taxon.StatusSynonym,
		AcceptedScientificName: accepted,
	}
}

func slug(value string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", "-"))
}
