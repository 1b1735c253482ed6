package taxon

import "taxonid/internal/rank"

// Level is the most specific populated rank of a record.
type Level struct {
	Rank rank.Rank `json:"level"`
	Name string    `json:"name"`
	ID   string    `json:"id,omitempty"`
}

// BestLevel walks the ranks from subform to domain and returns the first
// populated one. A populated legacy division with no phylum is reported at
// phylum level. Records with no rank field fall back to the scientific name
// at the record's own rank. ok is false when the record is unidentified.
func BestLevel(r Record) (Level, bool) {
	for _, at := range rank.All() {
		name := r.Name(at)
		if name == "" {
			continue
		}
		if at == rank.Division && r.Name(rank.Phylum) == "" {
			return Level{Rank: rank.Phylum, Name: name, ID: r.ID}, true
		}
		return Level{Rank: at, Name: name, ID: r.ID}, true
	}
	if r.ScientificName != "" {
		return Level{Rank: r.Rank, Name: r.ScientificName, ID: r.ID}, true
	}
	return Level{}, false
}
