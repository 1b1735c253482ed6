package consensus

import (
	"sort"

	"taxonid/internal/identification"
)

// CurrentWinner returns the active identification with the highest agreement
// count, ties going to the earliest proposal. It returns nil when every
// identification is withdrawn.
func CurrentWinner(ids []identification.Identification) *identification.Identification {
	ranked := rankActive(ids)
	if len(ranked) == 0 {
		return nil
	}
	winner := ranked[0]
	return &winner
}

// rankActive returns active identifications ordered by agreement count
// descending, then proposal sequence, then input position.
func rankActive(ids []identification.Identification) []identification.Identification {
	type entry struct {
		id  identification.Identification
		pos int
	}
	entries := make([]entry, 0, len(ids))
	for i, id := range ids {
		if id.Active() {
			entries = append(entries, entry{id: id, pos: i})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.id.AgreementCount != b.id.AgreementCount {
			return a.id.AgreementCount > b.id.AgreementCount
		}
		if a.id.Sequence != b.id.Sequence {
			return a.id.Sequence < b.id.Sequence
		}
		return a.pos < b.pos
	})
	out := make([]identification.Identification, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}
