package hierarchy

import (
	"taxonid/internal/rank"
	"taxonid/internal/taxon"
)

// IsParentOf reports whether p is an ancestor of c according to the lineage
// fields both records carry.
func IsParentOf(p, c taxon.Record) bool {
	pr, cr := p.EffectiveRank(), c.EffectiveRank()
	if !pr.Known() || pr.Order() <= cr.Order() {
		return false
	}
	if lineageConfirms(p, c, pr) {
		return true
	}
	return specialRule(p, c, pr, cr)
}

// lineageConfirms walks the canonical fields down to p's rank. Every field p
// populates must match on c, and c must carry p's own name at p's rank.
func lineageConfirms(p, c taxon.Record, pr rank.Rank) bool {
	for _, field := range rank.Canonical {
		if field.Order() <= pr.Order() {
			break
		}
		pv := p.Name(field)
		if pv == "" {
			continue
		}
		if cv := c.Name(field); cv != pv {
			return false
		}
	}
	own := p.OwnName()
	return own != "" && c.Name(pr) == own
}

// specialRule accepts species and genus parents when the child lacks the
// coarser lineage fields but shares the genus (and species) names.
func specialRule(p, c taxon.Record, pr, cr rank.Rank) bool {
	switch pr {
	case rank.Species:
		switch cr {
		case rank.Subspecies, rank.Variety, rank.Form:
		default:
			return false
		}
		genus := p.GenusName()
		species := p.OwnName()
		return genus != "" && species != "" &&
			c.GenusName() == genus && c.Name(rank.Species) == species
	case rank.Genus:
		switch cr {
		case rank.Species, rank.Subspecies, rank.Variety, rank.Form:
		default:
			return false
		}
		genus := p.OwnName()
		return genus != "" && c.GenusName() == genus
	}
	return false
}

// SameLineage reports whether a and b name the same taxon or one is an
// ancestor of the other.
func SameLineage(a, b taxon.Record) bool {
	if a.ScientificName != "" && a.ScientificName == b.ScientificName {
		return true
	}
	return IsParentOf(a, b) || IsParentOf(b, a)
}
