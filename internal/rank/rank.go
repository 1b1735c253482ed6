package rank

import (
	"fmt"
	"strings"
)

// Rank is one level of the taxonomic hierarchy. The zero value is Unranked.
type Rank uint8

const (
	Unranked Rank = iota
	Subform
	Form
	Variety
	Subspecies
	Species
	Subgenus
	Genus
	Subtribe
	Tribe
	Supertribe
	Subfamily
	Family
	Superfamily
	Infraorder
	Suborder
	Order
	Superorder
	Infraclass
	Subclass
	Class
	Superclass
	Subdivision
	Division
	Superdivision
	Subphylum
	Phylum
	Superphylum
	Subkingdom
	Kingdom
	Superkingdom
	Domain

	// Len sizes arrays indexed by Rank.
	Len = int(Domain) + 1
)

// unrankedOrder sorts Unranked above Domain.
const unrankedOrder = int(Domain)

var names = [Len]string{
	Unranked:      "unranked",
	Subform:       "subform",
	Form:          "form",
	Variety:       "variety",
	Subspecies:    "subspecies",
	Species:       "species",
	Subgenus:      "subgenus",
	Genus:         "genus",
	Subtribe:      "subtribe",
	Tribe:         "tribe",
	Supertribe:    "supertribe",
	Subfamily:     "subfamily",
	Family:        "family",
	Superfamily:   "superfamily",
	Infraorder:    "infraorder",
	Suborder:      "suborder",
	Order:         "order",
	Superorder:    "superorder",
	Infraclass:    "infraclass",
	Subclass:      "subclass",
	Class:         "class",
	Superclass:    "superclass",
	Subdivision:   "subdivision",
	Division:      "division",
	Superdivision: "superdivision",
	Subphylum:     "subphylum",
	Phylum:        "phylum",
	Superphylum:   "superphylum",
	Subkingdom:    "subkingdom",
	Kingdom:       "kingdom",
	Superkingdom:  "superkingdom",
	Domain:        "domain",
}

var byName = func() map[string]Rank {
	m := make(map[string]Rank, Len)
	for i := Subform; i <= Domain; i++ {
		m[names[i]] = i
	}
	return m
}()

// Canonical lists the seven lineage fields used to prove ancestry, coarsest first.
var Canonical = [...]Rank{Kingdom, Phylum, Class, Order, Family, Genus, Species}

// All returns every recognised rank from finest (subform) to coarsest (domain).
func All() []Rank {
	out := make([]Rank, 0, Len-1)
	for r := Subform; r <= Domain; r++ {
		out = append(out, r)
	}
	return out
}

// Parse maps a rank name to its Rank. Matching ignores case and surrounding space.
func Parse(value string) (Rank, bool) {
	r, ok := byName[strings.ToLower(strings.TrimSpace(value))]
	return r, ok
}

// FromString is Parse without the ok flag; unknown values yield Unranked.
func FromString(value string) Rank {
	r, _ := Parse(value)
	return r
}

// Order returns the rank's position in the total order. Finer ranks are lower.
func (r Rank) Order() int {
	if r == Unranked || r > Domain {
		return unrankedOrder
	}
	return int(r) - 1
}

// Known reports whether r is one of the recognised ranks.
func (r Rank) Known() bool {
	return r >= Subform && r <= Domain
}

// IsCanonical reports whether r is one of the seven lineage fields.
func (r Rank) IsCanonical() bool {
	for _, c := range Canonical {
		if c == r {
			return true
		}
	}
	return false
}

// CoarserThan reports whether r sits strictly above other in the hierarchy.
func (r Rank) CoarserThan(other Rank) bool {
	return r.Order() > other.Order()
}

// AtOrBelow reports whether r is other or any finer rank.
func (r Rank) AtOrBelow(other Rank) bool {
	return r.Order() <= other.Order()
}

// IsAncestorRank reports whether a is coarser (more ancestral) than b.
func IsAncestorRank(a, b Rank) bool {
	return a.Order() > b.Order()
}

func (r Rank) String() string {
	if r > Domain {
		return names[Unranked]
	}
	return names[r]
}

// MarshalText encodes the rank as its lowercase name.
func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rank name. Unknown names decode to Unranked.
func (r *Rank) UnmarshalText(text []byte) error {
	if r == nil {
		return fmt.Errorf("rank: UnmarshalText on nil pointer")
	}
	*r = FromString(string(text))
	return nil
}
