package taxon

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"taxonid/internal/rank"
)

// Names holds one value per rank, indexed by rank.Rank.
type Names [rank.Len]string

// ErrSynonymWithoutAccepted flags a SYNONYM record that cannot be resolved.
var ErrSynonymWithoutAccepted = errors.New("synonym record has no accepted scientific name")

// Record is a sparse snapshot of a taxon and whatever lineage came with it.
type Record struct {
	ID                     string
	ScientificName         string
	CommonName             string
	Rank                   rank.Rank
	Status                 Status
	AcceptedScientificName string
	Names                  Names
	CommonNames            Names
}

// Name returns the value stored at rank r, or "".
func (r Record) Name(at rank.Rank) string {
	if int(at) >= len(r.Names) {
		return ""
	}
	return r.Names[at]
}

// CommonNameAt returns the cname_<rank> value stored at rank r, or "".
func (r Record) CommonNameAt(at rank.Rank) string {
	if int(at) >= len(r.CommonNames) {
		return ""
	}
	return r.CommonNames[at]
}

// With returns a copy of r with the name at rank r set.
func (r Record) With(at rank.Rank, name string) Record {
	if int(at) < len(r.Names) {
		r.Names[at] = name
	}
	return r
}

// IsSynonym reports whether the record is flagged as a synonym.
func (r Record) IsSynonym() bool {
	return r.Status == StatusSynonym
}

// EffectiveRank is the record's own rank, or the finest populated rank when
// the backend omitted it.
func (r Record) EffectiveRank() rank.Rank {
	if r.Rank.Known() {
		return r.Rank
	}
	if level, ok := BestLevel(r); ok {
		return level.Rank
	}
	return rank.Unranked
}

// OwnName is the name the record carries at its own rank, falling back to the
// scientific name.
func (r Record) OwnName() string {
	if name := r.Name(r.EffectiveRank()); name != "" {
		return name
	}
	return r.ScientificName
}

// GenusName returns the genus field or, for records at species level or finer,
// the genus prefix of the species or scientific name.
func (r Record) GenusName() string {
	if genus := r.Name(rank.Genus); genus != "" {
		return genus
	}
	effective := r.EffectiveRank()
	if effective == rank.Genus {
		return r.OwnName()
	}
	if !effective.Known() || !effective.AtOrBelow(rank.Species) {
		return ""
	}
	source := r.Name(rank.Species)
	if source == "" {
		source = r.ScientificName
	}
	if fields := strings.Fields(source); len(fields) > 1 {
		return fields[0]
	}
	return ""
}

// Validate reports data inconsistencies that make the record unusable as a
// synonym. It never rejects accepted records.
func (r Record) Validate() error {
	if r.IsSynonym() && strings.TrimSpace(r.AcceptedScientificName) == "" {
		return fmt.Errorf("%s: %w", r.ScientificName, ErrSynonymWithoutAccepted)
	}
	return nil
}

// Normalize returns a copy with every name trimmed, whitespace collapsed and
// NFC-normalized so byte comparisons match what users typed.
func (r Record) Normalize() Record {
	r.ID = strings.TrimSpace(r.ID)
	r.ScientificName = normalizeName(r.ScientificName)
	r.CommonName = normalizeName(r.CommonName)
	r.AcceptedScientificName = normalizeName(r.AcceptedScientificName)
	for i := range r.Names {
		r.Names[i] = normalizeName(r.Names[i])
		r.CommonNames[i] = normalizeName(r.CommonNames[i])
	}
	if r.Status == "" {
		r.Status = StatusAccepted
	}
	return r
}

// Label is the display label: scientific name, then the title-cased common
// name in parentheses when one is known.
func (r Record) Label() string {
	name := r.ScientificName
	if name == "" {
		name = r.OwnName()
	}
	common := r.CommonName
	if common == "" {
		common = r.CommonNameAt(r.EffectiveRank())
	}
	if common == "" {
		return name
	}
	common = cases.Title(language.Und).String(common)
	if name == "" {
		return common
	}
	return name + " (" + common + ")"
}

func normalizeName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return norm.NFC.String(strings.Join(strings.Fields(value), " "))
}
