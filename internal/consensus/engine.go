package consensus

import (
	"fmt"
	"log/slog"
	"math"

	"taxonid/internal/hierarchy"
	"taxonid/internal/identification"
	"taxonid/internal/logging"
	"taxonid/internal/rank"
	"taxonid/internal/services"
	"taxonid/internal/taxon"
)

// Result is the derived consensus state of one observation.
type Result struct {
	Winner               *identification.Identification `json:"winner,omitempty"`
	Grade                Grade                          `json:"grade"`
	ConfidencePercentage *int                           `json:"confidence_percentage,omitempty"`
	ConfidenceTaxonName  string                         `json:"confidence_taxon_name,omitempty"`
	QuorumReached        bool                           `json:"quorum_reached"`
	TotalParticipants    int                            `json:"total_participants"`
	AgreementsForWinner  int                            `json:"agreements_for_winner"`
	// Label is the display label for the observation's current taxon.
	Label string `json:"label,omitempty"`
}

// Identified reports whether any active identification exists.
func (r Result) Identified() bool {
	return r.Winner != nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes decision logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine evaluates identification snapshots. It holds no per-observation
// state and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// NewEngine constructs an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.logger = logging.NewComponentLogger(e.logger, "consensus")
	return e
}

// Evaluate computes the consensus for one observation. observed carries the
// observation's own denormalized taxon fields and is only used for the label.
// An identification without a taxon is a caller bug and returns an error
// wrapping services.ErrContract.
func (e *Engine) Evaluate(observed taxon.Record, ids []identification.Identification) (Result, error) {
	for _, id := range ids {
		if id.Taxon == nil {
			return Result{}, services.Wrap(services.ErrContract, "consensus", "evaluate",
				fmt.Sprintf("identification %q has no taxon", id.ID), nil)
		}
	}

	active := identification.Active(ids)
	if len(active) == 0 {
		result := Result{Grade: GradeNeedsID, Label: observedLabel(observed)}
		e.logDecision(result, "no active identifications")
		return result, nil
	}

	winner := CurrentWinner(active)
	winnerKey := key(*winner.Taxon)
	participants, agreements := support(active, winnerKey)
	quorum := Quorum(agreements, participants)
	distinct := distinctNames(active)
	conflict := (!quorum && distinct >= 2) || crossTaxa(active)

	result := Result{
		Winner:              winner,
		Grade:               GradeFor(winner.Taxon.EffectiveRank(), quorum, conflict),
		QuorumReached:       quorum,
		TotalParticipants:   participants,
		AgreementsForWinner: agreements,
		ConfidenceTaxonName: winnerKey,
	}

	var reason string
	if len(active) > 1 {
		pct, title, why := confidence(active, *winner, participants, agreements)
		result.ConfidencePercentage = &pct
		result.ConfidenceTaxonName = title
		reason = why
	} else {
		reason = "single identification"
	}

	if distinct == 1 && key(observed) == winnerKey {
		if label := observedLabel(observed); label != "" {
			result.Label = label
		}
	}
	if result.Label == "" {
		result.Label = winner.Taxon.Label()
	}
	e.logDecision(result, reason)
	return result, nil
}

func (e *Engine) logDecision(result Result, reason string) {
	attrs := logging.DecisionAttrs("consensus_grade", result.Grade.Slug(), reason)
	attrs = append(attrs,
		logging.Bool("quorum_reached", result.QuorumReached),
		logging.Int("participants", result.TotalParticipants),
		logging.Int("agreements", result.AgreementsForWinner),
	)
	attrs = append(attrs, logging.Confidence(result.ConfidencePercentage))
	if result.Winner != nil {
		attrs = append(attrs, logging.String("winner_id", result.Winner.ID))
	}
	e.logger.Debug("consensus evaluated", logging.Args(attrs...)...)
}

// confidence applies the genus-consensus and species-degradation rules
// before falling back to the plain share of support. Degradation only sets
// aside later coarser proposals that are ancestors of the winner; a coarser
// proposal from another lineage still counts against it.
func confidence(active []identification.Identification, winner identification.Identification, participants, agreements int) (int, string, string) {
	if genus, ok := sharedGenus(active); ok {
		return 100, genus, "genus consensus"
	}

	winnerRank := winner.Taxon.EffectiveRank()
	if winnerRank.Known() && winnerRank.AtOrBelow(rank.Species) {
		base := make([]identification.Identification, 0, len(active))
		later := 0
		for _, id := range active {
			r := id.Taxon.EffectiveRank()
			if id.Sequence > winner.Sequence && r.CoarserThan(rank.Species) &&
				hierarchy.SameLineage(*id.Taxon, *winner.Taxon) {
				later++
				continue
			}
			base = append(base, id)
		}
		if later > 0 {
			baseParticipants, baseAgreements := support(base, key(*winner.Taxon))
			if Quorum(baseAgreements, baseParticipants) {
				return percent(baseAgreements, baseParticipants), key(*winner.Taxon), "species degradation"
			}
		}
	}

	return percent(agreements, participants), key(*winner.Taxon), "default"
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// sharedGenus reports the genus every active identification carries when
// their names still differ.
func sharedGenus(active []identification.Identification) (string, bool) {
	if distinctNames(active) < 2 {
		return "", false
	}
	genus := ""
	for _, id := range active {
		g := id.Taxon.GenusName()
		if g == "" {
			return "", false
		}
		if genus == "" {
			genus = g
			continue
		}
		if g != genus {
			return "", false
		}
	}
	return genus, genus != ""
}

// support sums the proposer plus agreements over every active identification
// and over those naming the taxon identified by winnerKey.
func support(active []identification.Identification, winnerKey string) (participants, agreements int) {
	for _, id := range active {
		s := id.Support()
		participants += s
		if key(*id.Taxon) == winnerKey {
			agreements += s
		}
	}
	return participants, agreements
}

func distinctNames(active []identification.Identification) int {
	seen := make(map[string]struct{}, len(active))
	for _, id := range active {
		seen[key(*id.Taxon)] = struct{}{}
	}
	return len(seen)
}

var crossTaxaRanks = []rank.Rank{rank.Kingdom, rank.Phylum, rank.Class, rank.Order, rank.Family}

// crossTaxa reports whether two active identifications place the organism in
// different kingdoms, phyla, classes, orders or families.
func crossTaxa(active []identification.Identification) bool {
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := *active[i].Taxon, *active[j].Taxon
			for _, r := range crossTaxaRanks {
				av, bv := a.Name(r), b.Name(r)
				if av != "" && bv != "" && av != bv {
					return true
				}
			}
		}
	}
	return false
}

func key(rec taxon.Record) string {
	if rec.ScientificName != "" {
		return rec.ScientificName
	}
	return rec.OwnName()
}

func observedLabel(observed taxon.Record) string {
	if observed.ScientificName == "" {
		if _, ok := taxon.BestLevel(observed); !ok {
			return ""
		}
	}
	return observed.Label()
}
