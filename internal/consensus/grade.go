package consensus

import "taxonid/internal/rank"

// Grade is the quality label attached to an observation.
type Grade string

const (
	GradeResearch   Grade = "research grade"
	GradeConfirmed  Grade = "confirmed id"
	GradeNeedsID    Grade = "needs ID"
	GradeLowQuality Grade = "low quality ID"
)

// Grades lists every grade in display order.
var Grades = []Grade{GradeResearch, GradeConfirmed, GradeNeedsID, GradeLowQuality}

// Slug is a compact form used for metric labels and storage.
func (g Grade) Slug() string {
	switch g {
	case GradeResearch:
		return "research"
	case GradeConfirmed:
		return "confirmed"
	case GradeLowQuality:
		return "low_quality"
	default:
		return "needs_id"
	}
}

// ParseGrade accepts either the display form or the slug.
func ParseGrade(value string) (Grade, bool) {
	for _, g := range Grades {
		if value == string(g) || value == g.Slug() {
			return g, true
		}
	}
	return "", false
}

// GradeFor assigns a grade from the winner's rank, quorum and whether the
// active identifications are in conflict. Only genus and family winners are
// confirmed; intermediate ranks such as subgenus or tribe fall through.
func GradeFor(winner rank.Rank, quorumReached, conflict bool) Grade {
	if quorumReached && winner.Known() {
		if winner.AtOrBelow(rank.Species) {
			return GradeResearch
		}
		if winner == rank.Genus || winner == rank.Family {
			return GradeConfirmed
		}
	}
	if conflict {
		return GradeLowQuality
	}
	return GradeNeedsID
}
