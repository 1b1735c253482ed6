package taxon

import "strings"

// Status is a record's taxonomic status as reported by the search backend.
type Status string

const (
	StatusAccepted   Status = "ACCEPTED"
	StatusSynonym    Status = "SYNONYM"
	StatusUnaccepted Status = "UNACCEPTED"
	StatusHidden     Status = "HIDDEN"
	StatusDoubtful   Status = "DOUBTFUL"
)

// ParseStatus normalizes a status string. Unknown values are returned upper-cased
// so they survive a round trip without being mistaken for a known status.
func ParseStatus(value string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(value)))
}

// Known reports whether s is one of the statuses the backend documents.
func (s Status) Known() bool {
	switch s {
	case StatusAccepted, StatusSynonym, StatusUnaccepted, StatusHidden, StatusDoubtful:
		return true
	}
	return false
}
