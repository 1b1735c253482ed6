package identification

import (
	"time"

	"taxonid/internal/taxon"
)

// State is the derived lifecycle state of one identification.
type State string

const (
	StateProposed  State = "proposed"
	StateAgreed    State = "agreed"
	StateWithdrawn State = "withdrawn"
)

// Identification is one user's taxon proposal for an observation.
type Identification struct {
	ID             string        `json:"id"`
	ObservationID  string        `json:"observation_id"`
	UserID         string        `json:"user_id"`
	Taxon          *taxon.Record `json:"taxon"`
	AgreementCount int           `json:"agreement_count"`
	Withdrawn      bool          `json:"withdrawn"`
	DisagreesWith  string        `json:"disagrees_with,omitempty"`
	Comment        string        `json:"comment,omitempty"`
	// Sequence is the proposal order within the observation, starting at 1.
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the identification still takes part in consensus.
func (i Identification) Active() bool {
	return !i.Withdrawn
}

// Support counts the proposer plus every user who agreed.
func (i Identification) Support() int {
	if i.AgreementCount < 0 {
		return 1
	}
	return 1 + i.AgreementCount
}

// State derives the lifecycle state from the stored fields.
func (i Identification) State() State {
	switch {
	case i.Withdrawn:
		return StateWithdrawn
	case i.AgreementCount > 0:
		return StateAgreed
	default:
		return StateProposed
	}
}

// ScientificName returns the proposed taxon's scientific name, or "".
func (i Identification) ScientificName() string {
	if i.Taxon == nil {
		return ""
	}
	return i.Taxon.ScientificName
}

// Active filters out withdrawn identifications, preserving order.
func Active(ids []Identification) []Identification {
	out := make([]Identification, 0, len(ids))
	for _, id := range ids {
		if id.Active() {
			out = append(out, id)
		}
	}
	return out
}

// Clone copies the slice and every taxon snapshot so the result shares no
// memory with the input.
func Clone(ids []Identification) []Identification {
	if ids == nil {
		return nil
	}
	out := make([]Identification, len(ids))
	for i, id := range ids {
		if id.Taxon != nil {
			rec := *id.Taxon
			id.Taxon = &rec
		}
		out[i] = id
	}
	return out
}

// Find returns the position of the identification with the given id, or -1.
func Find(ids []Identification, id string) int {
	for i := range ids {
		if ids[i].ID == id {
			return i
		}
	}
	return -1
}

// NextSequence returns the proposal sequence for a new identification.
func NextSequence(ids []Identification) int64 {
	var max int64
	for _, id := range ids {
		if id.Sequence > max {
			max = id.Sequence
		}
	}
	return max + 1
}
