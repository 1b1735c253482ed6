package store

import (
	"time"

	"taxonid/internal/consensus"
	"taxonid/internal/taxon"
)

// Observation is the aggregate that owns identifications. Taxon holds the
// denormalized fields of the current winner.
type Observation struct {
	ID        string            `json:"id"`
	Taxon     taxon.Record      `json:"taxon"`
	Grade     consensus.Grade   `json:"grade"`
	Consensus *consensus.Result `json:"consensus,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Agreement records that a user agreed with an identification.
type Agreement struct {
	IdentificationID string    `json:"identification_id"`
	UserID           string    `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// ConsensusUpdate is a recomputed result written together with the event
// that caused it.
type ConsensusUpdate struct {
	ObservationID string
	Result        consensus.Result
}

// DatabaseHealth summarizes storage state for diagnostics.
type DatabaseHealth struct {
	Driver          string `json:"driver"`
	Location        string `json:"location"`
	DatabaseExists  bool   `json:"database_exists"`
	SchemaVersion   int    `json:"schema_version"`
	ExpectedVersion int    `json:"expected_version"`
	Taxa            int    `json:"taxa"`
	Observations    int    `json:"observations"`
	Identifications int    `json:"identifications"`
	Error           string `json:"error,omitempty"`
}
