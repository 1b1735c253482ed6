// Package identification models taxon proposals attached to an observation
// and the small state machine that reacts to community events.
//
// An Identification is never deleted. Agree bumps its agreement count,
// Disagree adds a competing identification and leaves the disputed one
// untouched, Withdraw soft-retires the acting user's own identification, and
// Cancel drops an unsubmitted disagreement draft. Apply works on a snapshot
// and returns a new slice; the caller persists the outcome and asks the
// consensus engine to recompute when Outcome.Recompute is set.
package identification
