package identification

import "taxonid/internal/taxon"

// Draft is an unsubmitted disagreement. It holds no stored state; cancelling
// it only closes the draft.
type Draft struct {
	ObservationID string
	TargetID      string
	UserID        string
	Taxon         *taxon.Record
	Comment       string

	cancelled bool
}

// NewDraft opens a disagreement against target on behalf of userID.
func NewDraft(target Identification, userID string) *Draft {
	return &Draft{
		ObservationID: target.ObservationID,
		TargetID:      target.ID,
		UserID:        userID,
	}
}

// Cancel closes the draft and returns the no-op cancel event.
func (d *Draft) Cancel() Event {
	d.cancelled = true
	return Event{Kind: KindCancel, ObservationID: d.ObservationID, UserID: d.UserID, TargetID: d.TargetID}
}

// Cancelled reports whether Cancel was called.
func (d *Draft) Cancelled() bool {
	return d.cancelled
}

// Event converts the draft into a Disagree event.
func (d *Draft) Event() (Event, error) {
	if d.cancelled {
		return Event{}, ErrDraftCancelled
	}
	return Event{
		Kind:          KindDisagree,
		ObservationID: d.ObservationID,
		UserID:        d.UserID,
		TargetID:      d.TargetID,
		Taxon:         d.Taxon,
		Comment:       d.Comment,
	}, nil
}
