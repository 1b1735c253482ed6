package identification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"taxonid/internal/taxon"
)

// Kind names a lifecycle event.
type Kind string

const (
	KindPropose  Kind = "propose"
	KindAgree    Kind = "agree"
	KindDisagree Kind = "disagree"
	KindWithdraw Kind = "withdraw"
	KindCancel   Kind = "cancel"
)

// Event is a user action against an observation's identifications.
type Event struct {
	Kind          Kind
	ObservationID string
	UserID        string
	// TargetID is the identification agreed with, disagreed with or withdrawn.
	TargetID string
	Taxon    *taxon.Record
	Comment  string
	At       time.Time
	// NewID overrides the generated id of a created identification.
	NewID string
}

// Outcome is the result of applying one event to a snapshot.
type Outcome struct {
	Identifications []Identification
	Created         *Identification
	// Changed is the id of the identification whose stored fields changed.
	Changed string
	// Superseded lists the acting user's earlier identifications withdrawn
	// because a new one replaced them.
	Superseded []string
	Recompute  bool
}

// Apply runs ev against a copy of ids. The input slice is never modified.
func Apply(ids []Identification, ev Event) (Outcome, error) {
	next := Clone(ids)
	if next == nil {
		next = []Identification{}
	}
	ev.UserID = strings.TrimSpace(ev.UserID)
	switch ev.Kind {
	case KindCancel:
		return Outcome{Identifications: next}, nil
	case KindPropose:
		return propose(next, ev, "")
	case KindDisagree:
		if idx := Find(next, ev.TargetID); idx < 0 {
			return Outcome{}, ErrNotFound
		} else if next[idx].Withdrawn {
			return Outcome{}, ErrWithdrawn
		}
		if strings.TrimSpace(ev.Comment) == "" {
			return Outcome{}, ErrCommentRequired
		}
		return propose(next, ev, ev.TargetID)
	case KindAgree:
		return agree(next, ev)
	case KindWithdraw:
		return withdraw(next, ev)
	default:
		return Outcome{}, ErrUnknownEvent
	}
}

func propose(ids []Identification, ev Event, disputed string) (Outcome, error) {
	if ev.UserID == "" {
		return Outcome{}, ErrMissingUser
	}
	if ev.Taxon == nil || (ev.Taxon.ScientificName == "" && ev.Taxon.OwnName() == "") {
		return Outcome{}, ErrMissingTaxon
	}
	var superseded []string
	for i := range ids {
		if ids[i].UserID == ev.UserID && ids[i].Active() {
			ids[i].Withdrawn = true
			superseded = append(superseded, ids[i].ID)
		}
	}
	rec := *ev.Taxon
	created := Identification{
		ID:            ev.NewID,
		ObservationID: ev.ObservationID,
		UserID:        ev.UserID,
		Taxon:         &rec,
		DisagreesWith: disputed,
		Comment:       strings.TrimSpace(ev.Comment),
		Sequence:      NextSequence(ids),
		CreatedAt:     eventTime(ev),
	}
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	ids = append(ids, created)
	return Outcome{
		Identifications: ids,
		Created:         &ids[len(ids)-1],
		Superseded:      superseded,
		Recompute:       true,
	}, nil
}

func agree(ids []Identification, ev Event) (Outcome, error) {
	if ev.UserID == "" {
		return Outcome{}, ErrMissingUser
	}
	idx := Find(ids, ev.TargetID)
	if idx < 0 {
		return Outcome{}, ErrNotFound
	}
	target := &ids[idx]
	if target.Withdrawn {
		return Outcome{}, ErrWithdrawn
	}
	if target.UserID == ev.UserID {
		return Outcome{}, ErrOwnIdentification
	}
	target.AgreementCount++
	return Outcome{Identifications: ids, Changed: target.ID, Recompute: true}, nil
}

func withdraw(ids []Identification, ev Event) (Outcome, error) {
	if ev.UserID == "" {
		return Outcome{}, ErrMissingUser
	}
	idx := Find(ids, ev.TargetID)
	if idx < 0 {
		return Outcome{}, ErrNotFound
	}
	target := &ids[idx]
	if target.UserID != ev.UserID {
		return Outcome{}, ErrNotOwner
	}
	if target.Withdrawn {
		return Outcome{}, ErrWithdrawn
	}
	target.Withdrawn = true
	return Outcome{Identifications: ids, Changed: target.ID, Recompute: true}, nil
}

func eventTime(ev Event) time.Time {
	if ev.At.IsZero() {
		return time.Now().UTC()
	}
	return ev.At.UTC()
}
