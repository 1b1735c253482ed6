package identification

import (
	"fmt"

	"taxonid/internal/services"
)

var (
	ErrNotFound          = fmt.Errorf("%w: identification", services.ErrNotFound)
	ErrMissingUser       = fmt.Errorf("%w: acting user is required", services.ErrValidation)
	ErrMissingTaxon      = fmt.Errorf("%w: a taxon is required", services.ErrValidation)
	ErrCommentRequired   = fmt.Errorf("%w: a disagreement needs a comment", services.ErrValidation)
	ErrNotOwner          = fmt.Errorf("%w: identification belongs to another user", services.ErrValidation)
	ErrOwnIdentification = fmt.Errorf("%w: cannot agree with your own identification", services.ErrValidation)
	ErrWithdrawn         = fmt.Errorf("%w: identification is withdrawn", services.ErrConflict)
	ErrDraftCancelled    = fmt.Errorf("%w: disagreement draft was cancelled", services.ErrConflict)
	ErrUnknownEvent      = fmt.Errorf("%w: unknown lifecycle event", services.ErrContract)
)
