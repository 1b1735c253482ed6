package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"taxonid/internal/services"
)

const lockRetryDelay = 50 * time.Millisecond

// ErrLocked is returned when the observation lock cannot be acquired before
// ctx is done.
var ErrLocked = fmt.Errorf("%w: observation is locked by another process", services.ErrTransient)

// WithObservationLock runs fn while holding an exclusive file lock for the
// observation. Without a lock directory fn runs unguarded.
func (s *Store) WithObservationLock(ctx context.Context, observationID string, fn func(context.Context) error) error {
	ctx = ensureContext(ctx)
	if s.lockDir == "" {
		return fn(ctx)
	}
	lock := flock.New(filepath.Join(s.lockDir, lockFileName(observationID)))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
		}
		return fmt.Errorf("acquire observation lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer func() { _ = lock.Unlock() }()
	return fn(ctx)
}

func lockFileName(observationID string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, observationID)
	if clean == "" {
		clean = "_"
	}
	return "obs-" + clean + ".lock"
}
