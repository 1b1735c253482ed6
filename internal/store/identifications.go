package store

import (
	"context"
	"database/sql"
	"fmt"

	"taxonid/internal/identification"
	"taxonid/internal/services"
)

const identificationColumns = "id, observation_id, user_id, taxon_json, agreement_count, withdrawn, disagrees_with, comment, sequence, created_at"

// ErrAlreadyAgreed is returned when a user agrees with the same
// identification twice.
var ErrAlreadyAgreed = fmt.Errorf("%w: user already agreed with this identification", services.ErrConflict)

// ListIdentifications returns every identification of an observation,
// withdrawn ones included, in proposal order.
func (s *Store) ListIdentifications(ctx context.Context, observationID string) ([]identification.Identification, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT "+identificationColumns+" FROM identifications WHERE observation_id = ? ORDER BY sequence, id"),
		observationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list identifications: %w", err)
	}
	defer rows.Close()

	var out []identification.Identification
	for rows.Next() {
		id, err := scanIdentification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identification: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// HasAgreed reports whether userID already agreed with the identification.
func (s *Store) HasAgreed(ctx context.Context, identificationID, userID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(1) FROM agreements WHERE identification_id = ? AND user_id = ?`),
		identificationID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check agreement: %w", err)
	}
	return count > 0, nil
}

// ApplyOutcome persists the result of one lifecycle event in a single
// transaction: the created identification, the changed and superseded ones,
// the agreement row when agreement is non-nil and the recomputed consensus
// when update is non-nil. Any failure leaves nothing written.
func (s *Store) ApplyOutcome(ctx context.Context, outcome identification.Outcome, agreement *Agreement, update *ConsensusUpdate) error {
	touched := make(map[string]struct{}, len(outcome.Superseded)+1)
	if outcome.Changed != "" {
		touched[outcome.Changed] = struct{}{}
	}
	for _, id := range outcome.Superseded {
		touched[id] = struct{}{}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if agreement != nil {
			var count int
			if err := tx.QueryRowContext(ctx,
				s.rebind(`SELECT COUNT(1) FROM agreements WHERE identification_id = ? AND user_id = ?`),
				agreement.IdentificationID, agreement.UserID,
			).Scan(&count); err != nil {
				return fmt.Errorf("check agreement: %w", err)
			}
			if count > 0 {
				return ErrAlreadyAgreed
			}
			if _, err := tx.ExecContext(ctx,
				s.rebind(`INSERT INTO agreements (identification_id, user_id, created_at) VALUES (?, ?, ?)`),
				agreement.IdentificationID, agreement.UserID, formatTime(agreement.CreatedAt),
			); err != nil {
				return fmt.Errorf("insert agreement: %w", err)
			}
		}
		for _, id := range outcome.Identifications {
			if _, ok := touched[id.ID]; !ok {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				s.rebind(`UPDATE identifications SET agreement_count = ?, withdrawn = ? WHERE id = ?`),
				id.AgreementCount, boolToInt(id.Withdrawn), id.ID,
			); err != nil {
				return fmt.Errorf("update identification %s: %w", id.ID, err)
			}
		}
		if outcome.Created != nil {
			if err := s.insertIdentification(ctx, tx, *outcome.Created); err != nil {
				return err
			}
		}
		if update != nil {
			return s.saveConsensus(ctx, tx, update.ObservationID, update.Result)
		}
		return nil
	})
}

func (s *Store) insertIdentification(ctx context.Context, tx *sql.Tx, id identification.Identification) error {
	if id.Taxon == nil {
		return services.Wrap(services.ErrContract, "store", "insert identification", "identification has no taxon", nil)
	}
	taxonJSON, err := encodeTaxon(*id.Taxon)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO identifications (`+identificationColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id.ID,
		id.ObservationID,
		id.UserID,
		taxonJSON,
		id.AgreementCount,
		boolToInt(id.Withdrawn),
		nullableString(id.DisagreesWith),
		nullableString(id.Comment),
		id.Sequence,
		formatTime(id.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert identification: %w", err)
	}
	return nil
}

func scanIdentification(scanner rowScanner) (identification.Identification, error) {
	var (
		id            identification.Identification
		taxonJSON     string
		withdrawn     int64
		disagreesWith sql.NullString
		comment       sql.NullString
		createdRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id.ID,
		&id.ObservationID,
		&id.UserID,
		&taxonJSON,
		&id.AgreementCount,
		&withdrawn,
		&disagreesWith,
		&comment,
		&id.Sequence,
		&createdRaw,
	); err != nil {
		return id, err
	}
	rec, err := decodeTaxon(taxonJSON)
	if err != nil {
		return id, err
	}
	id.Taxon = &rec
	id.Withdrawn = withdrawn != 0
	id.DisagreesWith = disagreesWith.String
	id.Comment = comment.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		id.CreatedAt = created
	}
	return id, nil
}
