package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taxonid/internal/consensus"
	"taxonid/internal/taxon"
)

const observationColumns = "id, taxon_json, grade, consensus_json, created_at, updated_at"

// CreateObservation inserts a new observation with an optional initial
// taxon snapshot.
func (s *Store) CreateObservation(ctx context.Context, rec taxon.Record) (*Observation, error) {
	now := formatTime(time.Now())
	id := uuid.NewString()
	var taxonJSON any
	if rec.ScientificName != "" {
		encoded, err := encodeTaxon(rec.Normalize())
		if err != nil {
			return nil, err
		}
		taxonJSON = encoded
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO observations (id, taxon_json, grade, consensus_json, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		id, taxonJSON, string(consensus.GradeNeedsID), nil, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert observation: %w", err)
	}
	return s.GetObservation(ctx, id)
}

// GetObservation fetches an observation by id.
func (s *Store) GetObservation(ctx context.Context, id string) (*Observation, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+observationColumns+" FROM observations WHERE id = ?"), id)
	obs, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get observation: %w", err)
	}
	return obs, nil
}

// ListObservations returns observations newest first, optionally filtered
// by grade. A limit <= 0 returns every row.
func (s *Store) ListObservations(ctx context.Context, grade consensus.Grade, limit int) ([]*Observation, error) {
	query := "SELECT " + observationColumns + " FROM observations"
	var args []any
	if grade != "" {
		query += " WHERE grade = ?"
		args = append(args, string(grade))
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var out []*Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// SaveConsensus stores the latest consensus result. When a winner exists
// its taxon becomes the observation's denormalized taxon.
func (s *Store) SaveConsensus(ctx context.Context, observationID string, result consensus.Result) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.saveConsensus(ctx, tx, observationID, result)
	})
}

func (s *Store) saveConsensus(ctx context.Context, tx *sql.Tx, observationID string, result consensus.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode consensus: %w", err)
	}
	query := `UPDATE observations SET grade = ?, consensus_json = ?, updated_at = ?`
	args := []any{string(result.Grade), string(payload), formatTime(time.Now())}
	if result.Winner != nil && result.Winner.Taxon != nil {
		encoded, err := encodeTaxon(*result.Winner.Taxon)
		if err != nil {
			return err
		}
		query += `, taxon_json = ?`
		args = append(args, encoded)
	}
	query += ` WHERE id = ?`
	args = append(args, observationID)

	res, err := tx.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("save consensus: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save consensus: observation %s: %w", observationID, sql.ErrNoRows)
	}
	return nil
}

// GradeCounts returns how many observations sit in each grade.
func (s *Store) GradeCounts(ctx context.Context) (map[consensus.Grade]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT grade, COUNT(1) FROM observations GROUP BY grade`)
	if err != nil {
		return nil, fmt.Errorf("grade counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[consensus.Grade]int)
	for rows.Next() {
		var grade string
		var count int
		if err := rows.Scan(&grade, &count); err != nil {
			return nil, err
		}
		counts[consensus.Grade(grade)] = count
	}
	return counts, rows.Err()
}

func scanObservation(scanner rowScanner) (*Observation, error) {
	var (
		id            string
		taxonJSON     sql.NullString
		grade         string
		consensusJSON sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(&id, &taxonJSON, &grade, &consensusJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	obs := &Observation{ID: id, Grade: consensus.Grade(grade)}
	if taxonJSON.Valid {
		rec, err := decodeTaxon(taxonJSON.String)
		if err != nil {
			return nil, err
		}
		obs.Taxon = rec
	}
	if consensusJSON.Valid && consensusJSON.String != "" {
		var result consensus.Result
		if err := json.Unmarshal([]byte(consensusJSON.String), &result); err != nil {
			return nil, fmt.Errorf("decode consensus: %w", err)
		}
		obs.Consensus = &result
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		obs.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		obs.UpdatedAt = updated
	}
	return obs, nil
}
