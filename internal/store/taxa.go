package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taxonid/internal/taxon"
)

var _ taxon.Searcher = (*Store)(nil)

const defaultSearchPerPage = 20

// UpsertTaxon inserts or replaces a catalog record. Records without an id get
// a generated one, which is returned.
func (s *Store) UpsertTaxon(ctx context.Context, rec taxon.Record) (taxon.Record, error) {
	rec = rec.Normalize()
	if strings.TrimSpace(rec.ScientificName) == "" {
		return rec, errors.New("taxon scientific name is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	payload, err := encodeTaxon(rec)
	if err != nil {
		return rec, err
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO taxa (id, scientific_name, common_name, rank, taxonomic_status, accepted_scientific_name, record_json, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            scientific_name = excluded.scientific_name,
            common_name = excluded.common_name,
            rank = excluded.rank,
            taxonomic_status = excluded.taxonomic_status,
            accepted_scientific_name = excluded.accepted_scientific_name,
            record_json = excluded.record_json,
            updated_at = excluded.updated_at`,
		rec.ID,
		rec.ScientificName,
		nullableString(rec.CommonName),
		rec.Rank.String(),
		string(rec.Status),
		nullableString(rec.AcceptedScientificName),
		payload,
		formatTime(time.Now()),
	)
	if err != nil {
		return rec, fmt.Errorf("upsert taxon %q: %w", rec.ScientificName, err)
	}
	return rec, nil
}

// GetTaxon fetches a catalog record by id.
func (s *Store) GetTaxon(ctx context.Context, id string) (*taxon.Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT record_json FROM taxa WHERE id = ?`), id)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get taxon: %w", err)
	}
	rec, err := decodeTaxon(raw)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Search finds catalog records whose scientific or common name contains the
// query text, case-insensitively.
func (s *Store) Search(ctx context.Context, q taxon.Query) ([]taxon.Record, error) {
	q = q.Normalized(defaultSearchPerPage)
	pattern := "%" + strings.ToLower(strings.TrimSpace(q.Text)) + "%"
	query := `SELECT record_json FROM taxa
        WHERE (LOWER(scientific_name) LIKE ? OR LOWER(COALESCE(common_name, '')) LIKE ?)`
	args := []any{pattern, pattern}
	if q.Rank.Known() {
		query += ` AND rank = ?`
		args = append(args, q.Rank.String())
	}
	query += ` ORDER BY scientific_name, id LIMIT ? OFFSET ?`
	args = append(args, q.PerPage, q.Offset())
	return s.queryTaxa(ctx, query, args...)
}

// LookupByName returns catalog records with exactly this scientific name.
func (s *Store) LookupByName(ctx context.Context, name string) ([]taxon.Record, error) {
	return s.queryTaxa(ctx, `SELECT record_json FROM taxa WHERE scientific_name = ? ORDER BY id`, strings.TrimSpace(name))
}

func (s *Store) queryTaxa(ctx context.Context, query string, args ...any) ([]taxon.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query taxa: %w", err)
	}
	defer rows.Close()

	var out []taxon.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan taxon: %w", err)
		}
		rec, err := decodeTaxon(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
