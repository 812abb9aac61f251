// Package index keeps a queryable audit trail of saved records in Postgres.
// The filesystem copy stays canonical; the index only makes it searchable.
package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payerline/postcall/internal/record"
)

type Index struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Index, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Index{pool: pool}, nil
}

func (i *Index) Close() {
	i.pool.Close()
}

// RecordSaved appends one row per finalized record. Re-saving the same call
// id updates the row rather than duplicating it.
func (i *Index) RecordSaved(ctx context.Context, rec *record.Record, path string) error {
	query := `
		INSERT INTO call_records (call_id, payer_name, patient_name, cpt_code, status, outcome, file_path, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (call_id) DO UPDATE SET
			status = EXCLUDED.status,
			outcome = EXCLUDED.outcome,
			file_path = EXCLUDED.file_path,
			updated_at = EXCLUDED.updated_at`

	_, err := i.pool.Exec(ctx, query,
		rec.CallID,
		rec.PayerName,
		rec.Patient.Name,
		rec.Procedure.CPTCode,
		string(rec.Authorization.Status),
		string(rec.CallOutcome),
		path,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("index record %s: %w", rec.CallID, err)
	}
	return nil
}
