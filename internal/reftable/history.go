package reftable

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Import is one row of the import_log table, written each time a table is
// stored with Replace.
type Import struct {
	ID         int64     `json:"id"`
	Stats      Stats     `json:"stats"`
	ImportedAt time.Time `json:"imported_at"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func appendImport(ctx context.Context, db execer, st Stats, at int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO import_log (source, rows_read, loaded, skipped, duplicates, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		st.Source, st.Rows, st.Loaded, st.Skipped, st.Duplicates, at)
	if err != nil {
		return fmt.Errorf("reftable: append import: %w", err)
	}
	return nil
}

// History returns the most recent imports, newest first. A limit <= 0
// returns all of them.
func (s *SQLStore) History(ctx context.Context, limit int) ([]Import, error) {
	q := `SELECT id, source, rows_read, loaded, skipped, duplicates, created_at
		FROM import_log ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("reftable: query history: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var (
			im Import
			at int64
		)
		if err := rows.Scan(&im.ID, &im.Stats.Source, &im.Stats.Rows, &im.Stats.Loaded,
			&im.Stats.Skipped, &im.Stats.Duplicates, &at); err != nil {
			return nil, fmt.Errorf("reftable: scan history: %w", err)
		}
		im.ImportedAt = time.Unix(at, 0).UTC()
		out = append(out, im)
	}
	return out, rows.Err()
}
