package reftable

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SQLStore keeps a reference table in the reference_conditions table so a
// CSV can be imported once and served from SQLite or Postgres.
type SQLStore struct {
	db     *sql.DB
	source string
}

func NewSQLStore(db *sql.DB, source string) *SQLStore {
	return &SQLStore{db: db, source: source}
}

// Replace swaps the stored table for t in a single transaction.
func (s *SQLStore) Replace(ctx context.Context, t *Table) error {
	if t.Len() == 0 {
		return ErrEmptyTable
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_conditions`); err != nil {
		return fmt.Errorf("reftable: clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO reference_conditions
		(name, description, raf, position, source, imported_at)
		VALUES ($1,$2,$3,$4,$5,$6)`)
	if err != nil {
		return fmt.Errorf("reftable: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	src := t.Stats().Source
	for i, e := range t.Entries() {
		if _, err := stmt.ExecContext(ctx, e.Name, e.Description, e.RAF, i, src, now); err != nil {
			return fmt.Errorf("reftable: insert %q: %w", e.Name, err)
		}
	}
	if err := appendImport(ctx, tx, t.Stats(), now); err != nil {
		return err
	}
	return tx.Commit()
}

// Load reads the stored table. Rows with an invalid RAF are skipped like
// malformed CSV rows; an empty result wraps ErrEmptyTable.
func (s *SQLStore) Load(ctx context.Context) (*Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT description, raf FROM reference_conditions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reftable: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Description, &e.RAF); err != nil {
			return nil, fmt.Errorf("reftable: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	t := FromEntries(s.source, KeepLast, entries)
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, s.source)
	}
	slog.Info("reference table loaded",
		"source", s.source,
		"loaded", t.stats.Loaded,
		"skipped", t.stats.Skipped)
	return t, nil
}
