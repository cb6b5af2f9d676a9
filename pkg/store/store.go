// Package store is the relational collaborator surface: ordered batch
// record listings, generation batch lookup, and the is_email point update.
// Account numbers come back exactly as stored (envelope or plaintext);
// normalization is the caller's job.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver

	"github.com/quarterlabs/statement-dispatch/pkg/batch"
)

// Store wraps the database handle for the member and batch tables.
type Store struct {
	db *sql.DB
}

// Open connects and verifies the connection. Callers own the returned
// store for exactly one run and must Close it on every exit path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing handle; used by tests.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// Members lists every member ordered by account number ascending. The
// ascending order is a store contract the resume logic depends on.
func (s *Store) Members(ctx context.Context) ([]batch.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_number FROM members ORDER BY account_number ASC")
	if err != nil {
		return nil, fmt.Errorf("store: query members: %w", err)
	}
	defer rows.Close()

	var records []batch.Record
	for rows.Next() {
		var r batch.Record
		if err := rows.Scan(&r.ID, &r.AccountNumber); err != nil {
			return nil, fmt.Errorf("store: scan member: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate members: %w", err)
	}
	return records, nil
}

// Generations lists generation batches, newest first.
func (s *Store) Generations(ctx context.Context) ([]batch.Generation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, statement_period, statement_date, generation_date,
		       total_players, created_at, updated_at
		FROM no_play_batches
		ORDER BY generation_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: query batches: %w", err)
	}
	defer rows.Close()

	var gens []batch.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate batches: %w", err)
	}
	return gens, nil
}

// Generation looks up one batch by id. Absent batches return (nil, nil).
func (s *Store) Generation(ctx context.Context, id string) (*batch.Generation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, statement_period, statement_date, generation_date,
		       total_players, created_at, updated_at
		FROM no_play_batches
		WHERE id = $1`, id)

	g, err := scanGeneration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// BatchAccounts lists a batch's records ordered ascending by account.
func (s *Store) BatchAccounts(ctx context.Context, batchID string) ([]batch.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, account_number, player_data,
		       no_play_status, is_email, created_at, updated_at
		FROM no_play_players
		WHERE batch_id = $1
		ORDER BY account_number`, batchID)
	if err != nil {
		return nil, fmt.Errorf("store: query batch accounts: %w", err)
	}
	defer rows.Close()

	var records []batch.Record
	for rows.Next() {
		var r batch.Record
		var playerData sql.NullString
		if err := rows.Scan(&r.ID, &r.BatchID, &r.AccountNumber, &playerData,
			&r.Status, &r.IsEmail, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan batch account: %w", err)
		}
		r.PlayerData = playerData.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate batch accounts: %w", err)
	}
	return records, nil
}

// Players lists every batch record with its eligibility flag, for the
// flag-import workflow's match pass.
func (s *Store) Players(ctx context.Context) ([]batch.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_number, is_email FROM no_play_players")
	if err != nil {
		return nil, fmt.Errorf("store: query players: %w", err)
	}
	defer rows.Close()

	var records []batch.Record
	for rows.Next() {
		var r batch.Record
		if err := rows.Scan(&r.ID, &r.AccountNumber, &r.IsEmail); err != nil {
			return nil, fmt.Errorf("store: scan player: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate players: %w", err)
	}
	return records, nil
}

// SetEmailFlag marks one record as opted in to email delivery.
func (s *Store) SetEmailFlag(ctx context.Context, recordID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE no_play_players SET is_email = 1, updated_at = NOW() WHERE id = $1", recordID)
	if err != nil {
		return fmt.Errorf("store: set email flag: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (batch.Generation, error) {
	var g batch.Generation
	var statementDate sql.NullString
	err := row.Scan(&g.ID, &g.StatementPeriod, &statementDate, &g.GenerationDate,
		&g.TotalPlayers, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return g, err
	}
	if err != nil {
		return g, fmt.Errorf("store: scan batch: %w", err)
	}
	g.StatementDate = statementDate.String
	return g, nil
}
