package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vancomm/minesweeper-engine/internal/highscore"
)

type BestTime struct {
	Key       string             `db:"key" json:"key"`
	Seconds   int                `db:"seconds" json:"seconds"`
	CreatedAt pgtype.Timestamptz `db:"created_at" json:"-"`
	UpdatedAt pgtype.Timestamptz `db:"updated_at" json:"-"`
}

// BestTimes is the Postgres-backed [highscore.Store].
type BestTimes struct {
	q *Queries
}

func (q *Queries) BestTimes() BestTimes {
	return BestTimes{q}
}

func (b BestTimes) Get(ctx context.Context, key string) (int, error) {
	var seconds int
	err := b.q.db.QueryRow(
		ctx, "SELECT seconds FROM best_time WHERE key = $1", key,
	).Scan(&seconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return highscore.NoScore, highscore.ErrNotFound
	}
	return seconds, err
}

// Set never makes an existing record worse, even under concurrent writers.
func (b BestTimes) Set(ctx context.Context, key string, seconds int) error {
	_, err := b.q.db.Exec(
		ctx,
		`INSERT INTO best_time (key, seconds)
		VALUES (@key, @seconds)
		ON CONFLICT (key) DO UPDATE
		SET seconds = LEAST(best_time.seconds, excluded.seconds),
			updated_at = now();`,
		pgx.NamedArgs{"key": key, "seconds": seconds},
	)
	return err
}

type BestTimeFilter struct {
	Prefix *string
}

func (f BestTimeFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Prefix != nil {
		clauses = append(clauses, "starts_with(key, @prefix)")
		args["prefix"] = *f.Prefix
	}
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) ListBestTimes(ctx context.Context, filter BestTimeFilter) ([]BestTime, error) {
	query := "SELECT * FROM best_time"

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	query += " ORDER BY seconds, key;"

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[BestTime])
}
