package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DailyRepository struct {
	db *pgxpool.Pool
}

func NewDailyRepository(db *pgxpool.Pool) *DailyRepository {
	return &DailyRepository{db: db}
}

// LastClaim returns the most recent claim time, nil if the user never claimed.
func (r *DailyRepository) LastClaim(ctx context.Context, userID int64) (*time.Time, error) {
	var claimedAt time.Time
	err := r.db.QueryRow(ctx,
		`SELECT claimed_at FROM daily_claims
		 WHERE user_id = $1
		 ORDER BY claimed_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&claimedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claimedAt, nil
}

// RecentClaims returns up to limit claim times, newest first.
func (r *DailyRepository) RecentClaims(ctx context.Context, userID int64, limit int) ([]time.Time, error) {
	rows, err := r.db.Query(ctx,
		`SELECT claimed_at FROM daily_claims
		 WHERE user_id = $1
		 ORDER BY claimed_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		claims = append(claims, t)
	}
	return claims, rows.Err()
}

// RecentClaimsTx is RecentClaims inside an existing transaction, used to
// re-validate claim eligibility after the user row lock is held.
func (r *DailyRepository) RecentClaimsTx(ctx context.Context, tx pgx.Tx, userID int64, limit int) ([]time.Time, error) {
	rows, err := tx.Query(ctx,
		`SELECT claimed_at FROM daily_claims
		 WHERE user_id = $1
		 ORDER BY claimed_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		claims = append(claims, t)
	}
	return claims, rows.Err()
}

// InsertTx appends one claim row inside the commit transaction and returns
// its server-side timestamp.
func (r *DailyRepository) InsertTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) (time.Time, error) {
	var claimedAt time.Time
	err := tx.QueryRow(ctx,
		`INSERT INTO daily_claims (user_id, amount) VALUES ($1, $2) RETURNING claimed_at`,
		userID, amount,
	).Scan(&claimedAt)
	return claimedAt, err
}
