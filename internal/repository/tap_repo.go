package repository

import (
	"context"

	"augustus_tap/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TapRepository struct {
	db *pgxpool.Pool
}

func NewTapRepository(db *pgxpool.Pool) *TapRepository {
	return &TapRepository{db: db}
}

// InsertTx appends one tap event inside the commit transaction.
func (r *TapRepository) InsertTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO taps (user_id, amount) VALUES ($1, $2)`,
		userID, amount)
	return err
}

// Recent returns the newest tap events for a user.
func (r *TapRepository) Recent(ctx context.Context, userID int64, limit int) ([]domain.TapEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, amount, created_at
		 FROM taps
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TapEvent
	for rows.Next() {
		var e domain.TapEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// TotalEarned sums all tap rewards ever paid to a user.
func (r *TapRepository) TotalEarned(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM taps WHERE user_id = $1`, userID,
	).Scan(&total)
	return total, err
}
