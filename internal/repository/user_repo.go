package repository

import (
	"context"
	"time"

	"augustus_tap/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		balance, energy, last_tap_time, invited_by, referrals, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Balance,
		&u.Energy,
		&u.LastTapTime,
		&u.InvitedBy,
		&u.Referrals,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
}

// Upsert creates the user on first contact with full starting energy, or
// refreshes identity fields on repeat contact. Idempotent.
func (r *UserRepository) Upsert(ctx context.Context, userID int64, username, firstName, lastName string, startEnergy int) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (user_id, username, first_name, last_name, energy)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET username   = COALESCE(NULLIF($2, ''), users.username),
		     first_name = COALESCE(NULLIF($3, ''), users.first_name),
		     last_name  = COALESCE(NULLIF($4, ''), users.last_name)
		 RETURNING `+userColumns,
		userID, username, firstName, lastName, startEnergy))
}

// EnergyState returns the stored energy and regen baseline for a user.
func (r *UserRepository) EnergyState(ctx context.Context, userID int64) (int, *time.Time, error) {
	var energy int
	var lastTap *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT energy, last_tap_time FROM users WHERE user_id = $1`, userID,
	).Scan(&energy, &lastTap)
	return energy, lastTap, err
}

// UpdateEnergy persists a recomputed energy value. The regen baseline
// (last_tap_time) is deliberately left untouched; it only advances at an
// actual tap.
func (r *UserRepository) UpdateEnergy(ctx context.Context, userID int64, energy int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET energy = $1 WHERE user_id = $2`, energy, userID)
	return err
}

// GetBalance returns the authoritative balance.
func (r *UserRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE user_id = $1`, userID).Scan(&balance)
	return balance, err
}

// CreditTx adds amount to a user's balance inside an existing transaction.
func (r *UserRepository) CreditTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx,
		`UPDATE users SET balance = balance + $1 WHERE user_id = $2 RETURNING balance`,
		amount, userID,
	).Scan(&newBalance)
	return newBalance, err
}

// GetTopByBalance returns users ordered by balance desc.
func (r *UserRepository) GetTopByBalance(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY balance DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// BalanceRank returns the user's 1-based rank by balance.
func (r *UserRepository) BalanceRank(ctx context.Context, userID int64) (int, error) {
	var rank int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) + 1
		FROM users
		WHERE balance > (SELECT balance FROM users WHERE user_id = $1)`,
		userID,
	).Scan(&rank)
	return rank, err
}

// GetTopReferrers returns users with at least one referral, most first.
func (r *UserRepository) GetTopReferrers(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE referrals > 0 ORDER BY referrals DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
