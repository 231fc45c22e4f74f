package repository

import (
	"context"

	"augustus_tap/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralStats struct {
	TotalReferrals int   `json:"total_referrals"`
	TotalEarned    int64 `json:"total_earned"`
	TotalRewards   int   `json:"total_rewards"`
}

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// ReferrerOf returns the referrer's id for a user, nil if not referred.
func (r *ReferralRepository) ReferrerOf(ctx context.Context, userID int64) (*int64, error) {
	var referrerID *int64
	err := r.db.QueryRow(ctx,
		`SELECT invited_by FROM users WHERE user_id = $1`, userID,
	).Scan(&referrerID)
	return referrerID, err
}

// CreateEdgeTx records the referral edge and denormalized back-reference.
// Returns false if the user is already referred (first referrer wins).
func (r *ReferralRepository) CreateEdgeTx(ctx context.Context, tx pgx.Tx, referrerID, referredID int64) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO referrals (referrer_id, referred_id)
		 VALUES ($1, $2)
		 ON CONFLICT (referred_id) DO NOTHING`,
		referrerID, referredID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET invited_by = $1 WHERE user_id = $2 AND invited_by IS NULL`,
		referrerID, referredID)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET referrals = referrals + 1 WHERE user_id = $1`, referrerID)
	return err == nil, err
}

// IncrementTapCountTx advances the bonus-eligibility counter for a
// (referred, referrer) pair, stopping at the bonus-tap limit: once the
// counter reaches it the statement is a no-op and the tap is reported as not
// counted. The upsert is a single atomic statement, safe under concurrent
// taps.
func (r *ReferralRepository) IncrementTapCountTx(ctx context.Context, tx pgx.Tx, userID, referrerID, limit int64) (bool, error) {
	var tapCount int64
	err := tx.QueryRow(ctx,
		`INSERT INTO referral_taps (user_id, referrer_id, tap_count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, referrer_id)
		 DO UPDATE SET tap_count = referral_taps.tap_count + 1
		 WHERE referral_taps.tap_count < $3
		 RETURNING tap_count`,
		userID, referrerID, limit,
	).Scan(&tapCount)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TapCount returns the current bonus-eligibility counter without advancing it.
func (r *ReferralRepository) TapCount(ctx context.Context, userID, referrerID int64) (int64, error) {
	var tapCount int64
	err := r.db.QueryRow(ctx,
		`SELECT tap_count FROM referral_taps WHERE user_id = $1 AND referrer_id = $2`,
		userID, referrerID,
	).Scan(&tapCount)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return tapCount, err
}

// InsertRewardTx appends one referral reward log row inside the commit
// transaction.
func (r *ReferralRepository) InsertRewardTx(ctx context.Context, tx pgx.Tx, referrerID, referredID, rewardAmount, tapReward int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO referral_rewards (referrer_id, referred_id, reward_amount, tap_reward)
		 VALUES ($1, $2, $3, $4)`,
		referrerID, referredID, rewardAmount, tapReward)
	return err
}

// Stats returns referral counters and cascade earnings for a referrer.
func (r *ReferralRepository) Stats(ctx context.Context, userID int64) (*ReferralStats, error) {
	stats := &ReferralStats{}

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`, userID,
	).Scan(&stats.TotalReferrals)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(reward_amount), 0), COUNT(*)
		 FROM referral_rewards
		 WHERE referrer_id = $1`,
		userID,
	).Scan(&stats.TotalEarned, &stats.TotalRewards)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ListReferred returns the users referred by a referrer, newest first.
func (r *ReferralRepository) ListReferred(ctx context.Context, userID int64) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE invited_by = $1
		 ORDER BY created_at DESC`,
		userID)
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
