package service

import (
	"context"
	"fmt"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/domain"
	"augustus_tap/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralService handles the one-time registration edge and the referral
// queries. The per-tap cascade itself lives inside the tap commit
// transaction; this service owns everything around it.
type ReferralService struct {
	db        *pgxpool.Pool
	cache     *cache.Cache
	cfg       config.GameConfig
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
}

func NewReferralService(db *pgxpool.Pool, c *cache.Cache, cfg config.GameConfig) *ReferralService {
	return &ReferralService{
		db:        db,
		cache:     c,
		cfg:       cfg,
		users:     repository.NewUserRepository(db),
		referrals: repository.NewReferralRepository(db),
	}
}

// Register creates the referral edge and pays the one-time bonus to the
// referrer. Idempotent per pair: a user can only be referred once, first
// referrer wins. Self-referral is rejected outright.
func (s *ReferralService) Register(ctx context.Context, referrerID, referredID int64) error {
	if referrerID == referredID {
		return ErrSelfReferral
	}

	// Referrer must exist; a dangling id would poison the edge.
	if _, err := s.users.GetByID(ctx, referrerID); err != nil {
		return classifyStoreError(err)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classifyStoreError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := s.referrals.CreateEdgeTx(ctx, tx, referrerID, referredID)
	if err != nil {
		return classifyStoreError(err)
	}
	if !created {
		return ErrDuplicateReferral
	}

	var referrerBalance int64
	if s.cfg.ReferralBonus > 0 {
		referrerBalance, err = s.users.CreditTx(ctx, tx, referrerID, s.cfg.ReferralBonus)
		if err != nil {
			return classifyStoreError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyStoreError(err)
	}

	if s.cfg.ReferralBonus > 0 {
		s.cache.UpdateScore(ctx, referrerID, referrerBalance)
	}
	return nil
}

// Stats returns referral counters and cascade earnings for a user.
func (s *ReferralService) Stats(ctx context.Context, userID int64) (*repository.ReferralStats, error) {
	stats, err := s.referrals.Stats(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return stats, nil
}

// Referred lists the users this user has brought in.
func (s *ReferralService) Referred(ctx context.Context, userID int64) ([]domain.User, error) {
	users, err := s.referrals.ListReferred(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return users, nil
}

// BonusTapsLeft reports how many more taps by the referred user still yield
// cascade credit for the pair, zero once the cap is exhausted.
func (s *ReferralService) BonusTapsLeft(ctx context.Context, referredID, referrerID int64) (int64, error) {
	count, err := s.referrals.TapCount(ctx, referredID, referrerID)
	if err != nil {
		return 0, classifyStoreError(err)
	}
	left := s.cfg.ReferralBonusTaps - count
	if left < 0 {
		left = 0
	}
	return left, nil
}

// Link builds the bot deep link carrying the user's referral code.
func (s *ReferralService) Link(botUsername string, userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%d", botUsername, userID)
}
