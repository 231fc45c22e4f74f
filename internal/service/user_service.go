package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/domain"
	"augustus_tap/internal/logger"
	"augustus_tap/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserService owns registration and the profile snapshot.
type UserService struct {
	db        *pgxpool.Pool
	cache     *cache.Cache
	cfg       config.GameConfig
	users     *repository.UserRepository
	upgrades  *repository.UpgradeRepository
	claims    *repository.DailyRepository
	energy    *EnergyTracker
	referrals *ReferralService
}

func NewUserService(db *pgxpool.Pool, c *cache.Cache, cfg config.GameConfig, referrals *ReferralService) *UserService {
	users := repository.NewUserRepository(db)
	upgrades := repository.NewUpgradeRepository(db)
	return &UserService{
		db:        db,
		cache:     c,
		cfg:       cfg,
		users:     users,
		upgrades:  upgrades,
		claims:    repository.NewDailyRepository(db),
		energy:    NewEnergyTracker(users, upgrades, c, cfg),
		referrals: referrals,
	}
}

// ParseReferralCode extracts the referrer id from a "ref_<id>" deep-link
// payload. Returns 0 for anything that does not parse.
func ParseReferralCode(code string) int64 {
	if !strings.HasPrefix(code, "ref_") {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(code, "ref_"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// Register creates the user on first contact (idempotent upsert) and, for a
// brand new user carrying a referral code, applies the one-time referral. A
// bad referral code never fails registration.
func (s *UserService) Register(ctx context.Context, userID int64, username, firstName, lastName, referralCode string) (*domain.User, error) {
	_, err := s.users.GetByID(ctx, userID)
	isNew := errors.Is(err, pgx.ErrNoRows)
	if err != nil && !isNew {
		return nil, classifyStoreError(err)
	}

	user, err := s.users.Upsert(ctx, userID, username, firstName, lastName, s.cfg.MaxEnergy)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	if isNew {
		s.cache.SetEnergy(ctx, userID, user.Energy)

		if referrerID := ParseReferralCode(referralCode); referrerID != 0 {
			if err := s.referrals.Register(ctx, referrerID, userID); err != nil {
				logger.Warn("referral not applied", "user_id", userID, "referrer_id", referrerID, "error", err)
			} else {
				// re-read so invited_by is present in the response
				if fresh, err := s.users.GetByID(ctx, userID); err == nil {
					user = fresh
				}
			}
		}
	}

	return user, nil
}

// Get returns the raw user row.
func (s *UserService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return user, nil
}

// Profile builds the presentation snapshot: authoritative balance, live
// energy through the ledger, owned upgrades and the derived streak.
func (s *UserService) Profile(ctx context.Context, userID int64) (*domain.Snapshot, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	energy, _, maxEnergy, err := s.energy.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	levels, err := s.upgrades.Levels(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	claims, err := s.claims.RecentClaims(ctx, userID, s.cfg.MaxStreak)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	return &domain.Snapshot{
		User:      *user,
		Energy:    energy,
		MaxEnergy: maxEnergy,
		Upgrades:  levels,
		Streak:    streakFromClaims(claims),
	}, nil
}
