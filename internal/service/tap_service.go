package service

import (
	"context"
	"errors"
	"time"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/domain"
	"augustus_tap/internal/logger"
	"augustus_tap/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notifier pushes post-commit state changes to connected clients.
type Notifier interface {
	Publish(userID int64, event any)
}

// TapResult is the successful outcome of one tap.
type TapResult struct {
	Reward  int64 `json:"reward"`
	Energy  int   `json:"energy"`
	Balance int64 `json:"balance"`
}

// StateEvent is pushed over the live feed after any committed mutation.
type StateEvent struct {
	Type    string `json:"type"`
	Balance int64  `json:"balance"`
	Energy  int    `json:"energy"`
	Reward  int64  `json:"reward,omitempty"`
}

// TapService runs the tap pipeline: energy check, rate checks, reward
// computation, atomic commit, referral cascade and cache sync. The database
// transaction is the single source of serialization truth; the cache is
// consulted for cheap pre-checks and written only after commit.
type TapService struct {
	db        *pgxpool.Pool
	cache     *cache.Cache
	cfg       config.GameConfig
	energy    *EnergyTracker
	users     *repository.UserRepository
	upgrades  *repository.UpgradeRepository
	taps      *repository.TapRepository
	referrals *repository.ReferralRepository
	notifier  Notifier
}

func NewTapService(db *pgxpool.Pool, c *cache.Cache, cfg config.GameConfig) *TapService {
	users := repository.NewUserRepository(db)
	upgrades := repository.NewUpgradeRepository(db)
	return &TapService{
		db:        db,
		cache:     c,
		cfg:       cfg,
		energy:    NewEnergyTracker(users, upgrades, c, cfg),
		users:     users,
		upgrades:  upgrades,
		taps:      repository.NewTapRepository(db),
		referrals: repository.NewReferralRepository(db),
	}
}

// SetNotifier attaches the live-feed hub. Optional.
func (s *TapService) SetNotifier(n Notifier) { s.notifier = n }

// Energy exposes the tracker for profile reads.
func (s *TapService) Energy() *EnergyTracker { return s.energy }

// tapReward computes base reward plus the bounded tap_power bonus.
func tapReward(base, maxBonus int64, tapPowerLevel int) int64 {
	bonus := int64(tapPowerLevel)
	if bonus > maxBonus {
		bonus = maxBonus
	}
	return base + bonus
}

// referralBonus computes the cascade credit for a tap, truncating to whole
// currency units.
func referralBonus(tapReward, percent int64) int64 {
	return tapReward * percent / 100
}

// ProcessTap handles one tap request for a user.
func (s *TapService) ProcessTap(ctx context.Context, userID int64) (*TapResult, error) {
	now := time.Now()

	// EnergyCheck: cache-first snapshot, durable fallback
	energy, lastTap, _, err := s.energy.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if energy <= 0 {
		TapsRejected.WithLabelValues("no_energy").Inc()
		return nil, ErrInsufficientEnergy
	}

	// RateCheck: cooldown, then sliding counter. Cheap, cache-only, and
	// always before any durable write.
	if lastTap != nil && now.Sub(*lastTap) < time.Duration(s.cfg.TapCooldownSeconds)*time.Second {
		TapsRejected.WithLabelValues("cooldown").Inc()
		return nil, ErrTapCooldown
	}
	if count, err := s.cache.IncrTapCount(ctx, userID, time.Minute); err == nil {
		if count > int64(s.cfg.MaxTapsPerMinute) {
			TapsRejected.WithLabelValues("rate_limited").Inc()
			return nil, ErrRateLimited
		}
	}

	// RewardCompute
	tapPower, err := s.upgrades.Level(ctx, userID, domain.UpgradeTapPower)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	reward := tapReward(s.cfg.BaseTapReward, s.cfg.MaxBonusReward, tapPower)

	// Commit + ReferralCascade: one atomic transaction. The energy
	// precondition is re-validated by the conditional UPDATE, closing the
	// check-then-act window against concurrent taps.
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, classifyStoreError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var newEnergy int
	var newBalance int64
	var invitedBy *int64
	err = tx.QueryRow(ctx,
		`UPDATE users
		 SET energy = energy - 1,
		     balance = balance + $1,
		     last_tap_time = $2
		 WHERE user_id = $3 AND energy > 0
		 RETURNING energy, balance, invited_by`,
		reward, now, userID,
	).Scan(&newEnergy, &newBalance, &invitedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			TapsRejected.WithLabelValues("no_energy").Inc()
			return nil, ErrInsufficientEnergy
		}
		return nil, classifyStoreError(err)
	}

	if err := s.taps.InsertTx(ctx, tx, userID, reward); err != nil {
		return nil, classifyStoreError(err)
	}

	var referrerID int64
	var referrerBalance int64
	var cascadePaid bool
	if invitedBy != nil && *invitedBy != userID && s.cfg.ReferralBonusTaps > 0 {
		referrerID = *invitedBy
		counted, err := s.referrals.IncrementTapCountTx(ctx, tx, userID, referrerID, s.cfg.ReferralBonusTaps)
		if err != nil {
			return nil, classifyStoreError(err)
		}
		if counted {
			if bonus := referralBonus(reward, s.cfg.ReferralBonusPercent); bonus > 0 {
				referrerBalance, err = s.users.CreditTx(ctx, tx, referrerID, bonus)
				if err != nil {
					return nil, classifyStoreError(err)
				}
				if err := s.referrals.InsertRewardTx(ctx, tx, referrerID, userID, bonus, reward); err != nil {
					return nil, classifyStoreError(err)
				}
				cascadePaid = true
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyStoreError(err)
	}

	TapsProcessed.Inc()
	if cascadePaid {
		ReferralBonuses.Inc()
	}

	// CacheSync: only after the authoritative commit. A crash here
	// self-heals on the next snapshot read.
	s.cache.SetEnergy(ctx, userID, newEnergy)
	s.cache.SetLastTap(ctx, userID, now)
	s.cache.UpdateScore(ctx, userID, newBalance)
	if cascadePaid {
		s.cache.UpdateScore(ctx, referrerID, referrerBalance)
	}

	if s.notifier != nil {
		s.notifier.Publish(userID, StateEvent{
			Type:    "tap",
			Balance: newBalance,
			Energy:  newEnergy,
			Reward:  reward,
		})
	}

	logger.Debug("tap committed", "user_id", userID, "reward", reward, "energy", newEnergy)

	return &TapResult{Reward: reward, Energy: newEnergy, Balance: newBalance}, nil
}
