package service

import (
	"context"
	"time"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DailyService pays the daily streak bonus. The streak is derived from the
// append-only claim log on every read; only the log rows are stored.
type DailyService struct {
	db       *pgxpool.Pool
	cache    *cache.Cache
	cfg      config.GameConfig
	users    *repository.UserRepository
	claims   *repository.DailyRepository
	notifier Notifier
}

func NewDailyService(db *pgxpool.Pool, c *cache.Cache, cfg config.GameConfig) *DailyService {
	return &DailyService{
		db:     db,
		cache:  c,
		cfg:    cfg,
		users:  repository.NewUserRepository(db),
		claims: repository.NewDailyRepository(db),
	}
}

func (s *DailyService) SetNotifier(n Notifier) { s.notifier = n }

// streakFromClaims counts consecutive calendar-day claims ending at the most
// recent one. Claims must be ordered newest first. The streak breaks at the
// first gap that is not exactly one day.
func streakFromClaims(claims []time.Time) int {
	if len(claims) == 0 {
		return 0
	}
	streak := 1
	for i := 0; i < len(claims)-1; i++ {
		if calendarDaysBetween(claims[i+1], claims[i]) == 1 {
			streak++
		} else {
			break
		}
	}
	return streak
}

// calendarDaysBetween returns the whole-day distance between two instants'
// UTC calendar dates.
func calendarDaysBetween(earlier, later time.Time) int {
	e := earlier.UTC().Truncate(24 * time.Hour)
	l := later.UTC().Truncate(24 * time.Hour)
	return int(l.Sub(e) / (24 * time.Hour))
}

// dailyAmount applies the streak multiplier with integer math only; repeated
// claims can never drift from rounding.
func dailyAmount(base int64, streak int, streakPercent int64) int64 {
	return base * (100 + int64(streak)*streakPercent) / 100
}

// DailyStatus is the claim-eligibility view for the presentation layer.
type DailyStatus struct {
	CanClaim    bool       `json:"can_claim"`
	Streak      int        `json:"streak"`
	NextAmount  int64      `json:"next_amount"`
	LastClaim   *time.Time `json:"last_claim,omitempty"`
	NextClaimAt *time.Time `json:"next_claim_at,omitempty"`
}

// CanClaim reports claim eligibility: no prior claim, or 24h elapsed since
// the most recent one. Cache-first on the last-claim timestamp.
func (s *DailyService) CanClaim(ctx context.Context, userID int64) (bool, *time.Time, error) {
	if last, ok := s.cache.GetLastDailyClaim(ctx, userID); ok {
		return time.Since(last) >= 24*time.Hour, &last, nil
	}

	last, err := s.claims.LastClaim(ctx, userID)
	if err != nil {
		return false, nil, classifyStoreError(err)
	}
	if last == nil {
		return true, nil, nil
	}
	s.cache.SetLastDailyClaim(ctx, userID, *last)
	return time.Since(*last) >= 24*time.Hour, last, nil
}

// Streak returns the user's current claim streak, capped at MaxStreak.
func (s *DailyService) Streak(ctx context.Context, userID int64) (int, error) {
	claims, err := s.claims.RecentClaims(ctx, userID, s.cfg.MaxStreak)
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return s.capStreak(streakFromClaims(claims)), nil
}

func (s *DailyService) capStreak(streak int) int {
	if streak > s.cfg.MaxStreak {
		return s.cfg.MaxStreak
	}
	return streak
}

// Status combines eligibility, streak and the projected next amount.
func (s *DailyService) Status(ctx context.Context, userID int64) (*DailyStatus, error) {
	canClaim, last, err := s.CanClaim(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak, err := s.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}

	st := &DailyStatus{
		CanClaim:   canClaim,
		Streak:     streak,
		NextAmount: dailyAmount(s.cfg.DailyBonusAmount, streak, s.cfg.StreakMultiplierPercent),
		LastClaim:  last,
	}
	if !canClaim && last != nil {
		next := last.Add(24 * time.Hour)
		st.NextClaimAt = &next
	}
	return st, nil
}

// ClaimResult is the successful outcome of a daily claim.
type ClaimResult struct {
	Amount  int64 `json:"amount"`
	Streak  int   `json:"streak"`
	Balance int64 `json:"balance"`
}

// Claim pays the daily bonus. Eligibility is re-validated inside the
// transaction after the user row lock is held, so two racing claims cannot
// both pay out.
func (s *DailyService) Claim(ctx context.Context, userID int64) (*ClaimResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, classifyStoreError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize concurrent claims on the user row.
	var balance int64
	if err := tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&balance); err != nil {
		return nil, classifyStoreError(err)
	}

	claims, err := s.claims.RecentClaimsTx(ctx, tx, userID, s.cfg.MaxStreak)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if len(claims) > 0 && time.Since(claims[0]) < 24*time.Hour {
		return nil, ErrAlreadyClaimed
	}

	streak := s.capStreak(streakFromClaims(claims))
	amount := dailyAmount(s.cfg.DailyBonusAmount, streak, s.cfg.StreakMultiplierPercent)

	claimedAt, err := s.claims.InsertTx(ctx, tx, userID, amount)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	newBalance, err := s.users.CreditTx(ctx, tx, userID, amount)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyStoreError(err)
	}

	s.cache.SetLastDailyClaim(ctx, userID, claimedAt)
	s.cache.UpdateScore(ctx, userID, newBalance)

	if s.notifier != nil {
		s.notifier.Publish(userID, StateEvent{Type: "daily", Balance: newBalance, Reward: amount})
	}

	// report the streak including the claim just inserted
	newStreak := 1
	if len(claims) > 0 && calendarDaysBetween(claims[0], claimedAt) == 1 {
		newStreak = s.capStreak(streak + 1)
	}
	return &ClaimResult{Amount: amount, Streak: newStreak, Balance: newBalance}, nil
}
