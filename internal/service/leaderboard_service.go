package service

import (
	"context"
	"strconv"
	"time"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardEntry is one row of a rendered leaderboard.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Balance   int64  `json:"balance"`
	Referrals int    `json:"referrals"`
}

// LeaderboardService serves balance and referral rankings. Hot paths go
// through the cache (ZSET rank, JSON-encoded top lists with TTL); every
// answer can be rebuilt from the durable store when the cache is cold.
type LeaderboardService struct {
	cache *cache.Cache
	cfg   config.GameConfig
	users *repository.UserRepository
}

func NewLeaderboardService(db *pgxpool.Pool, c *cache.Cache, cfg config.GameConfig) *LeaderboardService {
	return &LeaderboardService{
		cache: c,
		cfg:   cfg,
		users: repository.NewUserRepository(db),
	}
}

func (s *LeaderboardService) ttl() time.Duration {
	return time.Duration(s.cfg.LeaderboardCacheTTLSeconds) * time.Second
}

// TopByBalance returns the richest users, best first.
func (s *LeaderboardService) TopByBalance(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	key := "leaderboard:top_users:" + strconv.Itoa(limit)

	var cached []LeaderboardEntry
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	users, err := s.users.GetTopByBalance(ctx, limit)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:      i + 1,
			UserID:    u.UserID,
			Username:  u.Username,
			Balance:   u.Balance,
			Referrals: u.Referrals,
		})
	}

	s.cache.SetJSON(ctx, key, entries, s.ttl())
	return entries, nil
}

// TopReferrers returns users ranked by referral count.
func (s *LeaderboardService) TopReferrers(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	key := "leaderboard:top_referrers:" + strconv.Itoa(limit)

	var cached []LeaderboardEntry
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	users, err := s.users.GetTopReferrers(ctx, limit)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:      i + 1,
			UserID:    u.UserID,
			Username:  u.Username,
			Balance:   u.Balance,
			Referrals: u.Referrals,
		})
	}

	s.cache.SetJSON(ctx, key, entries, s.ttl())
	return entries, nil
}

// Rank returns the user's 1-based balance rank, ZSET-first with an SQL
// fallback.
func (s *LeaderboardService) Rank(ctx context.Context, userID int64) (int, error) {
	if rank, ok := s.cache.Rank(ctx, userID); ok {
		return int(rank), nil
	}

	rank, err := s.users.BalanceRank(ctx, userID)
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return rank, nil
}

// Invalidate drops the cached top lists, e.g. after backfills.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	s.cache.DeletePrefix(ctx, "leaderboard:top_")
}
