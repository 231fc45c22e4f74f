package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"augustus_tap/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// Cache is the volatile state layer on top of Redis: energy snapshots,
// last-tap timestamps, tap-rate counters and the leaderboard ZSET.
// Everything here is a projection of the durable store. All reads report
// misses on any Redis error so callers fall back to the database; the
// game stays playable with a cold or absent cache.
type Cache struct {
	rdb *redis.Client
}

// Connect creates the shared Redis client. With an empty addr, or if the
// initial ping fails, a disabled cache is returned and every lookup is a miss.
func Connect(addr, password string, db int) *Cache {
	if addr == "" {
		logger.Warn("REDIS_ADDR not set, running without cache")
		return &Cache{}
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, running without cache", "error", err)
		return &Cache{}
	}

	logger.Info("redis connected", "addr", addr)
	return &Cache{rdb: rdb}
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return redis.ErrClosed
	}
	return c.rdb.Ping(ctx).Err()
}

func energyKey(userID int64) string     { return "energy:" + strconv.FormatInt(userID, 10) }
func lastTapKey(userID int64) string    { return "last_tap:" + strconv.FormatInt(userID, 10) }
func dailyClaimKey(userID int64) string { return "daily_claim:" + strconv.FormatInt(userID, 10) }
func tapCountKey(userID int64) string   { return "tap_count:" + strconv.FormatInt(userID, 10) }

const leaderboardKey = "leaderboard"

// GetEnergy returns the cached energy snapshot for a user.
func (c *Cache) GetEnergy(ctx context.Context, userID int64) (int, bool) {
	if !c.Enabled() {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, energyKey(userID)).Int()
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Cache) SetEnergy(ctx context.Context, userID int64, energy int) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, energyKey(userID), energy, 0).Err(); err != nil {
		logger.Warn("cache set energy failed", "user_id", userID, "error", err)
	}
}

// GetLastTap returns the cached last-tap timestamp.
func (c *Cache) GetLastTap(ctx context.Context, userID int64) (time.Time, bool) {
	if !c.Enabled() {
		return time.Time{}, false
	}
	ms, err := c.rdb.Get(ctx, lastTapKey(userID)).Int64()
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (c *Cache) SetLastTap(ctx context.Context, userID int64, t time.Time) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, lastTapKey(userID), t.UnixMilli(), 0).Err(); err != nil {
		logger.Warn("cache set last_tap failed", "user_id", userID, "error", err)
	}
}

func (c *Cache) GetLastDailyClaim(ctx context.Context, userID int64) (time.Time, bool) {
	if !c.Enabled() {
		return time.Time{}, false
	}
	ms, err := c.rdb.Get(ctx, dailyClaimKey(userID)).Int64()
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (c *Cache) SetLastDailyClaim(ctx context.Context, userID int64, t time.Time) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, dailyClaimKey(userID), t.UnixMilli(), 0).Err(); err != nil {
		logger.Warn("cache set daily_claim failed", "user_id", userID, "error", err)
	}
}

// InvalidateUser drops the per-user volatile keys so the next read rebuilds
// them from the durable store.
func (c *Cache) InvalidateUser(ctx context.Context, userID int64) {
	if !c.Enabled() {
		return
	}
	c.rdb.Del(ctx, energyKey(userID), lastTapKey(userID), dailyClaimKey(userID))
}

// IncrWindow atomically bumps a counter and arms the rolling window expiry on
// first increment. Returns the post-increment count.
func (c *Cache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !c.Enabled() {
		return 0, redis.ErrClosed
	}
	val, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		c.rdb.Expire(ctx, key, window)
	}
	return val, nil
}

// IncrTapCount advances the per-user tap-rate counter.
func (c *Cache) IncrTapCount(ctx context.Context, userID int64, window time.Duration) (int64, error) {
	return c.IncrWindow(ctx, tapCountKey(userID), window)
}

// ScoreEntry is one leaderboard ZSET member.
type ScoreEntry struct {
	UserID int64
	Score  int64
}

// UpdateScore upserts the user's leaderboard score (current balance).
func (c *Cache) UpdateScore(ctx context.Context, userID int64, score int64) {
	if !c.Enabled() {
		return
	}
	err := c.rdb.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(score),
		Member: strconv.FormatInt(userID, 10),
	}).Err()
	if err != nil {
		logger.Warn("cache leaderboard update failed", "user_id", userID, "error", err)
	}
}

// TopScores returns the highest-scored users, best first.
func (c *Cache) TopScores(ctx context.Context, limit int) ([]ScoreEntry, bool) {
	if !c.Enabled() {
		return nil, false
	}
	zs, err := c.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit)-1).Result()
	if err != nil || len(zs) == 0 {
		return nil, false
	}
	entries := make([]ScoreEntry, 0, len(zs))
	for _, z := range zs {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, ScoreEntry{UserID: id, Score: int64(z.Score)})
	}
	return entries, true
}

// Rank returns the user's 1-based leaderboard rank.
func (c *Cache) Rank(ctx context.Context, userID int64) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	rank, err := c.rdb.ZRevRank(ctx, leaderboardKey, strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		return 0, false
	}
	return rank + 1, true
}

// GetJSON reads a JSON-encoded cache entry into dst. Cached values are always
// structured encoding, never evaluated content.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// DeletePrefix removes all keys under the given prefix (cache invalidation).
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	if !c.Enabled() {
		return
	}
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.rdb.Del(ctx, keys...)
	}
}
