package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/domain"
	"augustus_tap/internal/repository"
	"augustus_tap/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func testDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return db
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MaxEnergy:          100,
		EnergyRegenMinutes: 5,
		BaseTapReward:      5,
		MaxBonusReward:     5,

		ReferralBonusPercent: 20,
		ReferralBonusTaps:    100,
		ReferralBonus:        10,

		TaxPercent: 10,

		TapCooldownSeconds: 0, // no cooldown so tests can tap back to back
		MaxTapsPerMinute:   1000,

		DailyBonusAmount:        50,
		StreakMultiplierPercent: 10,
		MaxStreak:               7,
	}
}

// fresh ids per run so reruns against the same database stay independent
func newUserID() int64 {
	return time.Now().UnixNano() % 1_000_000_000_000
}

func createUser(t *testing.T, db *pgxpool.Pool, energy int) int64 {
	t.Helper()
	id := newUserID()
	users := repository.NewUserRepository(db)
	if _, err := users.Upsert(context.Background(), id, "itest", "Test", "", energy); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func setBalance(t *testing.T, db *pgxpool.Pool, userID, balance int64) {
	t.Helper()
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET balance = $1 WHERE user_id = $2`, balance, userID); err != nil {
		t.Fatalf("set balance: %v", err)
	}
}

// setEnergyState pins energy with a regen baseline; without last_tap_time a
// user reads as never-tapped and holds full energy.
func setEnergyState(t *testing.T, db *pgxpool.Pool, userID int64, energy int) {
	t.Helper()
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET energy = $1, last_tap_time = now() WHERE user_id = $2`, energy, userID); err != nil {
		t.Fatalf("set energy state: %v", err)
	}
}

func TestTapDrainsEnergyAndCreditsBalance(t *testing.T) {
	db := testDB(t)
	cfg := testGameConfig()
	taps := service.NewTapService(db, cache.Connect("", "", 0), cfg)
	ctx := context.Background()

	userID := createUser(t, db, 3)
	setEnergyState(t, db, userID, 3)

	var balance int64
	for i := 0; i < 3; i++ {
		res, err := taps.ProcessTap(ctx, userID)
		if err != nil {
			t.Fatalf("tap %d: %v", i, err)
		}
		if res.Reward != cfg.BaseTapReward {
			t.Fatalf("tap %d reward = %d; want %d", i, res.Reward, cfg.BaseTapReward)
		}
		if res.Energy != 2-i {
			t.Fatalf("tap %d energy = %d; want %d", i, res.Energy, 2-i)
		}
		balance = res.Balance
	}
	if balance != 3*cfg.BaseTapReward {
		t.Fatalf("balance = %d; want %d", balance, 3*cfg.BaseTapReward)
	}

	if _, err := taps.ProcessTap(ctx, userID); !errors.Is(err, service.ErrInsufficientEnergy) {
		t.Fatalf("expected ErrInsufficientEnergy, got %v", err)
	}
}

func TestReferralRegisterAndCascade(t *testing.T) {
	db := testDB(t)
	cfg := testGameConfig()
	c := cache.Connect("", "", 0)
	referrals := service.NewReferralService(db, c, cfg)
	taps := service.NewTapService(db, c, cfg)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	referrerID := createUser(t, db, 10)
	referredID := createUser(t, db, 10)

	if err := referrals.Register(ctx, referrerID, referredID); err != nil {
		t.Fatalf("register referral: %v", err)
	}

	// one-time signup credit
	ref, err := users.GetByID(ctx, referrerID)
	if err != nil {
		t.Fatalf("get referrer: %v", err)
	}
	if ref.Balance != cfg.ReferralBonus {
		t.Fatalf("referrer balance = %d; want %d", ref.Balance, cfg.ReferralBonus)
	}
	if ref.Referrals != 1 {
		t.Fatalf("referrer count = %d; want 1", ref.Referrals)
	}

	// duplicate edge rejected
	if err := referrals.Register(ctx, referrerID, referredID); !errors.Is(err, service.ErrDuplicateReferral) {
		t.Fatalf("expected ErrDuplicateReferral, got %v", err)
	}
	// self referral rejected
	if err := referrals.Register(ctx, referrerID, referrerID); !errors.Is(err, service.ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}

	// each tap of the referred user cascades 20% of the reward
	if _, err := taps.ProcessTap(ctx, referredID); err != nil {
		t.Fatalf("referred tap: %v", err)
	}
	wantCascade := cfg.BaseTapReward * cfg.ReferralBonusPercent / 100

	ref, err = users.GetByID(ctx, referrerID)
	if err != nil {
		t.Fatalf("get referrer: %v", err)
	}
	if ref.Balance != cfg.ReferralBonus+wantCascade {
		t.Fatalf("referrer balance = %d; want %d", ref.Balance, cfg.ReferralBonus+wantCascade)
	}

	stats, err := referrals.Stats(ctx, referrerID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalReferrals != 1 || stats.TotalEarned != wantCascade {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestReferralCascadeStopsAtCap(t *testing.T) {
	db := testDB(t)
	cfg := testGameConfig()
	cfg.ReferralBonusTaps = 2
	c := cache.Connect("", "", 0)
	referrals := service.NewReferralService(db, c, cfg)
	taps := service.NewTapService(db, c, cfg)
	users := repository.NewUserRepository(db)
	refRepo := repository.NewReferralRepository(db)
	ctx := context.Background()

	referrerID := createUser(t, db, 10)
	referredID := createUser(t, db, 10)

	if err := referrals.Register(ctx, referrerID, referredID); err != nil {
		t.Fatalf("register referral: %v", err)
	}

	perTap := cfg.BaseTapReward * cfg.ReferralBonusPercent / 100
	for i := 0; i < 4; i++ {
		if _, err := taps.ProcessTap(ctx, referredID); err != nil {
			t.Fatalf("tap %d: %v", i, err)
		}
	}

	// only the first two taps were bonus-eligible
	ref, err := users.GetByID(ctx, referrerID)
	if err != nil {
		t.Fatalf("get referrer: %v", err)
	}
	want := cfg.ReferralBonus + 2*perTap
	if ref.Balance != want {
		t.Fatalf("referrer balance = %d; want %d", ref.Balance, want)
	}

	// the counter itself stops at the cap
	count, err := refRepo.TapCount(ctx, referredID, referrerID)
	if err != nil {
		t.Fatalf("tap count: %v", err)
	}
	if count != cfg.ReferralBonusTaps {
		t.Fatalf("tap count = %d; want %d", count, cfg.ReferralBonusTaps)
	}

	left, err := referrals.BonusTapsLeft(ctx, referredID, referrerID)
	if err != nil {
		t.Fatalf("bonus taps left: %v", err)
	}
	if left != 0 {
		t.Fatalf("bonus taps left = %d; want 0", left)
	}
}

func TestConcurrentTapsNeverOverdraw(t *testing.T) {
	db := testDB(t)
	cfg := testGameConfig()
	taps := service.NewTapService(db, cache.Connect("", "", 0), cfg)
	ctx := context.Background()

	userID := createUser(t, db, 1)
	setEnergyState(t, db, userID, 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = taps.ProcessTap(ctx, userID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, service.ErrInsufficientEnergy) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d; want exactly 1", successes)
	}

	var energy int
	var balance int64
	if err := db.QueryRow(ctx,
		`SELECT energy, balance FROM users WHERE user_id = $1`, userID,
	).Scan(&energy, &balance); err != nil {
		t.Fatalf("read user: %v", err)
	}
	if energy != 0 {
		t.Fatalf("energy = %d; want 0", energy)
	}
	if balance != cfg.BaseTapReward {
		t.Fatalf("balance = %d; want %d (one credited tap)", balance, cfg.BaseTapReward)
	}

	var tapRows int
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM taps WHERE user_id = $1`, userID,
	).Scan(&tapRows); err != nil {
		t.Fatalf("count taps: %v", err)
	}
	if tapRows != 1 {
		t.Fatalf("tap rows = %d; want 1", tapRows)
	}
}

// A cached snapshot that diverged from the store (for example a crash between
// commit and cache sync) must heal from the durable side on the next read; the
// stale cached energy must never be written back into the ledger.
func TestStaleCacheSnapshotHealsFromStore(t *testing.T) {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	db := testDB(t)
	cfg := testGameConfig()
	c := cache.Connect(redisAddr, os.Getenv("REDIS_PASSWORD"), 15)
	if !c.Enabled() {
		t.Fatalf("cache did not connect to %s", redisAddr)
	}
	t.Cleanup(func() { c.Close() })
	tracker := service.NewTapService(db, c, cfg).Energy()
	ctx := context.Background()

	userID := createUser(t, db, 10)
	setEnergyState(t, db, userID, 4) // a tap just committed energy=4

	// cache missed the sync: pre-tap energy with a baseline old enough to
	// owe regen
	c.SetEnergy(ctx, userID, 5)
	c.SetLastTap(ctx, userID, time.Now().Add(-30*time.Minute))

	energy, _, _, err := tracker.Snapshot(ctx, userID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if energy != 4 {
		t.Fatalf("energy = %d; want 4 (recomputed from the store)", energy)
	}

	var stored int
	if err := db.QueryRow(ctx,
		`SELECT energy FROM users WHERE user_id = $1`, userID,
	).Scan(&stored); err != nil {
		t.Fatalf("read energy: %v", err)
	}
	if stored != 4 {
		t.Fatalf("stored energy = %d; want 4 untouched", stored)
	}

	// the cache was refreshed from the store, not the other way around
	if cached, ok := c.GetEnergy(ctx, userID); !ok || cached != 4 {
		t.Fatalf("cached energy = (%d, %v); want (4, true)", cached, ok)
	}
}

func TestDailyClaimOncePerDay(t *testing.T) {
	db := testDB(t)
	cfg := testGameConfig()
	daily := service.NewDailyService(db, cache.Connect("", "", 0), cfg)
	ctx := context.Background()

	userID := createUser(t, db, 10)

	res, err := daily.Claim(ctx, userID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Amount != cfg.DailyBonusAmount {
		t.Fatalf("amount = %d; want %d", res.Amount, cfg.DailyBonusAmount)
	}
	if res.Streak != 1 {
		t.Fatalf("streak = %d; want 1", res.Streak)
	}
	if res.Balance != cfg.DailyBonusAmount {
		t.Fatalf("balance = %d; want %d", res.Balance, cfg.DailyBonusAmount)
	}

	if _, err := daily.Claim(ctx, userID); !errors.Is(err, service.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	st, err := daily.Status(ctx, userID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.CanClaim {
		t.Fatal("expected CanClaim=false right after a claim")
	}
	if st.NextClaimAt == nil {
		t.Fatal("expected NextClaimAt to be set")
	}
}

func TestUpgradePurchase(t *testing.T) {
	db := testDB(t)
	cfg := testGameConfig()
	upgrades := service.NewUpgradeService(db, cache.Connect("", "", 0), cfg)
	ctx := context.Background()

	userID := createUser(t, db, 10)
	setBalance(t, db, userID, 500)

	res, err := upgrades.Purchase(ctx, userID, domain.UpgradeTapPower)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if res.NewLevel != 1 {
		t.Fatalf("level = %d; want 1", res.NewLevel)
	}
	if res.Paid != 110 { // 100 cost + 10% tax
		t.Fatalf("paid = %d; want 110", res.Paid)
	}
	if res.Balance != 390 {
		t.Fatalf("balance = %d; want 390", res.Balance)
	}

	// second level costs more
	res, err = upgrades.Purchase(ctx, userID, domain.UpgradeTapPower)
	if err != nil {
		t.Fatalf("purchase level 2: %v", err)
	}
	if res.NewLevel != 2 || res.Paid != 165 { // 150 + 15 tax
		t.Fatalf("got level=%d paid=%d; want level=2 paid=165", res.NewLevel, res.Paid)
	}

	// broke user is rejected with no mutation
	if _, err := upgrades.Purchase(ctx, userID, domain.UpgradeTapPower); !errors.Is(err, service.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if _, err := upgrades.Purchase(ctx, userID, "warp_drive"); !errors.Is(err, service.ErrUnknownUpgrade) {
		t.Fatalf("expected ErrUnknownUpgrade, got %v", err)
	}
}

func TestTapPowerRaisesReward(t *testing.T) {
	db := testDB(t)
	cfg := testGameConfig()
	c := cache.Connect("", "", 0)
	upgrades := service.NewUpgradeService(db, c, cfg)
	taps := service.NewTapService(db, c, cfg)
	ctx := context.Background()

	userID := createUser(t, db, 10)
	setBalance(t, db, userID, 1000)

	if _, err := upgrades.Purchase(ctx, userID, domain.UpgradeTapPower); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	res, err := taps.ProcessTap(ctx, userID)
	if err != nil {
		t.Fatalf("tap: %v", err)
	}
	if res.Reward != cfg.BaseTapReward+1 {
		t.Fatalf("reward = %d; want %d", res.Reward, cfg.BaseTapReward+1)
	}
}
