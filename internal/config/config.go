package config

import (
	"os"
	"strconv"

	"augustus_tap/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	BotUsername string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Game GameConfig
}

// GameConfig holds the economy knobs. Static for process lifetime.
type GameConfig struct {
	MaxEnergy          int
	EnergyRegenMinutes int
	BaseTapReward      int64
	MaxBonusReward     int64

	ReferralBonusPercent int64 // per-tap cascade, % of the tap reward
	ReferralBonusTaps    int64 // bonus-eligible tap cap per referral
	ReferralBonus        int64 // one-time credit at registration

	TaxPercent int64 // purchase tax, % of cost

	TapCooldownSeconds int
	MaxTapsPerMinute   int

	DailyBonusAmount        int64
	StreakMultiplierPercent int64 // bonus % per streak day
	MaxStreak               int

	LeaderboardCacheTTLSeconds int
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	botUsername := os.Getenv("BOT_USERNAME")
	if botUsername == "" {
		botUsername = "AugustusTapBot" // ! если не установлено в env !
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		BotToken:    botToken,
		BotUsername: botUsername,
		JWTSecret:   jwtSecret,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		Game: GameConfig{
			MaxEnergy:          envInt("MAX_ENERGY", 100),
			EnergyRegenMinutes: envInt("ENERGY_REGEN_MINUTES", 5),
			BaseTapReward:      envInt64("BASE_TAP_REWARD", 1),
			MaxBonusReward:     envInt64("MAX_BONUS_REWARD", 5),

			ReferralBonusPercent: envInt64("REFERRAL_BONUS_PERCENT", 20),
			ReferralBonusTaps:    envInt64("REFERRAL_BONUS_TAPS", 100),
			ReferralBonus:        envInt64("REFERRAL_BONUS", 10),

			TaxPercent: envInt64("TAX_PERCENT", 10),

			TapCooldownSeconds: envInt("TAP_COOLDOWN_SECONDS", 1),
			MaxTapsPerMinute:   envInt("MAX_TAPS_PER_MINUTE", 60),

			DailyBonusAmount:        envInt64("DAILY_BONUS_AMOUNT", 50),
			StreakMultiplierPercent: envInt64("STREAK_MULTIPLIER_PERCENT", 10),
			MaxStreak:               envInt("MAX_STREAK", 7),

			LeaderboardCacheTTLSeconds: envInt("LEADERBOARD_CACHE_TTL_SECONDS", 300),
		},
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
