package http

import (
	"os"
	"strconv"
	"time"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/http/handlers"
	"augustus_tap/internal/http/middleware"
	"augustus_tap/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, c *cache.Cache, cfg *config.Config, version string) {
	h := handlers.NewHandler(db, c, cfg)
	healthHandler := handlers.NewHealthHandler(db, c, version)

	// live feed for balance/energy pushes
	hub := ws.NewHub()
	h.Taps.SetNotifier(hub)
	h.Daily.SetNotifier(hub)
	h.Upgrades.SetNotifier(hub)

	// read limits from env, with safe defaults
	apiRateLimit := 120
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(c, apiRateLimit, apiRateWindow))

	// Auth
	v1.POST("/auth", middleware.RedisRateLimit(c, authRateLimit, authRateWindow), h.Auth)

	// User profile
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.GET("/profile", middleware.JWT(), h.Profile)

	// Tapping and energy
	v1.POST("/tap", middleware.JWT(), h.Tap)
	v1.GET("/energy", middleware.JWT(), h.EnergyInfo)

	// Upgrades
	upgrade := v1.Group("/upgrade")
	{
		upgrade.GET("/catalog", h.UpgradeCatalogInfo)
		upgrade.GET("/offers", middleware.JWT(), h.UpgradeOffers)
		upgrade.POST("/purchase", middleware.JWT(), h.PurchaseUpgrade)
	}

	// Daily reward
	daily := v1.Group("/daily")
	daily.Use(middleware.JWT())
	{
		daily.GET("/status", h.DailyStatus)
		daily.POST("/claim", h.DailyClaim)
	}

	// Referral system
	referral := v1.Group("/referral")
	referral.Use(middleware.JWT())
	{
		referral.GET("/link", h.ReferralLink)
		referral.GET("/stats", h.ReferralStats)
		referral.POST("/apply", h.ApplyReferral)
	}

	// Leaderboards
	v1.GET("/leaderboard", h.GetLeaderboard)
	v1.GET("/leaderboard/referrers", h.GetTopReferrers)
	v1.GET("/leaderboard/rank", middleware.JWT(), h.GetMyRank)

	// WebSocket live feed
	r.GET("/ws", h.WS(hub))
}
