package handlers

import (
	"errors"
	"net/http"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB    *pgxpool.Pool
	Cache *cache.Cache
	Cfg   *config.Config

	Users       *service.UserService
	Taps        *service.TapService
	Upgrades    *service.UpgradeService
	Daily       *service.DailyService
	Referrals   *service.ReferralService
	Leaderboard *service.LeaderboardService
}

func NewHandler(db *pgxpool.Pool, c *cache.Cache, cfg *config.Config) *Handler {
	referrals := service.NewReferralService(db, c, cfg.Game)
	return &Handler{
		DB:    db,
		Cache: c,
		Cfg:   cfg,

		Users:       service.NewUserService(db, c, cfg.Game, referrals),
		Taps:        service.NewTapService(db, c, cfg.Game),
		Upgrades:    service.NewUpgradeService(db, c, cfg.Game),
		Daily:       service.NewDailyService(db, c, cfg.Game),
		Referrals:   referrals,
		Leaderboard: service.NewLeaderboardService(db, c, cfg.Game),
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c interface{ Get(any) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// respondError translates the service error taxonomy into HTTP responses,
// keeping the specific rejection reason intact for the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTapCooldown),
		errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientEnergy),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrMaxLevelReached),
		errors.Is(err, service.ErrUnknownUpgrade),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrSelfReferral),
		errors.Is(err, service.ErrDuplicateReferral):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTransactionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
