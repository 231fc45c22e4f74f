package handlers

import (
	"net/http"

	"augustus_tap/internal/service"

	"github.com/gin-gonic/gin"
)

// ReferralLink returns the user's bot deep link.
func (h *Handler) ReferralLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"link":          h.Referrals.Link(h.Cfg.BotUsername, userID),
		"bonus":         h.Cfg.Game.ReferralBonus,
		"bonus_percent": h.Cfg.Game.ReferralBonusPercent,
		"bonus_taps":    h.Cfg.Game.ReferralBonusTaps,
	})
}

// ReferralStats returns counters and total cascade earnings.
func (h *Handler) ReferralStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.Referrals.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	referred, err := h.Referrals.Referred(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":    stats,
		"referred": referred,
	})
}

type ApplyReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyReferral binds the authenticated user to a referrer after the fact.
// Rejected for self-referral and for already-referred users.
func (h *Handler) ApplyReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	referrerID := service.ParseReferralCode(req.Code)
	if referrerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referral code"})
		return
	}

	if err := h.Referrals.Register(c.Request.Context(), referrerID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied": true, "referrer_id": referrerID})
}
