package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Tap runs one tap through the processor and returns the reward and
// remaining energy, or the specific rejection reason.
func (h *Handler) Tap(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.Taps.ProcessTap(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// EnergyInfo returns the live energy snapshot without consuming anything.
func (h *Handler) EnergyInfo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	energy, lastTap, maxEnergy, err := h.Taps.Energy().Snapshot(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"energy":        energy,
		"max_energy":    maxEnergy,
		"last_tap_time": lastTap,
		"regen_minutes": h.Cfg.Game.EnergyRegenMinutes,
	})
}
