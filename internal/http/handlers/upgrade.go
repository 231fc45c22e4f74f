package handlers

import (
	"net/http"

	"augustus_tap/internal/domain"

	"github.com/gin-gonic/gin"
)

// UpgradeCatalogInfo returns the static upgrade catalog.
func (h *Handler) UpgradeCatalogInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"upgrades":    domain.UpgradeCatalog,
		"tax_percent": h.Cfg.Game.TaxPercent,
	})
}

// UpgradeOffers lists the catalog with the user's levels and next prices.
func (h *Handler) UpgradeOffers(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	offers, err := h.Upgrades.Offers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

type PurchaseRequest struct {
	Type string `json:"type" binding:"required"`
}

// PurchaseUpgrade buys one level of an upgrade.
func (h *Handler) PurchaseUpgrade(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.Upgrades.Purchase(c.Request.Context(), userID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
