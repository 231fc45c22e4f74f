package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func leaderboardLimit(c *gin.Context) int {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return limit
}

// GetLeaderboard returns the top users by balance.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	top, err := h.Leaderboard.TopByBalance(c.Request.Context(), leaderboardLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// GetTopReferrers returns the top users by referral count.
func (h *Handler) GetTopReferrers(c *gin.Context) {
	top, err := h.Leaderboard.TopReferrers(c.Request.Context(), leaderboardLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// GetMyRank returns the authenticated user's balance rank.
func (h *Handler) GetMyRank(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rank, err := h.Leaderboard.Rank(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rank": rank})
}
