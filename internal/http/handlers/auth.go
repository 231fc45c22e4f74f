package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"augustus_tap/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData     string `json:"init_data"`
	ReferralCode string `json:"referral_code"`
}

// Auth validates Telegram WebApp init_data, registers the user on first
// contact (applying a referral code if one was carried in) and issues a JWT.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	values, ok := service.ValidateTelegramInitData(req.InitData, h.Cfg.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
		return
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}

	userValues, _ := url.ParseQuery("user=" + userRaw)
	userJSON := userValues.Get("user")

	var tgUser struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.Unmarshal([]byte(userJSON), &tgUser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user json"})
		return
	}

	// start_param carries the ref_<id> deep-link payload
	referralCode := req.ReferralCode
	if referralCode == "" {
		referralCode = values.Get("start_param")
	}

	user, err := h.Users.Register(c.Request.Context(), tgUser.ID, tgUser.Username, tgUser.FirstName, tgUser.LastName, referralCode)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := service.GenerateJWT(user.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
