package handlers

import (
	"net/http"

	"github.com/cupost/cupost-api/config"
	"github.com/cupost/cupost-api/internal/models"
	"github.com/gin-gonic/gin"
)

// ConfigHandler exposes the public captcha configuration for the web client.
type ConfigHandler struct {
	captcha config.CaptchaConfig
}

func NewConfigHandler(captcha config.CaptchaConfig) *ConfigHandler {
	return &ConfigHandler{captcha: captcha}
}

// GetConfig handles GET /config. Static data, no side effects.
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, models.ConfigResponse{
		Captcha: h.captcha.Mode,
		SiteKey: h.captcha.SiteKey(),
	})
}
