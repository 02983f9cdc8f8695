package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(as *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var dto domain.LoginUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrAuthDisabled):
			fail(c, http.StatusServiceUnavailable, err.Error())
		default:
			_ = c.Error(err)
			fail(c, http.StatusInternalServerError, "เข้าสู่ระบบไม่สำเร็จ")
		}
		return
	}
	c.JSON(http.StatusOK, authResponse)
}

// fail writes the {"success": false, "error": ...} envelope.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}
