package handlers

import (
	"net/http"
	"time"

	"github.com/waste3d/coursehub/internal/application/usecase"
	"github.com/waste3d/coursehub/internal/middleware"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

const refreshTokenCookie = "refresh_token"

type CookieConfig struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthHandler struct {
	auth    *usecase.AuthUseCase
	cookies CookieConfig
	log     *logger.Logger
}

func NewAuthHandler(auth *usecase.AuthUseCase, cookies CookieConfig, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, log: log}
}

type registerReq struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, tokens, err := h.auth.Register(c, req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.setTokenCookies(c, tokens)
	c.JSON(http.StatusCreated, gin.H{
		"user":         user,
		"access_token": tokens.AccessToken,
	})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tokens, err := h.auth.Login(c, req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.setTokenCookies(c, tokens)
	c.JSON(http.StatusOK, gin.H{
		"access_token": tokens.AccessToken,
	})
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token not found"})
		return
	}

	tokens, err := h.auth.Refresh(c, refreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.setTokenCookies(c, tokens)
	c.JSON(http.StatusOK, gin.H{
		"access_token": tokens.AccessToken,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(refreshTokenCookie); err == nil {
		if err := h.auth.Logout(c, refreshToken); err != nil {
			h.log.Warn("logout: revoke refresh token failed", "error", err)
		}
	}

	c.SetCookie(refreshTokenCookie, "", -1, "/api/v1/auth", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.auth.Me(c, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, tokens usecase.Tokens) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, int(h.cookies.AccessTTL.Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, tokens.RefreshToken, int(h.cookies.RefreshTTL.Seconds()), "/api/v1/auth", h.cookies.Domain, h.cookies.Secure, true)
}
