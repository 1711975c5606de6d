package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizdash-api/internal/handler/dto"
	"github.com/yourusername/quizdash-api/internal/service"
	"github.com/yourusername/quizdash-api/pkg/auth"
)

// AuthHandler обрабатывает запросы регистрации, входа и управления токенами
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register обрабатывает регистрацию нового пользователя
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	user, err := h.authService.Register(req.Username, req.Email, req.Password, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.NewUserResponse(user)
	c.JSON(http.StatusCreated, gin.H{"user": resp})
}

// Login обрабатывает вход и выдает пару токенов
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	pair, user, err := h.authService.Login(req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	userResp := dto.NewUserResponse(user)
	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         &userResp,
	})
}

// Refresh ротирует refresh-токен
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	pair, err := h.authService.Refresh(req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Logout отзывает refresh-токен и блеклистит access-токен
// POST /api/auth/logout (требует аутентификации)
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	// Тело опционально: logout без refresh-токена блеклистит только access
	_ = c.ShouldBindJSON(&req)

	claimsValue, exists := c.Get("claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.authService.Logout(claimsValue.(*auth.Claims), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// VerifyEmail проверяет код подтверждения email
// POST /api/auth/verify-email (требует аутентификации)
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	if err := h.authService.VerifyEmail(currentUserID(c), req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// ResendVerification выпускает новый код подтверждения
// POST /api/auth/resend-verification (требует аутентификации)
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	if err := h.authService.ResendVerificationCode(currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}
