package dto

import (
	"time"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// RegisterRequest — запрос регистрации
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Avatar   string `json:"avatar" binding:"omitempty,max=16"`
}

// LoginRequest — запрос входа
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — запрос ротации refresh-токена
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest — запрос выхода; refresh-токен опционален
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// VerifyEmailRequest — запрос подтверждения email
type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

// UpdateProfileRequest — запрос обновления профиля
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=50"`
	Avatar   string `json:"avatar" binding:"omitempty,max=16"`
}

// UserResponse — профиль пользователя в ответах API
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Avatar        string    `json:"avatar"`
	TotalScore    int64     `json:"total_score"`
	EmailVerified bool      `json:"email_verified"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewUserResponse создает UserResponse из сущности
func NewUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Avatar:        user.Avatar,
		TotalScore:    user.TotalScore,
		EmailVerified: user.EmailVerifiedAt != nil,
		IsAdmin:       user.IsAdmin(),
		CreatedAt:     user.CreatedAt,
	}
}

// AuthResponse — ответ login/refresh: пара токенов и профиль
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user,omitempty"`
}
