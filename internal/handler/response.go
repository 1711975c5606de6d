package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// respondError транслирует ошибки приложения в HTTP-статусы.
// Неизвестные ошибки логируются и отдаются как 500 без деталей.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "token_expired"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrNoQuestions):
		// Клиент показывает "no questions" и возвращает на выбор категорий
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "no_questions"})
	default:
		log.Printf("[Handler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal"})
	}
}

// currentUserID извлекает user_id, установленный AuthMiddleware
func currentUserID(c *gin.Context) uint {
	return c.GetUint("user_id")
}
