package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizdash-api/internal/handler/dto"
	"github.com/yourusername/quizdash-api/internal/service"
)

// UserHandler обрабатывает запросы профиля, истории попыток и лидерборда
type UserHandler struct {
	userService        *service.UserService
	leaderboardService *service.LeaderboardService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService *service.UserService, leaderboardService *service.LeaderboardService) *UserHandler {
	return &UserHandler{
		userService:        userService,
		leaderboardService: leaderboardService,
	}
}

// Me возвращает профиль текущего пользователя
// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// UpdateMe обновляет имя и аватар текущего пользователя
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	user, err := h.userService.UpdateProfile(currentUserID(c), req.Username, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// MyAttempts возвращает историю попыток текущего пользователя
// GET /api/users/me/attempts?limit=&offset=
func (h *UserHandler) MyAttempts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	attempts, err := h.userService.GetAttempts(currentUserID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		resp = append(resp, dto.NewAttemptResponse(&attempts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"attempts": resp})
}

// Leaderboard возвращает топ пользователей по накопленному счету
// GET /api/leaderboard (публичный)
func (h *UserHandler) Leaderboard(c *gin.Context) {
	entries, err := h.leaderboardService.GetTop()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
