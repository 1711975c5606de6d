package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	"github.com/yourusername/quizdash-api/internal/handler/dto"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
	"github.com/yourusername/quizdash-api/internal/service/quizrun"
)

// SessionHandler обрабатывает жизненный цикл квиз-сессий
type SessionHandler struct {
	runner *quizrun.Runner
}

// NewSessionHandler создает новый обработчик сессий
func NewSessionHandler(runner *quizrun.Runner) *SessionHandler {
	return &SessionHandler{runner: runner}
}

// ListCategories возвращает доступные категории квиза
// GET /api/categories
func (h *SessionHandler) ListCategories(c *gin.Context) {
	categories := entity.AllCategories()
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, dto.CategoryResponse{
			ID:   string(cat),
			Name: cat.DisplayName(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": resp})
}

// Start запускает новую квиз-сессию по выбранным категориям
// POST /api/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	categories, ok := entity.ParseCategories(req.Categories)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category in request", "error_type": "validation"})
		return
	}

	session, err := h.runner.StartSession(currentUserID(c), categories)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session.Snapshot())
}

// Get возвращает текущее состояние сессии
// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.runner.GetSession(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// SubmitAnswer фиксирует ответ на текущий вопрос.
// Повторный ответ на уже заблокированный вопрос не меняет состояние:
// клиент получает актуальный снимок с раскрытым ответом.
// POST /api/sessions/:id/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	session, err := h.runner.GetSession(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.SubmitAnswer(req.Answer))
}

// Result возвращает итог завершенной сессии с оценкой
// GET /api/sessions/:id/result
func (h *SessionHandler) Result(c *gin.Context) {
	session, err := h.runner.GetSession(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	score, total, done := session.Result()
	if !done {
		respondError(c, fmt.Errorf("%w: session is not complete yet", apperrors.ErrConflict))
		return
	}

	grade := quizrun.CalculateGrade(score, total)
	c.JSON(http.StatusOK, gin.H{
		"session_id":      session.ID,
		"score":           score,
		"total_questions": total,
		"percentage":      grade.Percentage,
		"grade":           grade.Grade,
		"message":         grade.Message,
		"celebrate":       grade.Celebrate,
	})
}
