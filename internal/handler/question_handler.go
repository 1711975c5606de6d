package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizdash-api/internal/handler/dto"
	"github.com/yourusername/quizdash-api/internal/service"
)

// QuestionHandler обрабатывает админ-операции над банком вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// List возвращает весь банк вопросов
// GET /api/admin/questions
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.questionService.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.QuestionAdminResponse, 0, len(questions))
	for i := range questions {
		resp = append(resp, dto.NewQuestionAdminResponse(&questions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"questions": resp, "total": len(resp)})
}

// Get возвращает вопрос по ID
// GET /api/admin/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	id := c.GetUint("question_id")

	question, err := h.questionService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionAdminResponse(question))
}

// Create добавляет новый вопрос
// POST /api/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	question := req.ToEntity()
	if err := h.questionService.Create(question); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuestionAdminResponse(question))
}

// Update заменяет содержимое вопроса
// PUT /api/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id := c.GetUint("question_id")

	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation"})
		return
	}

	question, err := h.questionService.Update(id, req.ToEntity())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionAdminResponse(question))
}

// Delete удаляет вопрос из банка
// DELETE /api/admin/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id := c.GetUint("question_id")

	if err := h.questionService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// Export выгружает банк вопросов в CSV или XLSX
// GET /api/admin/questions/export?format=csv|xlsx
func (h *QuestionHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be 'csv' or 'xlsx'", "error_type": "validation"})
		return
	}

	questions, err := h.questionService.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]dto.QuestionAdminResponse, 0, len(questions))
	for i := range questions {
		rows = append(rows, dto.NewQuestionAdminResponse(&questions[i]))
	}

	filename := fmt.Sprintf("questions_%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "csv" {
		h.exportCSV(c, rows)
		return
	}
	h.exportXLSX(c, rows)
}

var exportHeader = []string{"ID", "Question", "Option A", "Option B", "Option C", "Option D", "Correct Answer", "Category", "Created At"}

func (h *QuestionHandler) exportCSV(c *gin.Context, questions []dto.QuestionAdminResponse) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	for _, q := range questions {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(q.ID), 10),
			sanitizeForExcel(q.Text),
			sanitizeForExcel(q.OptionA),
			sanitizeForExcel(q.OptionB),
			sanitizeForExcel(q.OptionC),
			sanitizeForExcel(q.OptionD),
			q.CorrectAnswer,
			q.Category,
			q.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}

func (h *QuestionHandler) exportXLSX(c *gin.Context, questions []dto.QuestionAdminResponse) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Questions"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
	}

	for row, q := range questions {
		values := []interface{}{
			q.ID,
			sanitizeForExcel(q.Text),
			sanitizeForExcel(q.OptionA),
			sanitizeForExcel(q.OptionB),
			sanitizeForExcel(q.OptionC),
			sanitizeForExcel(q.OptionD),
			q.CorrectAnswer,
			q.Category,
			q.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		respondError(c, fmt.Errorf("failed to write xlsx: %w", err))
	}
}

// sanitizeForExcel нейтрализует formula injection: ячейки, начинающиеся
// с =, +, - или @, Excel трактует как формулы
func sanitizeForExcel(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	if strings.HasPrefix(value, "\t") || strings.HasPrefix(value, "\r") {
		return "'" + value
	}
	return value
}
