package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validQuestion() Question {
	return Question{
		Text:          "What does CPU stand for?",
		OptionA:       "Central Processing Unit",
		OptionB:       "Computer Personal Unit",
		OptionC:       "Central Program Utility",
		OptionD:       "Core Processing Unit",
		CorrectAnswer: "A",
		Category:      CategoryOS,
	}
}

func TestQuestion_IsCorrect(t *testing.T) {
	q := validQuestion()

	assert.True(t, q.IsCorrect("A"), "точное совпадение метки должно засчитываться")
	assert.False(t, q.IsCorrect("B"), "неверная метка не должна засчитываться")
	assert.False(t, q.IsCorrect(""), "пустая метка не должна засчитываться")
	assert.False(t, q.IsCorrect("a"), "сравнение меток регистрозависимое")
}

func TestQuestion_Option(t *testing.T) {
	q := validQuestion()

	text, ok := q.Option("C")
	assert.True(t, ok)
	assert.Equal(t, "Central Program Utility", text)

	_, ok = q.Option("E")
	assert.False(t, ok, "неизвестная метка должна возвращать ok=false")
}

func TestQuestion_Validate_Valid(t *testing.T) {
	q := validQuestion()
	assert.NoError(t, q.Validate())
}

func TestQuestion_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Question)
	}{
		{"пустой текст", func(q *Question) { q.Text = "   " }},
		{"пустой вариант B", func(q *Question) { q.OptionB = "" }},
		{"неизвестная метка ответа", func(q *Question) { q.CorrectAnswer = "E" }},
		{"пустая метка ответа", func(q *Question) { q.CorrectAnswer = "" }},
		{"неизвестная категория", func(q *Question) { q.Category = "history" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			assert.Error(t, q.Validate())
		})
	}
}

func TestParseCategories(t *testing.T) {
	// Дубликаты схлопываются, порядок сохраняется
	cats, ok := ParseCategories([]string{"os", "ai", "os", "dsa"})
	assert.True(t, ok)
	assert.Equal(t, []Category{CategoryOS, CategoryAI, CategoryDSA}, cats)

	// Неизвестный тег отклоняет весь список
	_, ok = ParseCategories([]string{"os", "history"})
	assert.False(t, ok)

	// Пустой вход дает пустой результат без ошибки
	cats, ok = ParseCategories(nil)
	assert.True(t, ok)
	assert.Empty(t, cats)
}

func TestAllCategories_HaveDisplayNames(t *testing.T) {
	for _, cat := range AllCategories() {
		assert.True(t, cat.IsValid())
		assert.NotEmpty(t, cat.DisplayName(), "категория %s должна иметь название", cat)
	}
}
