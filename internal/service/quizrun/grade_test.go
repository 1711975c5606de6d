package quizrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateGrade_Boundaries(t *testing.T) {
	tests := []struct {
		name          string
		score         int
		total         int
		wantPercent   int
		wantGrade     string
		wantCelebrate bool
	}{
		{"идеальный результат", 20, 20, 100, "A+", true},
		{"ровно 90", 18, 20, 90, "A+", true},
		{"ровно 80", 16, 20, 80, "A", true},
		{"ровно 70", 14, 20, 70, "B", true},
		{"чуть ниже 70", 13, 20, 65, "C", false},
		{"ровно 60", 12, 20, 60, "C", false},
		{"ниже 60", 5, 20, 25, "D", false},
		{"ноль правильных", 0, 20, 0, "D", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateGrade(tt.score, tt.total)

			assert.Equal(t, tt.wantPercent, result.Percentage)
			assert.Equal(t, tt.wantGrade, result.Grade)
			assert.Equal(t, tt.wantCelebrate, result.Celebrate, "празднование включается от 70%%")
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestCalculateGrade_EmptySession(t *testing.T) {
	// Деление на ноль недопустимо: пустая сессия дает 0% и D
	result := CalculateGrade(0, 0)

	assert.Equal(t, 0, result.Percentage)
	assert.Equal(t, "D", result.Grade)
	assert.False(t, result.Celebrate)
}

func TestCalculateGrade_Rounding(t *testing.T) {
	// 2/3 = 66.67% -> округляется до 67, что все еще C
	result := CalculateGrade(2, 3)
	assert.Equal(t, 67, result.Percentage)
	assert.Equal(t, "C", result.Grade)

	// 7/10 ровно на границе празднования
	result = CalculateGrade(7, 10)
	assert.Equal(t, 70, result.Percentage)
	assert.Equal(t, "B", result.Grade)
	assert.True(t, result.Celebrate)
}
