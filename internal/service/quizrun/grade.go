package quizrun

import "math"

// GradeResult — итоговая оценка завершенной сессии
type GradeResult struct {
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
	Message    string `json:"message"`
	// Celebrate включает праздничную анимацию на клиенте
	Celebrate bool `json:"celebrate"`
}

// CalculateGrade переводит счет в процент и буквенную оценку.
// Пороги включительные: 90+ A+, 80+ A, 70+ B, 60+ C, иначе D.
// Пустая сессия (total=0) дает 0% и оценку D.
func CalculateGrade(score, total int) GradeResult {
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(score) / float64(total) * 100))
	}

	var grade, message string
	switch {
	case percentage >= 90:
		grade = "A+"
		message = "Outstanding! You're a quiz master!"
	case percentage >= 80:
		grade = "A"
		message = "Excellent work!"
	case percentage >= 70:
		grade = "B"
		message = "Great job!"
	case percentage >= 60:
		grade = "C"
		message = "Good effort, keep practicing!"
	default:
		grade = "D"
		message = "Keep learning, you'll get there!"
	}

	return GradeResult{
		Percentage: percentage,
		Grade:      grade,
		Message:    message,
		Celebrate:  percentage >= 70,
	}
}
