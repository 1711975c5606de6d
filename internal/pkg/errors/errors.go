package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен (например, refresh) истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (например, дубликат email
	// или username при регистрации).
	ErrConflict = errors.New("resource state conflict")

	// ErrNoQuestions используется, когда по выбранным категориям не нашлось ни
	// одного вопроса. Клиент трактует это как возврат на шаг выбора категорий.
	ErrNoQuestions = errors.New("no questions available for selected categories")
)
