package repository

import "time"

// CacheRepository определяет методы для работы с кешем (Redis).
// Используется для кеша лидерборда и блеклиста access-токенов.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Exists(key string) (bool, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
}
