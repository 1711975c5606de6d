package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Роли пользователей. Роль admin выдается вручную на уровне БД и
// только читается этим сервисом для доступа к админ-панели.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет профиль пользователя: отображаемое имя, аватар
// и накопленный счет за все пройденные квизы.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email           string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password        string     `gorm:"size:100;not null" json:"-"`
	Avatar          string     `gorm:"size:16;not null;default:'🦊'" json:"avatar"`
	TotalScore      int64      `gorm:"not null;default:0;index:idx_users_total_score" json:"total_score"`
	Role            string     `gorm:"size:20;not null;default:'user'" json:"-"` // "user" или "admin"
	EmailVerifiedAt *time.Time `gorm:"type:timestamp" json:"email_verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// IsAdmin возвращает true, если пользователю выдана роль admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	// Хешируем пароль только если он:
	// 1. Не пустой
	// 2. Не является уже bcrypt-хешем (начинается с "$2a$", "$2b$" или "$2y$")
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
