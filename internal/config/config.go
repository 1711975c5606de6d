package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Email    EmailConfig
	Quiz     QuizConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single' (для обратной совместимости).
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// AuthConfig содержит настройки аутентификации
type AuthConfig struct {
	SessionLimit             int  `mapstructure:"sessionLimit"`
	RefreshTokenLifetime     int  `mapstructure:"refreshTokenLifetime"` // в часах
	EmailVerificationEnabled bool `mapstructure:"emailVerificationEnabled"`
}

// EmailConfig содержит настройки отправки писем через Resend
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// QuizConfig содержит настройки квиз-сессий и лидерборда
type QuizConfig struct {
	// QuestionLimit — максимум вопросов, выбираемых на одну сессию
	QuestionLimit int `mapstructure:"questionLimit"`
	// CountdownSec — таймер на один вопрос в секундах
	CountdownSec int `mapstructure:"countdownSec"`
	// RevealDelayMs — пауза показа правильного ответа перед переходом к следующему вопросу
	RevealDelayMs int `mapstructure:"revealDelayMs"`
	// LeaderboardSize — количество профилей в лидерборде
	LeaderboardSize int `mapstructure:"leaderboardSize"`
	// LeaderboardCacheTTLSec — TTL кеша лидерборда в Redis
	LeaderboardCacheTTLSec int `mapstructure:"leaderboardCacheTtlSec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию для квиза: 20 вопросов, 15 секунд на вопрос,
	// 1.5 секунды показа ответа, топ-10 лидерборда
	vip.SetDefault("quiz.questionLimit", 20)
	vip.SetDefault("quiz.countdownSec", 15)
	vip.SetDefault("quiz.revealDelayMs", 1500)
	vip.SetDefault("quiz.leaderboardSize", 10)
	vip.SetDefault("quiz.leaderboardCacheTtlSec", 30)
	vip.SetDefault("auth.sessionLimit", 5)
	vip.SetDefault("auth.refreshTokenLifetime", 720)
	vip.SetDefault("jwt.expirationHrs", 24)
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 15)
	vip.SetDefault("server.writeTimeout", 15)

	// 2. Привязываем переменные окружения ЯВНО
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	// Привязка для секции Auth
	vip.BindEnv("auth.sessionLimit", "AUTH_SESSIONLIMIT")
	vip.BindEnv("auth.refreshTokenLifetime", "AUTH_REFRESHTOKENLIFETIME")
	vip.BindEnv("auth.emailVerificationEnabled", "AUTH_EMAIL_VERIFICATION_ENABLED")

	// Привязка для секции Email
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// Привязка для Quiz
	vip.BindEnv("quiz.questionLimit", "QUIZ_QUESTIONLIMIT")
	vip.BindEnv("quiz.countdownSec", "QUIZ_COUNTDOWNSEC")
	vip.BindEnv("quiz.revealDelayMs", "QUIZ_REVEALDELAYMS")

	// 3. Устанавливаем путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// 4. Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 5. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Port: %s", cfg.Database.Port)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("Email Verification Enabled: %t", cfg.Auth.EmailVerificationEnabled)
		log.Printf("Quiz Question Limit: %d", cfg.Quiz.QuestionLimit)
		log.Printf("Quiz Countdown Sec: %d", cfg.Quiz.CountdownSec)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 7. Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Auth.EmailVerificationEnabled && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("email verification is enabled but RESEND_API_KEY is not set")
	}
	if cfg.Quiz.CountdownSec <= 0 || cfg.Quiz.QuestionLimit <= 0 {
		return nil, fmt.Errorf("quiz configuration is invalid: countdownSec and questionLimit must be positive")
	}

	return &cfg, nil
}
