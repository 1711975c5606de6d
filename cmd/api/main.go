package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizdash-api/internal/config"
	"github.com/yourusername/quizdash-api/internal/handler"
	"github.com/yourusername/quizdash-api/internal/middleware"
	"github.com/yourusername/quizdash-api/internal/repository/postgres"
	redisrepo "github.com/yourusername/quizdash-api/internal/repository/redis"
	"github.com/yourusername/quizdash-api/internal/service"
	"github.com/yourusername/quizdash-api/internal/service/quizrun"
	"github.com/yourusername/quizdash-api/pkg/auth"
	"github.com/yourusername/quizdash-api/pkg/database"
)

func main() {
	// Загрузка конфигурации
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Подключение к PostgreSQL и применение миграций
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Ошибка применения миграций: %v", err)
	}

	// Подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer redisClient.Close()

	// Репозитории
	userRepo := postgres.NewUserRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)
	attemptRepo := postgres.NewAttemptRepo(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepo(db)
	verificationRepo := postgres.NewEmailVerificationRepo(db)
	cacheRepo, err := redisrepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Fatalf("Ошибка инициализации кеш-репозитория: %v", err)
	}

	// JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, cacheRepo)
	if err != nil {
		log.Fatalf("Ошибка инициализации JWT-сервиса: %v", err)
	}

	// Отправка писем: Resend при включенном подтверждении email, иначе noop
	var emailSender service.EmailSender
	if cfg.Auth.EmailVerificationEnabled {
		emailSender, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Fatalf("Ошибка инициализации email-сервиса: %v", err)
		}
	} else {
		emailSender = &service.NoopEmailService{}
	}

	// Корневой контекст: его отмена останавливает квиз-сессии и фоновые задачи
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Сервисы
	authService := service.NewAuthService(userRepo, refreshTokenRepo, verificationRepo, jwtService, emailSender,
		service.AuthServiceConfig{
			SessionLimit:             cfg.Auth.SessionLimit,
			RefreshTokenLifetime:     time.Duration(cfg.Auth.RefreshTokenLifetime) * time.Hour,
			EmailVerificationEnabled: cfg.Auth.EmailVerificationEnabled,
		})
	userService := service.NewUserService(userRepo, attemptRepo)
	questionService := service.NewQuestionService(questionRepo)
	leaderboardService := service.NewLeaderboardService(userRepo, cacheRepo,
		cfg.Quiz.LeaderboardSize, time.Duration(cfg.Quiz.LeaderboardCacheTTLSec)*time.Second)

	runner := quizrun.NewRunner(rootCtx, &quizrun.Config{
		QuestionLimit: cfg.Quiz.QuestionLimit,
		CountdownSec:  cfg.Quiz.CountdownSec,
		RevealDelay:   time.Duration(cfg.Quiz.RevealDelayMs) * time.Millisecond,
		CompletedTTL:  30 * time.Minute,
	}, &quizrun.Dependencies{
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
		UserRepo:     userRepo,
		Leaderboard:  leaderboardService,
	})

	// Фоновая очистка просроченных refresh-токенов
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				authService.CleanupRefreshTokens()
			}
		}
	}()

	// Обработчики
	allowedOrigins := corsOrigins()
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, leaderboardService)
	sessionHandler := handler.NewSessionHandler(runner)
	questionHandler := handler.NewQuestionHandler(questionService)
	wsHandler := handler.NewWSHandler(jwtService, runner, allowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Роутер
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "active_sessions": runner.ActiveCount()})
	})

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Register)
			authGroup.POST("/login", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Login)
			authGroup.POST("/refresh", rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()), authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware.RequireAuth(), authHandler.Logout)
			authGroup.POST("/verify-email", authMiddleware.RequireAuth(), authHandler.VerifyEmail)
			authGroup.POST("/resend-verification", authMiddleware.RequireAuth(),
				rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.ResendVerification)
		}

		// Публичные маршруты
		api.GET("/categories", sessionHandler.ListCategories)
		api.GET("/leaderboard", userHandler.Leaderboard)

		// Профиль
		users := api.Group("/users", authMiddleware.RequireAuth())
		{
			users.GET("/me", userHandler.Me)
			users.PATCH("/me", userHandler.UpdateMe)
			users.GET("/me/attempts", userHandler.MyAttempts)
		}

		// Квиз-сессии
		sessions := api.Group("/sessions", authMiddleware.RequireAuth())
		{
			sessions.POST("", sessionHandler.Start)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.POST("/:id/answer", sessionHandler.SubmitAnswer)
			sessions.GET("/:id/result", sessionHandler.Result)
		}

		// Админ-панель банка вопросов
		admin := api.Group("/admin", authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.GET("/questions", questionHandler.List)
			admin.POST("/questions", questionHandler.Create)
			admin.GET("/questions/export", questionHandler.Export)
			questionByID := admin.Group("/questions/:id", middleware.ExtractUintParam("id", "question_id"))
			{
				questionByID.GET("", questionHandler.Get)
				questionByID.PUT("", questionHandler.Update)
				questionByID.DELETE("", questionHandler.Delete)
			}
		}
	}

	// Поток событий сессии
	router.GET("/ws", wsHandler.Stream)

	// HTTP-сервер с graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("[Server] Запуск на порту %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("[Server] Получен сигнал остановки, завершаем работу...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Ошибка graceful shutdown: %v", err)
	}
	log.Println("[Server] Сервер остановлен")
}

// corsOrigins возвращает разрешенные источники из CORS_ALLOWED_ORIGINS
// (список через запятую) или значения по умолчанию для локальной разработки
func corsOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"http://localhost:5173", "http://localhost:3000"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
