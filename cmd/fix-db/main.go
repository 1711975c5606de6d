package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// Утилита для ручного восстановления состояния миграций.
// Используется, когда migrate застрял в dirty-состоянии после
// неудачного деплоя: принудительно выставляет версию схемы.
//
// Использование:
//
//	DATABASE_URL=postgres://... go run ./cmd/fix-db -version 1
func main() {
	version := flag.Int("version", -1, "версия схемы, которую нужно принудительно выставить")
	migrationsPath := flag.String("migrations", "migrations", "путь к каталогу миграций")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL не задан")
	}
	if *version < 0 {
		log.Fatal("Укажите -version (неотрицательное число)")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Ошибка подключения к БД: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("БД недоступна: %v", err)
	}

	driver, err := migratePostgres.WithInstance(db, &migratePostgres.Config{})
	if err != nil {
		log.Fatalf("Ошибка создания драйвера migrate: %v", err)
	}

	m, err := migrateV4.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", *migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Ошибка создания экземпляра migrate: %v", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrateV4.ErrNilVersion) {
		log.Fatalf("Ошибка чтения текущей версии: %v", err)
	}
	log.Printf("Текущее состояние: version=%d dirty=%t", currentVersion, dirty)

	if err := m.Force(*version); err != nil {
		log.Fatalf("Ошибка принудительной установки версии %d: %v", *version, err)
	}
	log.Printf("Версия схемы принудительно выставлена в %d, dirty-флаг снят", *version)
}
