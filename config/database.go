package config

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/LilVoxy/cargo_pipeline/models"
)

// ConnectWarehouse устанавливает подключение к хранилищу gold-слоя
func ConnectWarehouse(config PipelineConfig) (*sql.DB, error) {
	// Подключение к целевой базе данных
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		config.Warehouse.User,
		config.Warehouse.Password,
		config.Warehouse.Host,
		config.Warehouse.Port,
		config.Warehouse.DBName,
	)

	db, err := sql.Open(config.Warehouse.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к хранилищу gold-слоя: %w", err)
	}

	// Настройка параметров пула соединений
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &models.ConnectionError{Target: "хранилищу gold-слоя", Err: err}
	}

	log.Println("Успешное подключение к хранилищу gold-слоя")
	return db, nil
}

// CloseWarehouse закрывает подключение к хранилищу gold-слоя
func CloseWarehouse(db *sql.DB) {
	if db == nil {
		return
	}

	if err := db.Close(); err != nil {
		log.Printf("Ошибка при закрытии соединения с хранилищем gold-слоя: %v", err)
		return
	}

	log.Println("Соединение с хранилищем gold-слоя закрыто")
}
