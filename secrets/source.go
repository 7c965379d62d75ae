// Package secrets отвечает за получение учетных данных конвейера
// из внешнего источника (переменные окружения или vault)
package secrets

import (
	"os"
	"strings"

	"github.com/LilVoxy/cargo_pipeline/models"
)

// Source представляет источник секретов
type Source interface {
	// Get возвращает значение секрета по ключу
	Get(key string) (string, error)
}

// EnvSource реализация Source поверх переменных окружения
type EnvSource struct {
	prefix string
}

// NewEnvSource создает новый экземпляр EnvSource.
// Ключ "warehouse_password" при префиксе "PIPELINE" превращается
// в переменную окружения PIPELINE_WAREHOUSE_PASSWORD
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix}
}

// Get возвращает значение секрета из переменной окружения
func (s *EnvSource) Get(key string) (string, error) {
	name := strings.ToUpper(key)
	if s.prefix != "" {
		name = strings.ToUpper(s.prefix) + "_" + name
	}

	value := os.Getenv(name)
	if value == "" {
		return "", &models.ConfigError{Key: name}
	}

	return value, nil
}
