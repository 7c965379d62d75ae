package models

import (
	"errors"
	"fmt"
)

// ConfigError означает отсутствие обязательного ключа конфигурации
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("отсутствует обязательный ключ конфигурации: %s", e.Key)
}

// ConnectionError означает недоступность внешней системы (БД, хранилище, vault)
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("не удалось подключиться к %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// MissingColumnError означает отсутствие обязательной колонки в манифесте после очистки
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("обязательная колонка отсутствует в манифесте: %s", e.Column)
}

// ParseError означает неразборчивый формат табличных данных целиком
// (построчные ошибки разбора до этого типа не доходят — они гасятся
// резервными значениями на уровне резолверов)
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ошибка разбора данных из %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExternalIOError означает сбой операции чтения/записи/копирования/удаления во внешнем хранилище
type ExternalIOError struct {
	Op     string
	Object string
	Err    error
}

func (e *ExternalIOError) Error() string {
	return fmt.Sprintf("ошибка операции %s для объекта %s: %v", e.Op, e.Object, e.Err)
}

func (e *ExternalIOError) Unwrap() error { return e.Err }

// ErrRunInProgress возвращается при попытке запустить прогон, когда предыдущий еще не завершен
var ErrRunInProgress = errors.New("прогон конвейера уже выполняется")
