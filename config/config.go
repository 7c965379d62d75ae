package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LilVoxy/cargo_pipeline/models"
)

// PipelineConfig содержит конфигурацию конвейера обработки манифестов
type PipelineConfig struct {
	// Конфигурация объектного хранилища (входные манифесты, silver-артефакты, резервные копии)
	Storage StorageConfig `yaml:"storage"`

	// Конфигурация справочных таблиц
	Reference ReferenceConfig `yaml:"reference"`

	// Конфигурация для подключения к хранилищу gold-слоя (целевому)
	Warehouse DatabaseConfig `yaml:"warehouse"`

	// Конфигурация источника секретов
	Secrets SecretsConfig `yaml:"secrets"`

	// Интервал запуска конвейера в минутах (для режима scheduled)
	RunIntervalMinutes int `yaml:"run_interval_minutes"`

	// Порт административного HTTP-сервера
	AdminPort int `yaml:"admin_port"`

	// Обязательные колонки манифеста; батч проецируется ровно на этот набор
	RequiredColumns []string `yaml:"required_columns"`

	// Включение/отключение детального логирования
	EnableDetailedLogging bool `yaml:"enable_detailed_logging"`
}

// StorageConfig содержит настройки объектного хранилища
type StorageConfig struct {
	// Бэкенд хранилища: "gcs" или "local"
	Backend string `yaml:"backend"`

	// Имя бакета (для gcs)
	Bucket string `yaml:"bucket"`

	// Корневой каталог (для local)
	LocalRoot string `yaml:"local_root"`

	// Префикс зоны приземления сырых манифестов
	LandingPrefix string `yaml:"landing_prefix"`

	// Префикс зоны silver-артефактов
	SilverPrefix string `yaml:"silver_prefix"`

	// Префикс зоны резервных копий обработанных манифестов
	BackupPrefix string `yaml:"backup_prefix"`

	// Имя входного объекта в зоне приземления
	InputObject string `yaml:"input_object"`
}

// ReferenceConfig содержит имена объектов справочных таблиц
type ReferenceConfig struct {
	DimensionsObject string `yaml:"dimensions_object"`
	AveragesObject   string `yaml:"averages_object"`
	PortsObject      string `yaml:"ports_object"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`

	// Префикс таблиц сырых выгрузок по портам отгрузки
	RawTablePrefix string `yaml:"raw_table_prefix"`

	// Имя фиксированной сводной таблицы
	SummaryTable string `yaml:"summary_table"`
}

// SecretsConfig содержит настройки источника секретов
type SecretsConfig struct {
	// Бэкенд секретов: "env" или "vault"
	Backend string `yaml:"backend"`

	// Префикс переменных окружения (для env)
	EnvPrefix string `yaml:"env_prefix"`

	// Путь KV-хранилища (для vault)
	VaultPath string `yaml:"vault_path"`
}

// Значения конфигурации по умолчанию
var (
	DefaultStorageConfig = StorageConfig{
		Backend:       "gcs",
		Bucket:        "cargo-manifests",
		LocalRoot:     "./data",
		LandingPrefix: "landing/",
		SilverPrefix:  "silver/",
		BackupPrefix:  "backup/",
	}

	DefaultReferenceConfig = ReferenceConfig{
		DimensionsObject: "reference/model_dimensions.csv",
		AveragesObject:   "reference/model_averages.csv",
		PortsObject:      "reference/port_continents.csv",
	}

	DefaultWarehouseConfig = DatabaseConfig{
		Driver:         "mysql",
		Host:           "localhost",
		Port:           3306,
		User:           "root",
		Password:       "",
		DBName:         "cargo_gold",
		RawTablePrefix: "shipments_",
		SummaryTable:   "port_segment_summary",
	}

	DefaultSecretsConfig = SecretsConfig{
		Backend:   "env",
		EnvPrefix: "PIPELINE",
		VaultPath: "secret/data/cargo-pipeline",
	}

	// Канонический набор обязательных колонок манифеста
	DefaultRequiredColumns = []string{
		"Order_No", "Sender", "Model", "Units", "CBM",
		"Length", "Width", "Height", "Weight",
		"DeliveryDate", "ProductionDate",
		"Load_Port", "Discharge_Port", "Segment",
	}

	DefaultPipelineConfig = PipelineConfig{
		Storage:               DefaultStorageConfig,
		Reference:             DefaultReferenceConfig,
		Warehouse:             DefaultWarehouseConfig,
		Secrets:               DefaultSecretsConfig,
		RunIntervalMinutes:    360,
		AdminPort:             8080,
		EnableDetailedLogging: true,
	}
)

// GetConfig возвращает конфигурацию конвейера по умолчанию
func GetConfig() PipelineConfig {
	config := DefaultPipelineConfig
	config.RequiredColumns = append([]string(nil), DefaultRequiredColumns...)
	return config
}

// LoadConfig загружает конфигурацию: значения по умолчанию,
// поверх которых накладывается YAML-файл (если путь задан)
func LoadConfig(path string) (PipelineConfig, error) {
	config := GetConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("ошибка при чтении файла конфигурации %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("ошибка при разборе файла конфигурации %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// RunInterval возвращает интервал запуска конвейера как time.Duration
func (c PipelineConfig) RunInterval() time.Duration {
	return time.Duration(c.RunIntervalMinutes) * time.Minute
}

// Validate проверяет наличие обязательных ключей конфигурации
func (c PipelineConfig) Validate() error {
	if c.Storage.Backend == "gcs" && c.Storage.Bucket == "" {
		return &models.ConfigError{Key: "storage.bucket"}
	}
	if c.Storage.Backend == "local" && c.Storage.LocalRoot == "" {
		return &models.ConfigError{Key: "storage.local_root"}
	}
	if c.Reference.DimensionsObject == "" {
		return &models.ConfigError{Key: "reference.dimensions_object"}
	}
	if c.Reference.AveragesObject == "" {
		return &models.ConfigError{Key: "reference.averages_object"}
	}
	if c.Reference.PortsObject == "" {
		return &models.ConfigError{Key: "reference.ports_object"}
	}
	if c.Warehouse.Host == "" {
		return &models.ConfigError{Key: "warehouse.host"}
	}
	if c.Warehouse.User == "" {
		return &models.ConfigError{Key: "warehouse.user"}
	}
	if c.Warehouse.DBName == "" {
		return &models.ConfigError{Key: "warehouse.dbname"}
	}
	if len(c.RequiredColumns) == 0 {
		return &models.ConfigError{Key: "required_columns"}
	}
	return nil
}
