package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/LilVoxy/cargo_pipeline/config"
	"github.com/LilVoxy/cargo_pipeline/gold"
	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/secrets"
	"github.com/LilVoxy/cargo_pipeline/silver"
	"github.com/LilVoxy/cargo_pipeline/storage"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// PipelineRunner управляет прогонами конвейера silver → gold
type PipelineRunner struct {
	config     config.PipelineConfig
	db         *sql.DB
	store      storage.BlobStore
	logger     *utils.PipelineLogger
	runLogRepo models.RunLogRepository
	progress   models.ProgressSink

	// runMu сериализует прогоны: перекрывающиеся тики планировщика
	// и ручные запуски не выполняются параллельно
	runMu sync.Mutex
}

// NewPipelineRunner создает новый экземпляр PipelineRunner
func NewPipelineRunner(ctx context.Context, configPath string) (*PipelineRunner, error) {
	// Получаем конфигурацию
	pipelineConfig, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	// Инициализируем логгер
	logger := utils.NewPipelineLogger(pipelineConfig.EnableDetailedLogging)
	logger.Info("Инициализация Pipeline Runner")

	// Пароль хранилища не хранится в конфигурации, а берется
	// из источника секретов
	if pipelineConfig.Warehouse.Password == "" {
		source, err := newSecretSource(pipelineConfig.Secrets)
		if err != nil {
			return nil, err
		}

		password, err := source.Get("warehouse_password")
		if err != nil {
			return nil, err
		}
		pipelineConfig.Warehouse.Password = password
	}

	// Подключаемся к хранилищу gold-слоя
	db, err := config.ConnectWarehouse(pipelineConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к хранилищу: %w", err)
	}

	// Инициализируем журнал запусков
	runLogRepo := models.NewMySQLRunLogRepository(db)
	if err := runLogRepo.CreateRunLogTable(); err != nil {
		return nil, fmt.Errorf("ошибка при создании таблицы журнала запусков: %w", err)
	}

	// Подключаемся к объектному хранилищу
	store, err := newBlobStore(ctx, pipelineConfig.Storage)
	if err != nil {
		return nil, err
	}

	return &PipelineRunner{
		config:     pipelineConfig,
		db:         db,
		store:      store,
		logger:     logger,
		runLogRepo: runLogRepo,
		progress:   models.NopProgress{},
	}, nil
}

// newSecretSource создает источник секретов по конфигурации
func newSecretSource(cfg config.SecretsConfig) (secrets.Source, error) {
	switch cfg.Backend {
	case "vault":
		return secrets.NewVaultSource(cfg.VaultPath)
	default:
		return secrets.NewEnvSource(cfg.EnvPrefix), nil
	}
}

// newBlobStore создает объектное хранилище по конфигурации
func newBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, error) {
	switch cfg.Backend {
	case "local":
		return storage.NewLocalStore(cfg.LocalRoot), nil
	default:
		return storage.NewGCSStore(ctx, cfg.Bucket)
	}
}

// SetProgress подключает получателя событий прогресса
func (r *PipelineRunner) SetProgress(progress models.ProgressSink) {
	r.progress = progress
}

// Close закрывает соединения с хранилищами
func (r *PipelineRunner) Close() {
	r.logger.Info("Завершение работы Pipeline Runner")
	config.CloseWarehouse(r.db)

	if closer, ok := r.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			r.logger.Error("Ошибка при закрытии объектного хранилища: %v", err)
		}
	}
}

// ExecutePipeline выполняет полный прогон конвейера silver → gold.
// Вызов блокируется, пока не завершится текущий прогон
func (r *PipelineRunner) ExecutePipeline(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	return r.executePipeline(ctx)
}

// TriggerRun запускает прогон конвейера в фоне.
// Если прогон уже выполняется, возвращает ErrRunInProgress
func (r *PipelineRunner) TriggerRun() error {
	if !r.runMu.TryLock() {
		return models.ErrRunInProgress
	}

	go func() {
		defer r.runMu.Unlock()
		r.logger.Info("Ручной запуск конвейера")
		if err := r.executePipeline(context.Background()); err != nil {
			r.logger.Error("Ошибка при выполнении ручного прогона: %v", err)
		}
	}()

	return nil
}

// executePipeline выполняет один прогон конвейера под уже взятым runMu
func (r *PipelineRunner) executePipeline(ctx context.Context) error {
	runID := uuid.New().String()
	startTime := time.Now()
	r.logger.LogRunStart(runID)

	// Создаем запись в журнале запусков; без записи прогон не выполняется
	logID, err := r.runLogRepo.CreateLogEntry(runID, startTime)
	if err != nil {
		r.logger.Error("Ошибка при создании записи в журнале запусков: %v", err)
		return fmt.Errorf("ошибка при создании записи в журнале запусков: %w", err)
	}

	inputObject, err := r.inputObject()
	if err != nil {
		r.failRun(logID, err.Error())
		return err
	}

	// 1. Silver-этап
	silverStage := silver.NewStage(&r.config, r.store, r.logger, r.progress)
	silverResult, err := silverStage.Run(ctx, runID, inputObject)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка на silver-этапе: %v", err)
		if silverResult != nil && silverResult.Artifact != "" {
			errMsg = fmt.Sprintf("%s (артефакт %s записан)", errMsg, silverResult.Artifact)
		}
		r.logger.Error("%s", errMsg)
		r.failRun(logID, errMsg)
		return fmt.Errorf("ошибка на silver-этапе: %w", err)
	}

	// Пустой батч: артефакт не записан, gold-этап не нужен
	if silverResult.Artifact == "" {
		r.successRun(logID, startTime, silverResult, &gold.Result{})
		return nil
	}

	// 2. Gold-этап
	goldStage := gold.NewStage(&r.config, r.store, r.db, r.logger, r.progress)
	goldResult, err := goldStage.Run(ctx, runID, silverResult.Artifact)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка на gold-этапе: %v (артефакт %s записан)", err, silverResult.Artifact)
		r.logger.Error("%s", errMsg)
		r.failRun(logID, errMsg)
		return fmt.Errorf("ошибка на gold-этапе: %w", err)
	}

	r.successRun(logID, startTime, silverResult, goldResult)
	r.publish(runID, 100, "прогон завершен")

	return nil
}

// ExecuteSilver выполняет только silver-этап и возвращает имя артефакта
func (r *PipelineRunner) ExecuteSilver(ctx context.Context) (string, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	runID := uuid.New().String()
	startTime := time.Now()
	r.logger.LogRunStart(runID)

	logID, err := r.runLogRepo.CreateLogEntry(runID, startTime)
	if err != nil {
		r.logger.Error("Ошибка при создании записи в журнале запусков: %v", err)
		return "", fmt.Errorf("ошибка при создании записи в журнале запусков: %w", err)
	}

	inputObject, err := r.inputObject()
	if err != nil {
		r.failRun(logID, err.Error())
		return "", err
	}

	silverStage := silver.NewStage(&r.config, r.store, r.logger, r.progress)
	silverResult, err := silverStage.Run(ctx, runID, inputObject)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка на silver-этапе: %v", err)
		if silverResult != nil && silverResult.Artifact != "" {
			errMsg = fmt.Sprintf("%s (артефакт %s записан)", errMsg, silverResult.Artifact)
		}
		r.logger.Error("%s", errMsg)
		r.failRun(logID, errMsg)
		return "", fmt.Errorf("ошибка на silver-этапе: %w", err)
	}

	r.successRun(logID, startTime, silverResult, &gold.Result{})

	return silverResult.Artifact, nil
}

// ExecuteGold выполняет только gold-этап над указанным артефактом
func (r *PipelineRunner) ExecuteGold(ctx context.Context, artifact string) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	runID := uuid.New().String()
	startTime := time.Now()
	r.logger.LogRunStart(runID)

	logID, err := r.runLogRepo.CreateLogEntry(runID, startTime)
	if err != nil {
		r.logger.Error("Ошибка при создании записи в журнале запусков: %v", err)
		return fmt.Errorf("ошибка при создании записи в журнале запусков: %w", err)
	}

	goldStage := gold.NewStage(&r.config, r.store, r.db, r.logger, r.progress)
	goldResult, err := goldStage.Run(ctx, runID, artifact)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка на gold-этапе: %v", err)
		r.logger.Error("%s", errMsg)
		r.failRun(logID, errMsg)
		return fmt.Errorf("ошибка на gold-этапе: %w", err)
	}

	silverResult := &silver.Result{Artifact: artifact}
	r.successRun(logID, startTime, silverResult, goldResult)

	return nil
}

// inputObject возвращает полное имя входного объекта в зоне приземления
func (r *PipelineRunner) inputObject() (string, error) {
	if r.config.Storage.InputObject == "" {
		err := &models.ConfigError{Key: "storage.input_object"}
		r.logger.Error("%v", err)
		return "", err
	}

	return r.config.Storage.LandingPrefix + r.config.Storage.InputObject, nil
}

// successRun обновляет запись в журнале при успешном завершении прогона
func (r *PipelineRunner) successRun(logID int, startTime time.Time, silverResult *silver.Result, goldResult *gold.Result) {
	if err := r.runLogRepo.UpdateLogEntrySuccess(
		logID,
		time.Now(),
		silverResult.RowsExtracted,
		silverResult.RowsCleaned,
		silverResult.RowsEnriched,
		goldResult.SummaryGroups,
		silverResult.Artifact); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале запусков: %v", err)
	}

	r.logger.LogRunComplete(startTime, silverResult.RowsEnriched, goldResult.SummaryGroups)
}

// failRun обновляет запись в журнале при ошибке прогона
func (r *PipelineRunner) failRun(logID int, errorMessage string) {
	if err := r.runLogRepo.UpdateLogEntryFailure(logID, time.Now(), errorMessage); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале запусков: %v", err)
	}
}

func (r *PipelineRunner) publish(runID string, percent int, message string) {
	r.progress.Publish(models.ProgressEvent{
		RunID:     runID,
		Stage:     "run",
		Percent:   percent,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// StartScheduler запускает планировщик для регулярного выполнения прогонов
func (r *PipelineRunner) StartScheduler(ctx context.Context) {
	scheduler := gocron.NewScheduler(time.UTC)

	r.logger.Info("Запуск планировщика конвейера с интервалом %v", r.config.RunInterval())

	_, err := scheduler.Every(r.config.RunInterval()).Do(func() {
		r.logger.Info("Запланированный запуск конвейера")
		if err := r.ExecutePipeline(context.Background()); err != nil {
			r.logger.Error("Ошибка при выполнении запланированного прогона: %v", err)
		}
	})

	if err != nil {
		r.logger.Error("Ошибка при настройке планировщика: %v", err)
		return
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик; выполняющийся прогон завершается
	scheduler.Stop()
	r.logger.Info("Планировщик конвейера остановлен")
}
