package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/LilVoxy/cargo_pipeline/web"
)

func main() {
	// Параметры командной строки
	modePtr := flag.String("mode", "once", "Режим работы: once, silver, gold или scheduled")
	configPtr := flag.String("config", "", "Путь к YAML-файлу конфигурации")
	inputPtr := flag.String("input", "", "Имя входного манифеста в зоне приземления (переопределяет конфигурацию)")
	artifactPtr := flag.String("artifact", "", "Имя артефакта silver-слоя (только для режима gold)")

	flag.Parse()

	log.Println("Запуск Pipeline Runner в режиме:", *modePtr)

	switch *modePtr {
	case "once":
		RunOnce(*configPtr, *inputPtr)
	case "silver":
		RunSilver(*configPtr, *inputPtr)
	case "gold":
		RunGold(*configPtr, *artifactPtr)
	case "scheduled":
		RunScheduled(*configPtr, *inputPtr)
	default:
		log.Println("Неизвестный режим работы:", *modePtr)
		log.Println("Доступные режимы: once, silver, gold, scheduled")
		os.Exit(1)
	}

	log.Println("Pipeline Runner завершил работу")
}

// newRunner создает раннер, применяя переопределение входного объекта
func newRunner(ctx context.Context, configPath, input string) (*PipelineRunner, error) {
	runner, err := NewPipelineRunner(ctx, configPath)
	if err != nil {
		return nil, err
	}

	if input != "" {
		runner.config.Storage.InputObject = input
	}

	return runner, nil
}

// RunOnce выполняет один полный прогон конвейера
func RunOnce(configPath, input string) {
	ctx := context.Background()

	runner, err := newRunner(ctx, configPath, input)
	if err != nil {
		log.Fatalf("Ошибка при создании Pipeline Runner: %v", err)
	}
	defer runner.Close()

	if err := runner.ExecutePipeline(ctx); err != nil {
		log.Fatalf("Ошибка при выполнении прогона: %v", err)
	}
}

// RunSilver выполняет только silver-этап и печатает имя артефакта
func RunSilver(configPath, input string) {
	ctx := context.Background()

	runner, err := newRunner(ctx, configPath, input)
	if err != nil {
		log.Fatalf("Ошибка при создании Pipeline Runner: %v", err)
	}
	defer runner.Close()

	artifact, err := runner.ExecuteSilver(ctx)
	if err != nil {
		log.Fatalf("Ошибка при выполнении silver-этапа: %v", err)
	}

	if artifact == "" {
		log.Println("Артефакт не записан: нет новых данных")
		return
	}

	log.Println("Артефакт записан:", artifact)
}

// RunGold выполняет только gold-этап над указанным артефактом
func RunGold(configPath, artifact string) {
	if artifact == "" {
		log.Fatalf("Для режима gold требуется параметр -artifact")
	}

	ctx := context.Background()

	runner, err := NewPipelineRunner(ctx, configPath)
	if err != nil {
		log.Fatalf("Ошибка при создании Pipeline Runner: %v", err)
	}
	defer runner.Close()

	if err := runner.ExecuteGold(ctx, artifact); err != nil {
		log.Fatalf("Ошибка при выполнении gold-этапа: %v", err)
	}
}

// RunScheduled запускает конвейер по расписанию вместе с административным
// сервером и трансляцией прогресса
func RunScheduled(configPath, input string) {
	// Создаем контекст, который будет отменен при получении сигнала завершения
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов завершения
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		log.Println("⚠️ Получен сигнал завершения, останавливаем Pipeline Runner...")
		cancel()
	}()

	runner, err := newRunner(ctx, configPath, input)
	if err != nil {
		log.Fatalf("Ошибка при создании Pipeline Runner: %v", err)
	}
	defer runner.Close()

	// Подключаем трансляцию прогресса и административный сервер
	hub := web.NewHub(runner.logger)
	runner.SetProgress(hub)

	server := web.NewServer(runner.config.AdminPort, hub, runner.runLogRepo, runner.TriggerRun, runner.logger)
	server.Start()

	// Запускаем планировщик; блокируется до отмены контекста
	runner.StartScheduler(ctx)

	// Останавливаем административный сервер, дожидаясь активных запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Ошибка остановки административного сервера: %v", err)
	}

	log.Println("👋 Pipeline Runner остановлен")
}
