package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// PipelineLogger представляет логгер для конвейера обработки манифестов
type PipelineLogger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	isVerbose   bool
	echoStdout  bool
}

// NewPipelineLogger создает новый экземпляр логгера конвейера
func NewPipelineLogger(verbose bool) *PipelineLogger {
	// Создаем или открываем лог-файл для записи
	currentTime := time.Now().Format("2006-01-02")
	logFileName := fmt.Sprintf("pipeline_log_%s.log", currentTime)

	file, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Не удалось открыть или создать файл лога: %v", err)
	}

	// Инициализируем логгеры для разных уровней
	infoLogger := log.New(file, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger := log.New(file, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	debugLogger := log.New(file, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)

	return &PipelineLogger{
		infoLogger:  infoLogger,
		errorLogger: errorLogger,
		debugLogger: debugLogger,
		isVerbose:   verbose,
		echoStdout:  true,
	}
}

// NewWriterLogger возвращает логгер, пишущий все уровни в указанный
// приемник без дублирования в стандартный вывод
func NewWriterLogger(w io.Writer, verbose bool) *PipelineLogger {
	l := log.New(w, "", 0)

	return &PipelineLogger{
		infoLogger:  l,
		errorLogger: l,
		debugLogger: l,
		isVerbose:   verbose,
	}
}

// NewDiscardLogger возвращает логгер, отбрасывающий весь вывод.
// Используется в тестах
func NewDiscardLogger() *PipelineLogger {
	return NewWriterLogger(io.Discard, false)
}

// Info логирует информационное сообщение
func (l *PipelineLogger) Info(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.infoLogger.Println(msg)

	// Также выводим в стандартный вывод
	if l.echoStdout {
		log.Println("INFO:", msg)
	}
}

// Error логирует сообщение об ошибке
func (l *PipelineLogger) Error(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.errorLogger.Println(msg)

	// Также выводим в стандартный вывод
	if l.echoStdout {
		log.Println("ERROR:", msg)
	}
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *PipelineLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}

	msg := fmt.Sprintf(format, v...)
	l.debugLogger.Println(msg)

	// Также выводим в стандартный вывод
	if l.echoStdout {
		log.Println("DEBUG:", msg)
	}
}

// LogRunStart логирует начало прогона конвейера
func (l *PipelineLogger) LogRunStart(runID string) {
	l.Info("Начало прогона конвейера %s", runID)
}

// LogRunComplete логирует завершение прогона конвейера
func (l *PipelineLogger) LogRunComplete(startTime time.Time, rowsEnriched, summaryGroups int) {
	duration := time.Since(startTime)
	l.Info("Прогон конвейера завершён. Длительность: %v", duration)
	l.Info("Обработано: %d обогащенных строк, %d сводных групп", rowsEnriched, summaryGroups)
}

// LogStageStart логирует начало этапа конвейера
func (l *PipelineLogger) LogStageStart(stage string) {
	l.Info("Начало этапа %s", stage)
}

// LogStageComplete логирует завершение этапа конвейера
func (l *PipelineLogger) LogStageComplete(stage string, duration time.Duration) {
	l.Info("Этап %s завершён. Длительность: %v", stage, duration)
}
