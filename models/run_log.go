package models

import (
	"time"
)

// PipelineRunLog представляет запись о запуске конвейера
type PipelineRunLog struct {
	ID                   int       `json:"id"`
	RunID                string    `json:"run_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	RowsExtracted        int       `json:"rows_extracted"`
	RowsCleaned          int       `json:"rows_cleaned"`
	RowsEnriched         int       `json:"rows_enriched"`
	SummaryGroups        int       `json:"summary_groups"`
	Artifact             string    `json:"artifact,omitempty"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunLogRepository представляет репозиторий для работы с журналом запусков конвейера
type RunLogRepository interface {
	// CreateLogEntry создает новую запись о запуске конвейера
	CreateLogEntry(runID string, startTime time.Time) (int, error)

	// UpdateLogEntrySuccess обновляет запись при успешном завершении прогона
	UpdateLogEntrySuccess(
		id int,
		endTime time.Time,
		rowsExtracted,
		rowsCleaned,
		rowsEnriched,
		summaryGroups int,
		artifact string) error

	// UpdateLogEntryFailure обновляет запись при неудачном завершении прогона
	UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном прогоне
	GetLastSuccessfulRun() (*PipelineRunLog, error)

	// GetLastFailedRun получает информацию о последнем неудачном прогоне
	GetLastFailedRun() (*PipelineRunLog, error)

	// GetCurrentRun получает информацию о выполняющемся прогоне
	GetCurrentRun() (*PipelineRunLog, error)

	// GetRunStats получает статистику о прогонах за определенный период
	GetRunStats(days int) ([]PipelineRunLog, error)
}

// RunStateMonitor предоставляет информацию о текущем состоянии конвейера
type RunStateMonitor struct {
	LastSuccessfulRun *PipelineRunLog `json:"last_successful_run"`
	LastFailedRun     *PipelineRunLog `json:"last_failed_run,omitempty"`
	CurrentRun        *PipelineRunLog `json:"current_run,omitempty"`
}
