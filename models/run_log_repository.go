package models

import (
	"database/sql"
	"fmt"
	"time"
)

// MySQLRunLogRepository реализация RunLogRepository для MySQL
type MySQLRunLogRepository struct {
	db *sql.DB
}

// NewMySQLRunLogRepository создает новый экземпляр MySQLRunLogRepository
func NewMySQLRunLogRepository(db *sql.DB) *MySQLRunLogRepository {
	return &MySQLRunLogRepository{
		db: db,
	}
}

// CreateRunLogTable создает таблицу журнала запусков конвейера, если она не существует
func (r *MySQLRunLogRepository) CreateRunLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS pipeline_run_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		run_id VARCHAR(36) NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		rows_extracted INT DEFAULT 0,
		rows_cleaned INT DEFAULT 0,
		rows_enriched INT DEFAULT 0,
		summary_groups INT DEFAULT 0,
		artifact VARCHAR(255),
		error_message TEXT,
		execution_time_seconds FLOAT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы pipeline_run_log: %w", err)
	}

	return nil
}

// CreateLogEntry создает новую запись о запуске конвейера
func (r *MySQLRunLogRepository) CreateLogEntry(runID string, startTime time.Time) (int, error) {
	query := `
	INSERT INTO pipeline_run_log (run_id, start_time, status)
	VALUES (?, ?, 'in_progress')
	`

	result, err := r.db.Exec(query, runID, startTime)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании записи о запуске конвейера: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID созданной записи: %w", err)
	}

	return int(id), nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении прогона
func (r *MySQLRunLogRepository) UpdateLogEntrySuccess(
	id int,
	endTime time.Time,
	rowsExtracted,
	rowsCleaned,
	rowsEnriched,
	summaryGroups int,
	artifact string) error {

	// Рассчитываем время выполнения в секундах
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM pipeline_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return fmt.Errorf("ошибка при получении времени начала прогона: %w", err)
	}

	executionTime := endTime.Sub(startTime).Seconds()

	// Обновляем запись
	query := `
	UPDATE pipeline_run_log
	SET
		end_time = ?,
		status = 'success',
		rows_extracted = ?,
		rows_cleaned = ?,
		rows_enriched = ?,
		summary_groups = ?,
		artifact = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(
		query,
		endTime,
		rowsExtracted,
		rowsCleaned,
		rowsEnriched,
		summaryGroups,
		artifact,
		executionTime,
		id,
	)

	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске конвейера: %w", err)
	}

	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении прогона
func (r *MySQLRunLogRepository) UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error {
	// Рассчитываем время выполнения в секундах
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM pipeline_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return fmt.Errorf("ошибка при получении времени начала прогона: %w", err)
	}

	executionTime := endTime.Sub(startTime).Seconds()

	// Обновляем запись
	query := `
	UPDATE pipeline_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, errorMessage, executionTime, id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске конвейера: %w", err)
	}

	return nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном прогоне
func (r *MySQLRunLogRepository) GetLastSuccessfulRun() (*PipelineRunLog, error) {
	query := `
	SELECT
		id, run_id, start_time, end_time, status,
		rows_extracted, rows_cleaned, rows_enriched, summary_groups,
		IFNULL(artifact, ''), IFNULL(error_message, ''), execution_time_seconds
	FROM pipeline_run_log
	WHERE status = 'success'
	ORDER BY end_time DESC
	LIMIT 1
	`

	var log PipelineRunLog
	err := r.db.QueryRow(query).Scan(
		&log.ID, &log.RunID, &log.StartTime, &log.EndTime, &log.Status,
		&log.RowsExtracted, &log.RowsCleaned, &log.RowsEnriched, &log.SummaryGroups,
		&log.Artifact, &log.ErrorMessage, &log.ExecutionTimeSeconds,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Нет успешных прогонов
		}
		return nil, fmt.Errorf("ошибка при получении информации о последнем успешном прогоне: %w", err)
	}

	return &log, nil
}

// GetLastFailedRun получает информацию о последнем неудачном прогоне
func (r *MySQLRunLogRepository) GetLastFailedRun() (*PipelineRunLog, error) {
	query := `
	SELECT
		id, run_id, start_time, end_time, status,
		rows_extracted, rows_cleaned, rows_enriched, summary_groups,
		IFNULL(artifact, ''), IFNULL(error_message, ''), execution_time_seconds
	FROM pipeline_run_log
	WHERE status = 'failed'
	ORDER BY end_time DESC
	LIMIT 1
	`

	var log PipelineRunLog
	err := r.db.QueryRow(query).Scan(
		&log.ID, &log.RunID, &log.StartTime, &log.EndTime, &log.Status,
		&log.RowsExtracted, &log.RowsCleaned, &log.RowsEnriched, &log.SummaryGroups,
		&log.Artifact, &log.ErrorMessage, &log.ExecutionTimeSeconds,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Нет неудачных прогонов
		}
		return nil, fmt.Errorf("ошибка при получении информации о последнем неудачном прогоне: %w", err)
	}

	return &log, nil
}

// GetCurrentRun получает информацию о выполняющемся прогоне.
// У незавершенного прогона нет времени окончания и длительности
func (r *MySQLRunLogRepository) GetCurrentRun() (*PipelineRunLog, error) {
	query := `
	SELECT
		id, run_id, start_time, IFNULL(end_time, NOW()), status,
		rows_extracted, rows_cleaned, rows_enriched, summary_groups,
		IFNULL(artifact, ''), IFNULL(error_message, ''), IFNULL(execution_time_seconds, 0)
	FROM pipeline_run_log
	WHERE status = 'in_progress'
	ORDER BY start_time DESC
	LIMIT 1
	`

	var log PipelineRunLog
	err := r.db.QueryRow(query).Scan(
		&log.ID, &log.RunID, &log.StartTime, &log.EndTime, &log.Status,
		&log.RowsExtracted, &log.RowsCleaned, &log.RowsEnriched, &log.SummaryGroups,
		&log.Artifact, &log.ErrorMessage, &log.ExecutionTimeSeconds,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Нет выполняющихся прогонов
		}
		return nil, fmt.Errorf("ошибка при получении информации о выполняющемся прогоне: %w", err)
	}

	return &log, nil
}

// GetRunStats получает статистику о прогонах за определенный период
func (r *MySQLRunLogRepository) GetRunStats(days int) ([]PipelineRunLog, error) {
	query := `
	SELECT
		id, run_id, start_time, IFNULL(end_time, NOW()), status,
		rows_extracted, rows_cleaned, rows_enriched, summary_groups,
		IFNULL(artifact, ''), IFNULL(error_message, ''), IFNULL(execution_time_seconds, 0)
	FROM pipeline_run_log
	WHERE start_time >= DATE_SUB(NOW(), INTERVAL ? DAY)
	ORDER BY start_time DESC
	`

	rows, err := r.db.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении статистики прогонов: %w", err)
	}
	defer rows.Close()

	var logs []PipelineRunLog
	for rows.Next() {
		var log PipelineRunLog
		err := rows.Scan(
			&log.ID, &log.RunID, &log.StartTime, &log.EndTime, &log.Status,
			&log.RowsExtracted, &log.RowsCleaned, &log.RowsEnriched, &log.SummaryGroups,
			&log.Artifact, &log.ErrorMessage, &log.ExecutionTimeSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи о прогоне: %w", err)
		}
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по записям о прогонах: %w", err)
	}

	return logs, nil
}
