package silver

import (
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Cleaner отвечает за очистку и нормализацию сырого манифеста
type Cleaner struct {
	logger          *utils.PipelineLogger
	requiredColumns []string
}

// NewCleaner создает новый экземпляр Cleaner
func NewCleaner(requiredColumns []string, logger *utils.PipelineLogger) *Cleaner {
	return &Cleaner{
		logger:          logger,
		requiredColumns: requiredColumns,
	}
}

// Clean выполняет очистку сырого батча. Порядок шагов фиксирован:
// обрезка пробелов в заголовке и ячейках, удаление полностью пустых строк,
// удаление полностью пустых колонок, проекция на обязательный набор колонок,
// удаление строк без Units, приведение Model и Sender к верхнему регистру.
// Обязательные колонки не удаляются, даже когда пусты во всех строках:
// их значения восполняются резервными цепочками при обогащении.
// Повторная очистка уже очищенного батча ничего не меняет
func (c *Cleaner) Clean(records [][]string) ([][]string, error) {
	if len(records) == 0 {
		return nil, &models.MissingColumnError{Column: c.requiredColumns[0]}
	}

	// 1. Обрезаем пробелы в заголовке и во всех ячейках; строки
	// выравниваются по длине заголовка
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, row := range records[1:] {
		out := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				out[i] = strings.TrimSpace(row[i])
			}
		}
		rows = append(rows, out)
	}

	// 2. Удаляем полностью пустые строки
	filtered := make([][]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if cell != "" {
				empty = false
				break
			}
		}
		if !empty {
			filtered = append(filtered, row)
		}
	}

	if dropped := len(rows) - len(filtered); dropped > 0 {
		c.logger.Debug("Удалено %d полностью пустых строк", dropped)
	}

	// 3. Удаляем полностью пустые колонки (по данным; при отсутствии
	// данных колонки сохраняются). Обязательные колонки остаются
	// всегда, иначе проекция теряла бы колонку, пустую во всех строках
	required := make(map[string]bool, len(c.requiredColumns))
	for _, name := range c.requiredColumns {
		required[name] = true
	}

	keep := make([]int, 0, len(header))
	for col := range header {
		if required[header[col]] || len(filtered) == 0 {
			keep = append(keep, col)
			continue
		}

		allEmpty := true
		for _, row := range filtered {
			if row[col] != "" {
				allEmpty = false
				break
			}
		}
		if !allEmpty {
			keep = append(keep, col)
		}
	}

	if dropped := len(header) - len(keep); dropped > 0 {
		c.logger.Debug("Удалено %d полностью пустых колонок", dropped)
	}

	// Индекс колонок по имени; при дубликатах имен берется первая
	index := make(map[string]int, len(keep))
	for _, col := range keep {
		if _, exists := index[header[col]]; !exists {
			index[header[col]] = col
		}
	}

	// 4. Проекция на обязательный набор колонок
	positions := make([]int, len(c.requiredColumns))
	for i, name := range c.requiredColumns {
		col, ok := index[name]
		if !ok {
			return nil, &models.MissingColumnError{Column: name}
		}
		positions[i] = col
	}

	unitsPos := -1
	modelPos := -1
	senderPos := -1
	for i, name := range c.requiredColumns {
		switch name {
		case "Units":
			unitsPos = i
		case "Model":
			modelPos = i
		case "Sender":
			senderPos = i
		}
	}

	cleaned := make([][]string, 0, len(filtered)+1)
	cleaned = append(cleaned, append([]string(nil), c.requiredColumns...))

	droppedUnits := 0
	for _, row := range filtered {
		projected := make([]string, len(positions))
		for i, col := range positions {
			projected[i] = row[col]
		}

		// 5. Строки без Units не участвуют в дальнейшей обработке
		if unitsPos >= 0 && projected[unitsPos] == "" {
			droppedUnits++
			continue
		}

		// 6. Ключи соединения приводятся к верхнему регистру
		if modelPos >= 0 {
			projected[modelPos] = strings.ToUpper(projected[modelPos])
		}
		if senderPos >= 0 {
			projected[senderPos] = strings.ToUpper(projected[senderPos])
		}

		cleaned = append(cleaned, projected)
	}

	if droppedUnits > 0 {
		c.logger.Debug("Удалено %d строк без значения Units", droppedUnits)
	}

	c.logger.Info("Очистка манифеста завершена: было %d строк, осталось %d",
		len(records)-1, len(cleaned)-1)

	return cleaned, nil
}

// Frame загружает очищенные записи в строго строковый дата-фрейм;
// типизация откладывается до обогащения
func Frame(records [][]string) (dataframe.DataFrame, error) {
	df := dataframe.LoadRecords(
		records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, &models.ParseError{Source: "очищенный манифест", Err: df.Err}
	}

	return df, nil
}
