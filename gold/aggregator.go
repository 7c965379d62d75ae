// Package gold реализует второй этап конвейера: чтение артефакта silver-слоя,
// агрегацию по паре (порт отгрузки, сегмент) и загрузку в аналитическое
// хранилище MySQL
package gold

import (
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Aggregator строит сводку по паре (порт отгрузки, сегмент груза)
type Aggregator struct {
	logger *utils.PipelineLogger
}

// NewAggregator создает новый экземпляр Aggregator
func NewAggregator(logger *utils.PipelineLogger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate группирует строки артефакта по паре (Load_Port, Segment).
// Для каждой группы: сумма единиц, сумма совокупного объема и число отгрузок.
// Ключи сравниваются точно, без нормализации регистра.
// Сумма единиц по всем группам равна сумме единиц по всем строкам
func (a *Aggregator) Aggregate(rows []models.EnrichedShipment) ([]models.PortSegmentSummary, error) {
	startTime := time.Now()

	if len(rows) == 0 {
		a.logger.Info("Нет строк для агрегации")
		return nil, nil
	}

	groups := a.frame(rows).GroupBy("Load_Port", "Segment")
	if groups.Err != nil {
		return nil, &models.ParseError{Source: "агрегация по портам и сегментам", Err: groups.Err}
	}

	summaries := make([]models.PortSegmentSummary, 0, len(groups.GetGroups()))
	for _, group := range groups.GetGroups() {
		summaries = append(summaries, models.PortSegmentSummary{
			LoadPort:      group.Col("Load_Port").Elem(0).String(),
			Segment:       group.Col("Segment").Elem(0).String(),
			TotalUnits:    int64(group.Col("Units").Sum()),
			TotalCBM:      round2(group.Col("Result_CBM").Sum()),
			ShipmentCount: group.Nrow(),
		})
	}

	// Порядок групп в map не определен, сводка сортируется по ключу
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].LoadPort != summaries[j].LoadPort {
			return summaries[i].LoadPort < summaries[j].LoadPort
		}
		return summaries[i].Segment < summaries[j].Segment
	})

	a.logger.Info("Агрегация завершена: %d строк, %d групп. Длительность: %v",
		len(rows), len(summaries), time.Since(startTime))

	return summaries, nil
}

// frame собирает дата-фрейм для группировки с явными типами серий
func (a *Aggregator) frame(rows []models.EnrichedShipment) dataframe.DataFrame {
	loadPorts := make([]string, len(rows))
	segments := make([]string, len(rows))
	units := make([]int, len(rows))
	resultCBM := make([]float64, len(rows))

	for i, row := range rows {
		loadPorts[i] = row.LoadPort
		segments[i] = row.Segment
		units[i] = int(row.Units)
		resultCBM[i] = row.ResultCBM
	}

	return dataframe.New(
		series.New(loadPorts, series.String, "Load_Port"),
		series.New(segments, series.String, "Segment"),
		series.New(units, series.Int, "Units"),
		series.New(resultCBM, series.Float, "Result_CBM"),
	)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
