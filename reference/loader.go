// Package reference отвечает за загрузку справочных таблиц конвейера
// из объектного хранилища: габариты моделей, статистические средние
// моделей и континенты портов
package reference

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jszwec/csvutil"

	"github.com/LilVoxy/cargo_pipeline/config"
	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/storage"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Tables содержит три справочные таблицы конвейера
type Tables struct {
	// Габариты моделей: ключ (Sender, Model), значения Approx_CBM и Weight_kg
	Dimensions dataframe.DataFrame

	// Статистические средние моделей: ключ (Model), значения Avg_CBM и Avg_Weight
	Averages dataframe.DataFrame

	// Континенты портов: ключ (Port), значение Continent
	Ports dataframe.DataFrame
}

// Loader отвечает за загрузку справочных таблиц из объектного хранилища
type Loader struct {
	store  storage.BlobStore
	logger *utils.PipelineLogger
}

// NewLoader создает новый экземпляр Loader
func NewLoader(store storage.BlobStore, logger *utils.PipelineLogger) *Loader {
	return &Loader{
		store:  store,
		logger: logger,
	}
}

// LoadAll загружает все три справочника
func (l *Loader) LoadAll(ctx context.Context, cfg config.ReferenceConfig) (*Tables, error) {
	startTime := time.Now()
	l.logger.Info("Загрузка справочных таблиц...")

	dimensions, err := l.LoadDimensions(ctx, cfg.DimensionsObject)
	if err != nil {
		return nil, fmt.Errorf("ошибка при загрузке справочника габаритов: %w", err)
	}

	averages, err := l.LoadAverages(ctx, cfg.AveragesObject)
	if err != nil {
		return nil, fmt.Errorf("ошибка при загрузке справочника средних: %w", err)
	}

	ports, err := l.LoadPorts(ctx, cfg.PortsObject)
	if err != nil {
		return nil, fmt.Errorf("ошибка при загрузке справочника портов: %w", err)
	}

	l.logger.Info("Справочные таблицы загружены: габариты %d, средние %d, порты %d. Длительность: %v",
		dimensions.Nrow(), averages.Nrow(), ports.Nrow(), time.Since(startTime))

	return &Tables{
		Dimensions: dimensions,
		Averages:   averages,
		Ports:      ports,
	}, nil
}

// LoadDimensions загружает справочник габаритов моделей.
// Ключи приводятся к верхнему регистру — так же, как ключи манифеста
// после очистки, иначе точное соединение теряет совпадения
func (l *Loader) LoadDimensions(ctx context.Context, object string) (dataframe.DataFrame, error) {
	r, err := l.store.Open(ctx, object)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer r.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return dataframe.DataFrame{}, &models.ParseError{Source: object, Err: err}
	}

	var rows []models.ModelDimension
	seen := make(map[string]bool)
	skipped := 0
	duplicates := 0
	for {
		var row models.ModelDimension
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return dataframe.DataFrame{}, &models.ParseError{Source: object, Err: err}
		}

		row.Sender = strings.ToUpper(strings.TrimSpace(row.Sender))
		row.Model = strings.ToUpper(strings.TrimSpace(row.Model))
		if row.Sender == "" || row.Model == "" {
			skipped++
			continue
		}

		// Справочник — отображение по ключу: при повторе пары
		// (Sender, Model) действует первая строка
		key := row.Sender + "|" + row.Model
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true

		rows = append(rows, row)
	}

	if skipped > 0 {
		l.logger.Debug("Пропущено %d строк справочника габаритов с пустым ключом", skipped)
	}
	if duplicates > 0 {
		l.logger.Debug("Пропущено %d строк справочника габаритов с повторяющимся ключом", duplicates)
	}

	senders := make([]string, len(rows))
	modelNames := make([]string, len(rows))
	approx := make([]float64, len(rows))
	weights := make([]float64, len(rows))

	for i, row := range rows {
		senders[i] = row.Sender
		modelNames[i] = row.Model
		approx[i] = floatOrNaN(row.ApproxCBM)
		weights[i] = floatOrNaN(row.WeightKg)
	}

	return dataframe.New(
		series.New(senders, series.String, "Sender"),
		series.New(modelNames, series.String, "Model"),
		series.New(approx, series.Float, "Approx_CBM"),
		series.New(weights, series.Float, "Weight_kg"),
	), nil
}

// LoadAverages загружает справочник статистических средних моделей
func (l *Loader) LoadAverages(ctx context.Context, object string) (dataframe.DataFrame, error) {
	r, err := l.store.Open(ctx, object)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer r.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return dataframe.DataFrame{}, &models.ParseError{Source: object, Err: err}
	}

	var rows []models.ModelAverage
	seen := make(map[string]bool)
	skipped := 0
	duplicates := 0
	for {
		var row models.ModelAverage
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return dataframe.DataFrame{}, &models.ParseError{Source: object, Err: err}
		}

		row.Model = strings.ToUpper(strings.TrimSpace(row.Model))
		if row.Model == "" {
			skipped++
			continue
		}

		// При повторе модели действует первая строка
		if seen[row.Model] {
			duplicates++
			continue
		}
		seen[row.Model] = true

		rows = append(rows, row)
	}

	if skipped > 0 {
		l.logger.Debug("Пропущено %d строк справочника средних с пустым ключом", skipped)
	}
	if duplicates > 0 {
		l.logger.Debug("Пропущено %d строк справочника средних с повторяющимся ключом", duplicates)
	}

	modelNames := make([]string, len(rows))
	avgCBM := make([]float64, len(rows))
	avgWeight := make([]float64, len(rows))

	for i, row := range rows {
		modelNames[i] = row.Model
		avgCBM[i] = floatOrNaN(row.AvgCBM)
		avgWeight[i] = floatOrNaN(row.AvgWeight)
	}

	return dataframe.New(
		series.New(modelNames, series.String, "Model"),
		series.New(avgCBM, series.Float, "Avg_CBM"),
		series.New(avgWeight, series.Float, "Avg_Weight"),
	), nil
}

// LoadPorts загружает справочник континентов портов.
// Коды портов не меняют регистр: очистка манифеста его тоже не меняет,
// а соединение требует точного совпадения
func (l *Loader) LoadPorts(ctx context.Context, object string) (dataframe.DataFrame, error) {
	r, err := l.store.Open(ctx, object)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer r.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return dataframe.DataFrame{}, &models.ParseError{Source: object, Err: err}
	}

	var rows []models.PortContinent
	seen := make(map[string]bool)
	skipped := 0
	duplicates := 0
	for {
		var row models.PortContinent
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return dataframe.DataFrame{}, &models.ParseError{Source: object, Err: err}
		}

		row.Port = strings.TrimSpace(row.Port)
		row.Continent = strings.TrimSpace(row.Continent)
		if row.Port == "" {
			skipped++
			continue
		}

		// При повторе кода порта действует первая строка
		if seen[row.Port] {
			duplicates++
			continue
		}
		seen[row.Port] = true

		rows = append(rows, row)
	}

	if skipped > 0 {
		l.logger.Debug("Пропущено %d строк справочника портов с пустым ключом", skipped)
	}
	if duplicates > 0 {
		l.logger.Debug("Пропущено %d строк справочника портов с повторяющимся ключом", duplicates)
	}

	if len(rows) == 0 {
		return dataframe.New(
			series.New([]string{}, series.String, "Port"),
			series.New([]string{}, series.String, "Continent"),
		), nil
	}

	ports := dataframe.LoadStructs(rows)
	if ports.Err != nil {
		return ports, &models.ParseError{Source: object, Err: ports.Err}
	}

	return ports, nil
}

// floatOrNaN переводит необязательное число справочника в значение серии:
// отсутствующее значение представляется как NaN
func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
