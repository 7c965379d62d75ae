package silver

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/reference"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Enricher обогащает очищенный манифест справочными таблицами
// и вычисляет итоговые объем и вес
type Enricher struct {
	logger *utils.PipelineLogger
	refs   *reference.Tables
	now    time.Time
}

// NewEnricher создает новый экземпляр Enricher
func NewEnricher(refs *reference.Tables, now time.Time, logger *utils.PipelineLogger) *Enricher {
	return &Enricher{
		logger: logger,
		refs:   refs,
		now:    now,
	}
}

// Enrich выполняет обогащение батча:
// 1. Нормализация дат DeliveryDate и ProductionDate
// 2. Предварительная дата доставки по цепочке приоритетов
// 3. Предварительный объем из собственных данных строки
// 4. Присоединение справочника габаритов по (Sender, Model)
// 5. Присоединение средних по модели по Model
// 6. Итоговый объем и итоговый вес по цепочке приоритетов
func (e *Enricher) Enrich(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	rowsBefore := df.Nrow()

	// 1. Даты приводятся к каноническому формату YYYY-MM-DD;
	// нераспознанные значения обнуляются
	df = e.normalizeDates(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "нормализация дат", Err: df.Err}
	}

	// 2. Дата доставки разрешается до соединений; повторное разрешение
	// на этапе метрик дает тот же результат
	df = e.provisionalDelivery(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "предварительная дата доставки", Err: df.Err}
	}

	// 3. Предварительный объем: собственный CBM строки либо объем
	// из габаритов
	df = e.provisionalVolume(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "расчет объема", Err: df.Err}
	}

	// 4. Справочник габаритов по паре (Sender, Model)
	df = df.LeftJoin(e.refs.Dimensions, "Sender", "Model")
	if df.Err != nil {
		return df, &models.ParseError{Source: "соединение со справочником габаритов", Err: df.Err}
	}

	// 5. Средние по модели
	df = df.LeftJoin(e.refs.Averages, "Model")
	if df.Err != nil {
		return df, &models.ParseError{Source: "соединение со средними по модели", Err: df.Err}
	}

	// Левое соединение не должно менять число строк батча; рост означает
	// повторяющиеся ключи справочника и двойной учет отгрузок
	if df.Nrow() != rowsBefore {
		return df, fmt.Errorf("соединение со справочниками изменило число строк батча: было %d, стало %d",
			rowsBefore, df.Nrow())
	}

	// 6. Итоговые объем и вес
	df = e.finalVolume(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "итоговый объем", Err: df.Err}
	}

	df = e.finalWeight(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "итоговый вес", Err: df.Err}
	}

	e.logger.Info("Обогащение завершено: %d строк", df.Nrow())

	return df, nil
}

// normalizeDates приводит даты к формату YYYY-MM-DD
func (e *Enricher) normalizeDates(df dataframe.DataFrame) dataframe.DataFrame {
	for _, name := range []string{"DeliveryDate", "ProductionDate"} {
		values := df.Col(name).Records()
		out := make([]string, len(values))
		unparsed := 0
		for i, value := range values {
			if t, ok := parseDate(value); ok {
				out[i] = t.Format("2006-01-02")
			} else {
				if value != "" && value != "NaN" {
					unparsed++
				}
				out[i] = ""
			}
		}
		if unparsed > 0 {
			e.logger.Debug("Колонка %s: %d нераспознанных дат обнулено", name, unparsed)
		}
		df = df.Mutate(series.New(out, series.String, name))
		if df.Err != nil {
			return df
		}
	}

	return df
}

// provisionalDelivery заполняет DeliveryDate по цепочке приоритетов:
// собственная дата, иначе производство плюс 5 дней, иначе текущая дата
// плюс 30 дней
func (e *Enricher) provisionalDelivery(df dataframe.DataFrame) dataframe.DataFrame {
	delivery := df.Col("DeliveryDate").Records()
	production := df.Col("ProductionDate").Records()

	out := make([]string, len(delivery))
	defaulted := 0
	for i := range delivery {
		out[i] = resolveDeliveryDate(delivery[i], production[i], e.now)
		if out[i] != delivery[i] {
			defaulted++
		}
	}

	if defaulted > 0 {
		e.logger.Debug("Дата доставки предварительно заполнена для %d строк", defaulted)
	}

	return df.Mutate(series.New(out, series.String, "DeliveryDate"))
}

// provisionalVolume заменяет колонку CBM предварительным объемом:
// собственное значение строки либо произведение габаритов
func (e *Enricher) provisionalVolume(df dataframe.DataFrame) dataframe.DataFrame {
	own := df.Col("CBM").Float()
	length := df.Col("Length").Float()
	width := df.Col("Width").Float()
	height := df.Col("Height").Float()

	out := make([]float64, len(own))
	missing := 0
	for i := range own {
		out[i] = round2(computeVolume(own[i], length[i], width[i], height[i]))
		if math.IsNaN(out[i]) {
			missing++
		}
	}

	if missing > 0 {
		e.logger.Debug("Объем не определен для %d строк, будет взят из справочников", missing)
	}

	return df.Mutate(series.New(out, series.Float, "CBM"))
}

// finalVolume вычисляет итоговый объем по цепочке приоритетов:
// собственный объем, справочник габаритов, средние по модели, ноль
func (e *Enricher) finalVolume(df dataframe.DataFrame) dataframe.DataFrame {
	own := df.Col("CBM").Float()
	approx := df.Col("Approx_CBM").Float()
	avg := df.Col("Avg_CBM").Float()

	out := make([]float64, len(own))
	for i := range own {
		out[i] = round2(resolveFinalVolume(own[i], approx[i], avg[i]))
	}

	return df.Mutate(series.New(out, series.Float, "CBM"))
}

// finalWeight вычисляет итоговый вес аналогичной цепочкой:
// собственный вес строки, справочник габаритов, средние по модели, ноль
func (e *Enricher) finalWeight(df dataframe.DataFrame) dataframe.DataFrame {
	own := df.Col("Weight").Float()
	ref := df.Col("Weight_kg").Float()
	avg := df.Col("Avg_Weight").Float()

	out := make([]float64, len(own))
	for i := range own {
		out[i] = round2(resolveFinalWeight(own[i], ref[i], avg[i]))
	}

	return df.Mutate(series.New(out, series.Float, "Weight"))
}
