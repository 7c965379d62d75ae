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

// intermediateColumns — служебные колонки, которые не попадают в артефакт:
// сырые габариты, справочный вес, приближенные и средние значения,
// дата производства и континенты портов
var intermediateColumns = []string{
	"Length",
	"Width",
	"Height",
	"Weight_kg",
	"Approx_CBM",
	"Avg_CBM",
	"Avg_Weight",
	"ProductionDate",
	"POL_Continent",
	"POD_Continent",
}

// MetricsProcessor вычисляет производные метрики обогащенного батча
type MetricsProcessor struct {
	logger *utils.PipelineLogger
	refs   *reference.Tables
	now    time.Time
}

// NewMetricsProcessor создает новый экземпляр MetricsProcessor
func NewMetricsProcessor(refs *reference.Tables, now time.Time, logger *utils.PipelineLogger) *MetricsProcessor {
	return &MetricsProcessor{
		logger: logger,
		refs:   refs,
		now:    now,
	}
}

// Derive вычисляет производные метрики:
// 1. Дата доставки с подстановкой по умолчанию
// 2. Совокупный объем Result_CBM = Units × CBM
// 3. Континенты портов погрузки и выгрузки
// 4. Торговое направление Trade
// 5. Удаление служебных колонок
func (p *MetricsProcessor) Derive(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	rowsBefore := df.Nrow()

	// 1. Дата доставки: собственная, иначе производство + 5 дней,
	// иначе текущая дата + 30 дней
	df = p.deliveryDates(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "дата доставки", Err: df.Err}
	}

	// 2. Совокупный объем позиции
	df = p.resultVolume(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "совокупный объем", Err: df.Err}
	}

	// 3. Континенты портов
	df = p.joinContinents(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "соединение со справочником портов", Err: df.Err}
	}

	// Левое соединение не должно менять число строк батча; рост означает
	// повторяющиеся коды портов в справочнике
	if df.Nrow() != rowsBefore {
		return df, fmt.Errorf("соединение с портами изменило число строк батча: было %d, стало %d",
			rowsBefore, df.Nrow())
	}

	// 4. Торговое направление: конкатенация континентов через дефис
	df = p.tradeLane(df)
	if df.Err != nil {
		return df, &models.ParseError{Source: "торговое направление", Err: df.Err}
	}

	// 5. Служебные колонки в артефакт не входят
	df = df.Drop(intermediateColumns)
	if df.Err != nil {
		return df, &models.ParseError{Source: "удаление служебных колонок", Err: df.Err}
	}

	p.logger.Info("Производные метрики вычислены: %d строк, %d колонок", df.Nrow(), df.Ncol())

	return df, nil
}

// deliveryDates заполняет пропущенные даты доставки
func (p *MetricsProcessor) deliveryDates(df dataframe.DataFrame) dataframe.DataFrame {
	delivery := df.Col("DeliveryDate").Records()
	production := df.Col("ProductionDate").Records()

	out := make([]string, len(delivery))
	defaulted := 0
	for i := range delivery {
		out[i] = resolveDeliveryDate(delivery[i], production[i], p.now)
		if out[i] != delivery[i] {
			defaulted++
		}
	}

	if defaulted > 0 {
		p.logger.Debug("Дата доставки подставлена по умолчанию для %d строк", defaulted)
	}

	return df.Mutate(series.New(out, series.String, "DeliveryDate"))
}

// resultVolume вычисляет совокупный объем позиции Units × CBM
func (p *MetricsProcessor) resultVolume(df dataframe.DataFrame) dataframe.DataFrame {
	units := df.Col("Units").Float()
	cbm := df.Col("CBM").Float()

	out := make([]float64, len(units))
	missing := 0
	for i := range units {
		n := units[i]
		if math.IsNaN(n) {
			n = 0
			missing++
		}
		out[i] = round2(n * cbm[i])
	}

	if missing > 0 {
		p.logger.Debug("Количество единиц нечитаемо для %d строк, принято за 0", missing)
	}

	return df.Mutate(series.New(out, series.Float, "Result_CBM"))
}

// joinContinents присоединяет континенты портов погрузки и выгрузки
// двумя соединениями с одним и тем же справочником
func (p *MetricsProcessor) joinContinents(df dataframe.DataFrame) dataframe.DataFrame {
	pol := p.refs.Ports.
		Rename("Load_Port", "Port").
		Rename("POL_Continent", "Continent")
	if pol.Err != nil {
		df.Err = pol.Err
		return df
	}

	df = df.LeftJoin(pol, "Load_Port")
	if df.Err != nil {
		return df
	}

	pod := p.refs.Ports.
		Rename("Discharge_Port", "Port").
		Rename("POD_Continent", "Continent")
	if pod.Err != nil {
		df.Err = pod.Err
		return df
	}

	return df.LeftJoin(pod, "Discharge_Port")
}

// tradeLane формирует торговое направление из пары континентов.
// Неизвестные континенты участвуют в конкатенации как есть
func (p *MetricsProcessor) tradeLane(df dataframe.DataFrame) dataframe.DataFrame {
	pol := df.Col("POL_Continent").Records()
	pod := df.Col("POD_Continent").Records()

	out := make([]string, len(pol))
	for i := range pol {
		out[i] = pol[i] + "-" + pod[i]
	}

	return df.Mutate(series.New(out, series.String, "Trade"))
}
